package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/huiapp/huiauth/store"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email,omitempty"`
	Phone        string        `bson:"phone,omitempty"`
	FullName     string        `bson:"full_name"`
	PasswordHash string        `bson:"password_hash"`
	Role         string        `bson:"role"`
	Status       string        `bson:"status"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
	RoleInfo     []roleDoc     `bson:"role_info,omitempty"`
}

func (d userDoc) toUser() *store.User {
	var perms []string
	if len(d.RoleInfo) > 0 {
		perms = d.RoleInfo[0].Permissions
	}
	return &store.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Phone:        d.Phone,
		FullName:     d.FullName,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		Permissions:  store.Permissions(perms),
		Status:       d.Status,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// userPipeline selects one user by filter and joins its role document.
func userPipeline(filter bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: RolesCollection},
			{Key: "localField", Value: "role"},
			{Key: "foreignField", Value: "name"},
			{Key: "as", Value: "role_info"},
		}}},
	}
}

func emailOrPhoneFilter(email, phone string) bson.D {
	or := bson.A{}
	if email != "" {
		or = append(or, bson.D{{Key: "email", Value: email}})
	}
	if phone != "" {
		or = append(or, bson.D{{Key: "phone", Value: phone}})
	}
	return bson.D{{Key: "$or", Value: or}}
}

func (s *Store) findOneUser(ctx context.Context, operation string, filter bson.D) (*store.User, error) {
	cur, err := s.users.Aggregate(ctx, userPipeline(filter))
	if err != nil {
		return nil, classify(operation, err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(operation, err)
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0].toUser(), nil
}

// FindByID implements [store.UserStore]. A malformed id is not found.
func (s *Store) FindByID(ctx context.Context, id string) (*store.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findOneUser(ctx, "find user by id", bson.D{{Key: "_id", Value: oid}})
}

// FindByEmail implements [store.UserStore].
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	if email == "" {
		return nil, store.ErrNotFound
	}
	return s.findOneUser(ctx, "find user by email", bson.D{{Key: "email", Value: email}})
}

// FindByPhone implements [store.UserStore].
func (s *Store) FindByPhone(ctx context.Context, phone string) (*store.User, error) {
	if phone == "" {
		return nil, store.ErrNotFound
	}
	return s.findOneUser(ctx, "find user by phone", bson.D{{Key: "phone", Value: phone}})
}

// ExistsByEmailOrPhone implements [store.UserStore].
func (s *Store) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	if email == "" && phone == "" {
		return false, nil
	}
	n, err := s.users.CountDocuments(ctx, emailOrPhoneFilter(email, phone), options.Count().SetLimit(1))
	if err != nil {
		return false, classify("exists by email or phone", err)
	}
	return n > 0, nil
}

// CreateUser implements [store.UserStore].
func (s *Store) CreateUser(ctx context.Context, in store.NewUser) (*store.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := userDoc{
		ID:           bson.NewObjectID(),
		Email:        in.Email,
		Phone:        in.Phone,
		FullName:     in.FullName,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Status:       store.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return nil, classify("create user", err)
	}
	return s.FindByID(ctx, doc.ID.Hex())
}

// UpdatePasswordHash implements [store.UserStore].
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return s.updateUser(ctx, "update password hash", userID, bson.D{{Key: "password_hash", Value: hash}})
}

// SetStatus implements [store.UserStore].
func (s *Store) SetStatus(ctx context.Context, userID, status string) error {
	return s.updateUser(ctx, "set status", userID, bson.D{{Key: "status", Value: status}})
}

func (s *Store) updateUser(ctx context.Context, operation, userID string, set bson.D) error {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return store.ErrNotFound
	}
	set = append(set, bson.E{Key: "updated_at", Value: s.now().UTC()})
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return classify(operation, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
