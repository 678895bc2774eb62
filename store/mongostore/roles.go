package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/huiapp/huiauth/store"
)

type roleDoc struct {
	Name        string   `bson:"name"`
	Description string   `bson:"description"`
	Permissions []string `bson:"permissions"`
}

// FindRoleByName implements [store.RoleStore].
func (s *Store) FindRoleByName(ctx context.Context, name string) (*store.Role, error) {
	var doc roleDoc
	if err := s.roles.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc); err != nil {
		return nil, classify("find role", err)
	}
	return &store.Role{
		Name:        doc.Name,
		Description: doc.Description,
		Permissions: store.Permissions(doc.Permissions),
	}, nil
}

// UpsertRole implements [store.RoleStore].
func (s *Store) UpsertRole(ctx context.Context, r store.Role) error {
	_, err := s.roles.UpdateOne(ctx,
		bson.D{{Key: "name", Value: r.Name}},
		bson.D{{Key: "$set", Value: roleDoc{
			Name:        r.Name,
			Description: r.Description,
			Permissions: store.Permissions(r.Permissions),
		}}},
		options.UpdateOne().SetUpsert(true),
	)
	return classify("upsert role", err)
}
