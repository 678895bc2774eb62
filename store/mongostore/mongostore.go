// Package mongostore implements the store contract on MongoDB.
//
// Collections: users, roles, sessions and settings. User reads run an
// aggregation that joins the role document by name so permissions always
// reflect the role as it is now.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/huiapp/huiauth/store"
)

const domain = "mongostore"

// Collection names.
const (
	UsersCollection    = "users"
	RolesCollection    = "roles"
	SessionsCollection = "sessions"
	SettingsCollection = "settings"
)

// Store is a MongoDB-backed store. Safe for concurrent use.
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *mongo.Collection
	roles    *mongo.Collection
	sessions *mongo.Collection
	settings *mongo.Collection
	now      func() time.Time
	owned    bool
}

var (
	_ store.SessionStore = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
	_ store.RoleStore    = (*Store)(nil)
	_ store.SettingStore = (*Store)(nil)
)

// Connect dials uri, pings the primary and returns a store on database.
// Close disconnects the client.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, store.Unavailable(domain, "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, store.Unavailable(domain, "ping", err)
	}
	s := New(client.Database(database))
	s.client = client
	s.owned = true
	return s, nil
}

// New wraps an existing database handle. The caller keeps ownership of the
// client.
func New(db *mongo.Database) *Store {
	return &Store{
		client:   db.Client(),
		db:       db,
		users:    db.Collection(UsersCollection),
		roles:    db.Collection(RolesCollection),
		sessions: db.Collection(SessionsCollection),
		settings: db.Collection(SettingsCollection),
		now:      time.Now,
	}
}

// Close disconnects the client when the store created it.
func (s *Store) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return store.Unavailable(domain, "ping", err)
	}
	return nil
}

// EnsureIndexes creates the unique and lookup indexes the contract relies
// on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	plan := map[*mongo.Collection][]mongo.IndexModel{
		s.sessions: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
		},
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		s.roles: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.settings: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
	}
	for coll, models := range plan {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return store.Unavailable(domain, "create indexes "+coll.Name(), err)
		}
	}
	return nil
}

// classify maps driver errors onto the store sentinels.
func classify(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.Duplicate(domain, operation, err)
	default:
		return store.Unavailable(domain, operation, err)
	}
}
