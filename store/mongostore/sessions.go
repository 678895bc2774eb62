package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/huiapp/huiauth/store"
)

type sessionDoc struct {
	ID         string           `bson:"id"`
	UserID     string           `bson:"userId"`
	ExpiresAt  time.Time        `bson:"expiresAt"`
	Attributes store.Attributes `bson:"attributes"`
}

func (d sessionDoc) toSession() store.Session {
	return store.Session{
		ID:         d.ID,
		UserID:     d.UserID,
		ExpiresAt:  d.ExpiresAt.UTC(),
		Attributes: store.Attributes{Permissions: store.Permissions(d.Attributes.Permissions)},
	}
}

// GetSession implements [store.SessionStore].
func (s *Store) GetSession(ctx context.Context, id string) (*store.Session, error) {
	var doc sessionDoc
	if err := s.sessions.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&doc); err != nil {
		return nil, classify("get session", err)
	}
	sess := doc.toSession()
	return &sess, nil
}

// GetUserSessions implements [store.SessionStore].
func (s *Store) GetUserSessions(ctx context.Context, userID string) ([]store.Session, error) {
	cur, err := s.sessions.Find(ctx, bson.D{{Key: "userId", Value: userID}})
	if err != nil {
		return nil, classify("get user sessions", err)
	}
	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify("get user sessions", err)
	}
	out := make([]store.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toSession())
	}
	return out, nil
}

// SetSession implements [store.SessionStore]. The unique index on id turns
// a collision into [store.ErrDuplicateKey].
func (s *Store) SetSession(ctx context.Context, sess store.Session) error {
	doc := sessionDoc{
		ID:         sess.ID,
		UserID:     sess.UserID,
		ExpiresAt:  sess.ExpiresAt.UTC(),
		Attributes: store.Attributes{Permissions: store.Permissions(sess.Attributes.Permissions)},
	}
	_, err := s.sessions.InsertOne(ctx, doc)
	return classify("set session", err)
}

// UpdateSessionExpiration implements [store.SessionStore].
func (s *Store) UpdateSessionExpiration(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.sessions.UpdateOne(ctx,
		bson.D{{Key: "id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "expiresAt", Value: expiresAt.UTC()}}}},
	)
	return classify("update session expiration", err)
}

// DeleteSession implements [store.SessionStore].
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.sessions.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	return classify("delete session", err)
}

// DeleteUserSessions implements [store.SessionStore].
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := s.sessions.DeleteMany(ctx, bson.D{{Key: "userId", Value: userID}})
	return classify("delete user sessions", err)
}

// DeleteExpiredSessions implements [store.SessionStore].
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, expiredFilter(s.now()))
	if err != nil {
		return 0, classify("delete expired sessions", err)
	}
	return res.DeletedCount, nil
}

func expiredFilter(now time.Time) bson.D {
	return bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: now.UTC()}}}}
}
