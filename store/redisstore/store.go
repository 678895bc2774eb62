// Package redisstore keeps sessions in Redis.
//
// Each session is one key holding a compact binary blob whose TTL matches
// the session expiry, plus a per-user set indexing the user's session ids.
// Users and roles are not stored here; pair this store with a user store
// through store.NewAdapter.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huiapp/huiauth/store"
)

const domain = "redisstore"

const insertSessionScript = `
local ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2])
if not ok then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[3])
return 1
`

var insertSessionLua = redis.NewScript(insertSessionScript)

const deleteSessionScript = `
local data = redis.call("GET", KEYS[1])
redis.call("DEL", KEYS[1])
if KEYS[2] then
  redis.call("SREM", KEYS[2], ARGV[1])
end
if data then
  return 1
end
return 0
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed [store.SessionStore].
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ store.SessionStore = (*Store)(nil)

// New returns a store namespacing keys under prefix ("hs" when empty).
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "hs"
	}
	return &Store{redis: rdb, prefix: prefix, now: time.Now}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

func (s *Store) ttl(expiresAt time.Time) time.Duration {
	return expiresAt.Sub(s.now())
}

// GetSession implements [store.SessionStore].
func (s *Store) GetSession(ctx context.Context, id string) (*store.Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, store.Unavailable(domain, "get session", err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, store.Unavailable(domain, "decode session", err)
	}
	sess.ID = id
	return &sess, nil
}

// GetUserSessions implements [store.SessionStore]. Index entries whose key
// has already expired are skipped.
func (s *Store) GetUserSessions(ctx context.Context, userID string) ([]store.Session, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, store.Unavailable(domain, "list user sessions", err)
	}
	if len(ids) == 0 {
		return []store.Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, store.Unavailable(domain, "list user sessions", err)
	}

	out := make([]store.Session, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, store.Unavailable(domain, "list user sessions", err)
		}
		sess, err := Decode(data)
		if err != nil {
			continue
		}
		sess.ID = ids[i]
		out = append(out, sess)
	}
	return out, nil
}

// SetSession implements [store.SessionStore] with SET NX, so an id
// collision is reported instead of overwriting.
func (s *Store) SetSession(ctx context.Context, sess store.Session) error {
	ttl := s.ttl(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("redisstore: session already expired")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	res, err := insertSessionLua.Run(ctx, s.redis,
		[]string{s.key(sess.ID), s.userKey(sess.UserID)},
		data, ttl.Milliseconds(), sess.ID,
	).Int64()
	if err != nil {
		return store.Unavailable(domain, "set session", err)
	}
	if res == 0 {
		return store.Duplicate(domain, "set session", errors.New("session id exists"))
	}
	return nil
}

// UpdateSessionExpiration implements [store.SessionStore]. The rewrite uses
// SET XX so a session deleted concurrently stays deleted.
func (s *Store) UpdateSessionExpiration(ctx context.Context, id string, expiresAt time.Time) error {
	key := s.key(id)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return store.Unavailable(domain, "update session expiration", err)
	}

	sess, err := Decode(data)
	if err != nil {
		return store.Unavailable(domain, "decode session", err)
	}
	ttl := s.ttl(expiresAt)
	if ttl <= 0 {
		return s.DeleteSession(ctx, id)
	}

	sess.ExpiresAt = expiresAt
	encoded, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.SetArgs(ctx, key, encoded, redis.SetArgs{Mode: "XX", TTL: ttl}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return store.Unavailable(domain, "update session expiration", err)
	}
	return nil
}

// DeleteSession implements [store.SessionStore].
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	keys := []string{s.key(id)}

	data, err := s.redis.Get(ctx, keys[0]).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return store.Unavailable(domain, "delete session", err)
	}
	if sess, decErr := Decode(data); decErr == nil {
		keys = append(keys, s.userKey(sess.UserID))
	}

	if err := deleteSessionLua.Run(ctx, s.redis, keys, id).Err(); err != nil {
		return store.Unavailable(domain, "delete session", err)
	}
	return nil
}

// DeleteUserSessions implements [store.SessionStore].
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return store.Unavailable(domain, "delete user sessions", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, userKey)

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return store.Unavailable(domain, "delete user sessions", err)
	}
	return nil
}

// DeleteExpiredSessions implements [store.SessionStore]. Redis drops
// expired session keys on its own; the sweep prunes index entries that
// point at them and reports how many it removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	pattern := s.prefix + ":u:*"

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return removed, store.Unavailable(domain, "sweep sessions", err)
		}
		for _, userKey := range keys {
			n, err := s.pruneIndex(ctx, userKey)
			if err != nil {
				return removed, err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}

func (s *Store) pruneIndex(ctx context.Context, userKey string) (int64, error) {
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, store.Unavailable(domain, "sweep sessions", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	exists := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, store.Unavailable(domain, "sweep sessions", err)
	}

	stale := make([]any, 0)
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
		return 0, store.Unavailable(domain, "sweep sessions", err)
	}
	return int64(len(stale)), nil
}

// Ping reports Redis availability and round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), store.Unavailable(domain, "ping", err)
	}
	return time.Since(start), nil
}
