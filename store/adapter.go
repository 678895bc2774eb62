package store

import (
	"context"
	"errors"
)

// Adapter couples a session store with the user store it references.
type Adapter struct {
	SessionStore
	Users UserStore
}

// NewAdapter pairs sessions and users that may live in different backends,
// for example Redis sessions with Mongo users.
func NewAdapter(sessions SessionStore, users UserStore) *Adapter {
	return &Adapter{SessionStore: sessions, Users: users}
}

// GetSessionAndUser loads a session and its user. It returns nil, nil when
// the session is absent, and also when the referenced user is absent so an
// orphaned session never authenticates anyone.
func (a *Adapter) GetSessionAndUser(ctx context.Context, id string) (*Session, *User, error) {
	sess, err := a.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, nil
	}

	user, err := a.Users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return sess, user, nil
}

// Permissions returns a copy of perms so callers never alias store state.
func Permissions(perms []string) []string {
	if perms == nil {
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
