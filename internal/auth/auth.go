// Package auth is the identity collaborator. The engine only needs an
// opaque user id to stamp purchases and scope baskets; how that id is
// established (sessions, tokens) lives outside this repository.
package auth

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned when no user identity is available.
var ErrNotAuthenticated = errors.New("user not authenticated")

// Identity supplies the current user's id.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Static is a fixed identity, used in tests and single-user setups.
type Static struct {
	UserID string
}

func (s Static) CurrentUserID(context.Context) (string, error) {
	if s.UserID == "" {
		return "", ErrNotAuthenticated
	}
	return s.UserID, nil
}

type userIDKey struct{}

// WithUserID stamps a user id into the context. The HTTP layer calls this
// from its identity middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// FromContext is an Identity that reads the user id stamped by WithUserID.
type FromContext struct{}

func (FromContext) CurrentUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	if !ok || userID == "" {
		return "", ErrNotAuthenticated
	}
	return userID, nil
}
