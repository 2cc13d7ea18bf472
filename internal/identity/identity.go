package identity

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

var (
	// ErrUnauthenticated is returned when a request carries no valid session
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned by Login for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned by Register when the username is taken
	ErrUserExists = errors.New("username already registered")
)

// Source resolves the caller behind a bearer token. The returned ID is the
// only identity a mutating registry call may act as.
type Source interface {
	Authenticate(ctx context.Context, token string) (types.UserID, error)
}

type contextKey struct{}

// WithCaller stores the authenticated caller in ctx
func WithCaller(ctx context.Context, user types.UserID) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// CallerFrom returns the authenticated caller stored by WithCaller
func CallerFrom(ctx context.Context) (types.UserID, bool) {
	user, ok := ctx.Value(contextKey{}).(types.UserID)
	return user, ok && user != ""
}
