package domain

import "context"

// UserID identifies the owner of projects and tasks.
type UserID string

// Equal reports whether both ids refer to the same user. Empty ids never match.
func (id UserID) Equal(other UserID) bool {
	return id != "" && id == other
}

func (id UserID) String() string { return string(id) }

// Identity carries the verified claims of the caller.
type Identity struct {
	ID    UserID
	Email string
	Name  string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

// RequireIdentity is IdentityFromContext for operations that refuse anonymous callers.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, newError(ErrUnauthenticated, "No autenticado")
	}
	return id, nil
}
