package auth

import "context"

type identityKey struct{}

// Identity is the authenticated caller as carried by a valid access token.
type Identity struct {
	UserID   string
	Email    string
	Username string
	IsStaff  bool
}

func IdentityFromClaims(c *Claims) Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Username: c.Username, IsStaff: c.IsStaff}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}
