package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	id := IdentityFromClaims(&Claims{UserID: "u1", Email: "a@b.c", Username: "a"})
	ctx := WithIdentity(context.Background(), id)

	got, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), Identity{}))
	assert.False(t, ok, "empty identity is not authenticated")
}
