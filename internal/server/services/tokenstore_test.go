package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/memory"
)

func newTokenStoreWithUser(t *testing.T) (*TokenStore, *memory.Store, string) {
	t.Helper()
	store := memory.New()
	u, err := store.Users(store).Create(context.Background(), &models.User{
		Email: "ann@example.com", Username: "ann", PasswordHash: "x", IsActive: true,
	})
	require.NoError(t, err)
	return NewTokenStore(store), store, u.ID
}

func TestTokenStore_PutAndFindActive(t *testing.T) {
	ts, store, userID := newTokenStoreWithUser(t)
	ctx := context.Background()

	rec, err := ts.Put(ctx, store, &models.RefreshToken{
		UserID:     userID,
		Token:      "tok-1",
		ExpiresAt:  time.Now().Add(time.Hour),
		DeviceInfo: strings.Repeat("é", 300),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 255, len([]rune(rec.DeviceInfo)))

	got, err := ts.FindActive(ctx, store, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = ts.FindActive(ctx, store, "unknown")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenStore_FindActive_RevokedAndExpired(t *testing.T) {
	ts, store, userID := newTokenStoreWithUser(t)
	ctx := context.Background()

	revoked, err := ts.Put(ctx, store, &models.RefreshToken{UserID: userID, Token: "revoked", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, ts.Revoke(ctx, store, revoked))
	require.NoError(t, ts.Revoke(ctx, store, revoked))

	_, err = ts.FindActive(ctx, store, "revoked")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = ts.Put(ctx, store, &models.RefreshToken{UserID: userID, Token: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	_, err = ts.FindActive(ctx, store, "old")
	assert.Equal(t, common.ErrTokenExpired, err)

	rec, err := store.RefreshTokens(store).FindByToken(ctx, "old")
	require.NoError(t, err)
	assert.True(t, rec.IsRevoked, "expired token is revoked when seen")

	_, err = ts.FindActive(ctx, store, "old")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenStore_ListAndRevokeAll(t *testing.T) {
	ts, store, userID := newTokenStoreWithUser(t)
	ctx := context.Background()

	for _, tok := range []string{"a", "b", "c"} {
		_, err := ts.Put(ctx, store, &models.RefreshToken{UserID: userID, Token: tok, ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
	}
	_, err := ts.Put(ctx, store, &models.RefreshToken{UserID: userID, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)

	list, err := ts.ListActiveForUser(ctx, store, userID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Token)
	assert.Equal(t, "a", list[2].Token)

	n, err := ts.RevokeAllForUser(ctx, store, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	list, err = ts.ListActiveForUser(ctx, store, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTokenStore_Rotate(t *testing.T) {
	ts, store, userID := newTokenStoreWithUser(t)
	ctx := context.Background()

	rec, err := ts.Put(ctx, store, &models.RefreshToken{UserID: userID, Token: "v1", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	stale := *rec

	exp := time.Now().Add(2 * time.Hour)
	require.NoError(t, ts.Rotate(ctx, store, rec, "v2", exp))
	assert.Equal(t, "v2", rec.Token)

	_, err = ts.FindActive(ctx, store, "v1")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	got, err := ts.FindActive(ctx, store, "v2")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	// a concurrent refresh holding the old value loses
	err = ts.Rotate(ctx, store, &stale, "v3", exp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
