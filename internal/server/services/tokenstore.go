package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/repomanager"
)

// TokenStore is the server-side registry of issued refresh tokens. Every
// method takes the DBTX to run on so callers can enlist it in a transaction.
type TokenStore struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTokenStore(m repomanager.RepositoryManager) *TokenStore {
	return &TokenStore{repomanager: m, now: time.Now}
}

// Put persists a newly issued token. Device info is cut to 255 characters.
func (s *TokenStore) Put(ctx context.Context, db dbx.DBTX, rec *models.RefreshToken) (*models.RefreshToken, error) {
	rec.DeviceInfo = truncate(rec.DeviceInfo, common.MaxDeviceInfoLength)
	out, err := s.repomanager.RefreshTokens(db).Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return out, nil
}

// FindActive returns the live record for token. Unknown and revoked tokens
// give common.ErrInvalidToken. An expired record is revoked on the spot and
// common.ErrTokenExpired is returned.
func (s *TokenStore) FindActive(ctx context.Context, db dbx.DBTX, token string) (*models.RefreshToken, error) {
	repo := s.repomanager.RefreshTokens(db)

	rec, err := repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if rec.IsRevoked {
		return nil, common.ErrInvalidToken
	}
	if rec.Expired(s.now()) {
		if err := repo.Revoke(ctx, rec.ID); err != nil {
			return nil, fmt.Errorf("error revoking expired token: %w", err)
		}
		return nil, common.ErrTokenExpired
	}
	return rec, nil
}

// Revoke marks rec revoked. Revoking an already revoked record is a no-op.
func (s *TokenStore) Revoke(ctx context.Context, db dbx.DBTX, rec *models.RefreshToken) error {
	if rec.IsRevoked {
		return nil
	}
	if err := s.repomanager.RefreshTokens(db).Revoke(ctx, rec.ID); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	rec.IsRevoked = true
	return nil
}

func (s *TokenStore) RevokeAllForUser(ctx context.Context, db dbx.DBTX, userID string) (int64, error) {
	n, err := s.repomanager.RefreshTokens(db).RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return n, nil
}

// ListActiveForUser returns the user's usable tokens, newest first.
func (s *TokenStore) ListActiveForUser(ctx context.Context, db dbx.DBTX, userID string) ([]models.RefreshToken, error) {
	list, err := s.repomanager.RefreshTokens(db).ListActiveForUser(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("error listing refresh tokens: %w", err)
	}
	return list, nil
}

// Rotate replaces rec's token string in place. If another refresh already
// swapped or revoked it, common.ErrInvalidToken is returned.
func (s *TokenStore) Rotate(ctx context.Context, db dbx.DBTX, rec *models.RefreshToken, newToken string, newExpiry time.Time) error {
	err := s.repomanager.RefreshTokens(db).Rotate(ctx, rec.ID, rec.Token, newToken, newExpiry)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error rotating refresh token: %w", err)
	}
	rec.Token = newToken
	rec.ExpiresAt = newExpiry
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
