package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

// Repository stores refresh-token records. Rows are revoked, never deleted.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	FindByID(ctx context.Context, id string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error)
	// Rotate swaps oldToken for newToken on row id if it is still live.
	// It returns common.ErrorNotFound when no row matched.
	Rotate(ctx context.Context, id, oldToken, newToken string, newExpiry time.Time) error
}
