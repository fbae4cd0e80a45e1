// Package applications persists job applications. Every read and write is
// scoped by owner, so a foreign id behaves exactly like a missing one.
package applications

import (
	"context"

	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	Get(ctx context.Context, userID, id string) (*models.Application, error)
	// GetForUpdate is Get with a row lock; call it inside a transaction.
	GetForUpdate(ctx context.Context, userID, id string) (*models.Application, error)
	// List returns the user's applications newest first. An empty status
	// means no filter.
	List(ctx context.Context, userID string, status models.Status) ([]models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, userID, id string) error
}
