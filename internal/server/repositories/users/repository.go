package users

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

// Unique-key conflicts reported by Create and UpdateProfile.
var (
	ErrEmailTaken    = fmt.Errorf("%w: email", common.ErrorAlreadyExists)
	ErrUsernameTaken = fmt.Errorf("%w: username", common.ErrorAlreadyExists)
)

// Repository persists users. Email and username lookups are
// case-insensitive. Missing rows yield common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ExistsEmail and ExistsUsername ignore the row with excludeID ("" for none).
	ExistsEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsUsername(ctx context.Context, username, excludeID string) (bool, error)
	UpdateLogin(ctx context.Context, id string, at time.Time, ip string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
}
