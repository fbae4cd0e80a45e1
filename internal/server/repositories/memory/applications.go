package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

type appRepo struct {
	s *Store
}

func (r *appRepo) Create(_ context.Context, app *models.Application) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[app.UserID]; !ok {
		return nil, common.ErrorNotFound
	}

	app.ID = uuid.NewString()
	app.CreatedAt = r.s.stamp(app.ID)
	app.UpdatedAt = app.CreatedAt
	r.s.apps[app.ID] = *app

	out := *app
	return &out, nil
}

func (r *appRepo) Get(_ context.Context, userID, id string) (*models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.apps[id]
	if !ok || a.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

// GetForUpdate needs no lock of its own: RunInTx already serializes.
func (r *appRepo) GetForUpdate(ctx context.Context, userID, id string) (*models.Application, error) {
	return r.Get(ctx, userID, id)
}

func (r *appRepo) List(_ context.Context, userID string, status models.Status) ([]models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Application, 0)
	for _, a := range r.s.apps {
		if a.UserID != userID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b models.Application) int {
		if r.s.newer(a.ID, a.CreatedAt, b.ID, b.CreatedAt) {
			return -1
		}
		return 1
	})
	return out, nil
}

func (r *appRepo) Update(_ context.Context, app *models.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.apps[app.ID]
	if !ok || cur.UserID != app.UserID {
		return common.ErrorNotFound
	}

	app.CreatedAt = cur.CreatedAt
	app.UpdatedAt = r.s.now()
	r.s.apps[app.ID] = *app
	return nil
}

func (r *appRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.apps[id]
	if !ok || a.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.apps, id)
	delete(r.s.order, id)
	return nil
}
