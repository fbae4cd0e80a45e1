package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

type tokenRepo struct {
	s *Store
}

func (r *tokenRepo) Create(_ context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tokens {
		if t.Token == token.Token {
			return nil, common.ErrorAlreadyExists
		}
	}

	token.ID = uuid.NewString()
	token.CreatedAt = r.s.stamp(token.ID)
	r.s.tokens[token.ID] = *token

	out := *token
	return &out, nil
}

func (r *tokenRepo) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *tokenRepo) FindByID(_ context.Context, id string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *tokenRepo) Revoke(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[id]; ok {
		t.IsRevoked = true
		r.s.tokens[id] = t
	}
	return nil
}

func (r *tokenRepo) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.tokens {
		if t.UserID == userID && !t.IsRevoked {
			t.IsRevoked = true
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) ListActiveForUser(_ context.Context, userID string, now time.Time) ([]models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.RefreshToken
	for _, t := range r.s.tokens {
		if t.UserID == userID && t.Usable(now) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.RefreshToken) int {
		if r.s.newer(a.ID, a.CreatedAt, b.ID, b.CreatedAt) {
			return -1
		}
		return 1
	})
	return out, nil
}

func (r *tokenRepo) Rotate(_ context.Context, id, oldToken, newToken string, newExpiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[id]
	if !ok || t.Token != oldToken || t.IsRevoked {
		return common.ErrorNotFound
	}
	t.Token = newToken
	t.ExpiresAt = newExpiry
	r.s.tokens[id] = t
	return nil
}
