package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/users"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	if err := r.conflict(user, ""); err != nil {
		return nil, err
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.s.stamp(user.ID)
	r.s.users[user.ID] = *user

	out := *user
	return &out, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *userRepo) ExistsEmail(_ context.Context, email, excludeID string) (bool, error) {
	_, err := r.find(func(u models.User) bool { return u.ID != excludeID && strings.EqualFold(u.Email, email) })
	return err == nil, nil
}

func (r *userRepo) ExistsUsername(_ context.Context, username, excludeID string) (bool, error) {
	_, err := r.find(func(u models.User) bool { return u.ID != excludeID && strings.EqualFold(u.Username, username) })
	return err == nil, nil
}

func (r *userRepo) UpdateLogin(_ context.Context, id string, at time.Time, ip string) error {
	return r.update(id, func(u *models.User) {
		u.LastLoginAt = &at
		u.LastLoginIP = ip
	})
}

func (r *userRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *userRepo) UpdateProfile(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	user.Email = strings.ToLower(user.Email)
	if err := r.conflict(user, user.ID); err != nil {
		return err
	}

	cur.Email = user.Email
	cur.Username = user.Username
	cur.FirstName = user.FirstName
	cur.LastName = user.LastName
	r.s.users[user.ID] = cur
	return nil
}

func (r *userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) update(id string, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

// conflict mirrors the lower(email) and lower(username) unique indexes.
// Callers hold the write lock.
func (r *userRepo) conflict(user *models.User, excludeID string) error {
	for _, u := range r.s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.EqualFold(u.Email, user.Email) {
			return users.ErrEmailTaken
		}
		if strings.EqualFold(u.Username, user.Username) {
			return users.ErrUsernameTaken
		}
	}
	return nil
}
