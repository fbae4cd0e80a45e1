// Package memory is an in-process RepositoryManager backed by maps. It is
// selected with storage "memory" for throwaway runs and drives the service
// and HTTP tests. Data does not survive a restart.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/applications"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/users"
)

// ErrNotSQL is returned by the DBTX methods; memory repositories never
// issue SQL.
var ErrNotSQL = errors.New("memory store does not execute SQL")

// Store holds all tables and implements both repomanager.RepositoryManager
// and dbx.DB. RunInTx serializes transactions and restores a snapshot when
// fn fails. Writes made outside a transaction while one is rolling back are
// lost with it.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users  map[string]models.User
	tokens map[string]models.RefreshToken
	apps   map[string]models.Application
	order  map[string]int64
	seq    int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:  make(map[string]models.User),
		tokens: make(map[string]models.RefreshToken),
		apps:   make(map[string]models.Application),
		order:  make(map[string]int64),
		now:    time.Now,
	}
}

// SetClock overrides the time source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository                 { return &userRepo{s: s} }
func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &tokenRepo{s: s} }
func (s *Store) Applications(dbx.DBTX) applications.Repository   { return &appRepo{s: s} }

func (s *Store) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrNotSQL
}

func (s *Store) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, ErrNotSQL
}

// QueryRowContext is unsupported and returns nil.
func (s *Store) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

// RunInTx runs fn with the store as its handle. On error or panic every
// table is restored to its state before fn.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(ctx, s)
}

type snapshot struct {
	users  map[string]models.User
	tokens map[string]models.RefreshToken
	apps   map[string]models.Application
	order  map[string]int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:  maps.Clone(s.users),
		tokens: maps.Clone(s.tokens),
		apps:   maps.Clone(s.apps),
		order:  maps.Clone(s.order),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tokens, s.apps, s.order = snap.users, snap.tokens, snap.apps, snap.order
}

// stamp records insertion order for id and returns the current time.
// Callers hold s.mu.
func (s *Store) stamp(id string) time.Time {
	s.seq++
	s.order[id] = s.seq
	return s.now()
}

// newer orders by creation time, then insertion order, newest first.
func (s *Store) newer(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return s.order[aID] > s.order[bID]
}
