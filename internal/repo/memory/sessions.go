package memory

import (
	"context"
	"sync"
	"time"

	"github.com/klaape/klaape-api/internal/domain/session"
)

type SessionsRepo struct {
	mu    sync.RWMutex
	items map[string]session.Session
	now   func() time.Time
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		items: make(map[string]session.Session),
		now:   time.Now,
	}
}

func (r *SessionsRepo) Create(_ context.Context, s session.Session) error {
	r.mu.Lock()
	r.items[s.ID] = s
	r.mu.Unlock()
	return nil
}

func (r *SessionsRepo) Get(_ context.Context, id string) (session.Session, error) {
	r.mu.RLock()
	s, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	if r.now().After(s.ExpiresAt) {
		r.mu.Lock()
		delete(r.items, id)
		r.mu.Unlock()
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (r *SessionsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
	return nil
}

func (r *SessionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
