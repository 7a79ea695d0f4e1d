package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionRepo interface {
	Create(ctx context.Context, s Session) error
	GetByTokenHash(ctx context.Context, hash string) (Session, bool, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByTokenHash(ctx context.Context, hash string) error
	Touch(ctx context.Context, id string, t time.Time) error
}

type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // by ID
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: map[string]Session{}}
}

func (r *MemorySessionRepo) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *MemorySessionRepo) GetByTokenHash(_ context.Context, hash string) (Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.TokenHash == hash {
			return s, true, nil
		}
	}
	return Session{}, false, nil
}

func (r *MemorySessionRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepo) DeleteByTokenHash(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.TokenHash == hash {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *MemorySessionRepo) Touch(_ context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	s.LastSeen = t
	r.sessions[id] = s
	return nil
}
