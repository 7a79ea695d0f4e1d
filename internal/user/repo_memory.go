package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	users    map[string]User
	progress map[string]Progress
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    map[string]User{},
		progress: map[string]Progress{},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MemoryRepo) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}

	u.ID = uuid.NewString()
	if u.Level < 1 {
		u.Level = 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) Update(_ context.Context, id string, p Patch) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Public != nil {
		u.Public = *p.Public
	}
	r.users[id] = u
	return u, nil
}

func (r *MemoryRepo) SetXP(_ context.Context, id string, xp, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.XP = xp
	u.Level = level
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) GetProgress(_ context.Context, userID string) (Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[userID]; !ok {
		return Progress{}, ErrNotFound
	}
	p, ok := r.progress[userID]
	if !ok {
		return Progress{UserID: userID}, nil
	}
	return p, nil
}

func (r *MemoryRepo) SetLastLogin(_ context.Context, userID string, day dates.DayKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	p := r.progress[userID]
	p.UserID = userID
	p.LastLoginDate = day
	r.progress[userID] = p
	return nil
}

func (r *MemoryRepo) SetBestStreak(_ context.Context, userID string, streak int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	p := r.progress[userID]
	p.UserID = userID
	p.BestStreak = streak
	r.progress[userID] = p
	return nil
}
