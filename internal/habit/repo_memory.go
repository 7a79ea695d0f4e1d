package habit

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
	mu     sync.RWMutex
	habits map[string]Habit
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{habits: map[string]Habit{}}
}

func (r *MemoryRepo) Create(_ context.Context, h Habit) (Habit, error) {
	if err := h.Validate(); err != nil {
		return Habit{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h.ID = uuid.NewString()
	h.Name = strings.TrimSpace(h.Name)
	h.Active = true
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	r.habits[h.ID] = h
	return h, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.habits[id]
	if !ok {
		return Habit{}, ErrNotFound
	}
	return h, nil
}

func (r *MemoryRepo) Update(_ context.Context, id string, p Patch) (Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.habits[id]
	if !ok {
		return Habit{}, ErrNotFound
	}
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Emoji != nil {
		h.Emoji = *p.Emoji
	}
	if p.Active != nil {
		h.Active = *p.Active
	}
	if err := h.Validate(); err != nil {
		return Habit{}, err
	}
	r.habits[id] = h
	return h, nil
}

func (r *MemoryRepo) List(_ context.Context, filter ListFilter) ([]Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Habit, 0, len(r.habits))
	for _, h := range r.habits {
		if filter.UserID != "" && h.UserID != filter.UserID {
			continue
		}
		if filter.ActiveOnly && !h.Active {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type MemoryLogRepo struct {
	mu   sync.RWMutex
	logs map[string]Log // keyed habitID + "|" + day
}

func NewMemoryLogRepo() *MemoryLogRepo {
	return &MemoryLogRepo{logs: map[string]Log{}}
}

func logKey(habitID string, day dates.DayKey) string {
	return habitID + "|" + string(day)
}

func (r *MemoryLogRepo) Get(_ context.Context, habitID string, day dates.DayKey) (Log, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.logs[logKey(habitID, day)]
	return l, ok, nil
}

func (r *MemoryLogRepo) Upsert(_ context.Context, l Log) (Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := logKey(l.HabitID, l.Day)
	if existing, ok := r.logs[key]; ok {
		existing.Completed = l.Completed
		r.logs[key] = existing
		return existing, nil
	}
	l.ID = uuid.NewString()
	r.logs[key] = l
	return l, nil
}

func (r *MemoryLogRepo) ListByHabit(_ context.Context, habitID string, from, to dates.DayKey) ([]Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Log
	for _, l := range r.logs {
		if l.HabitID != habitID {
			continue
		}
		if l.Day < from || l.Day > to {
			continue
		}
		out = append(out, l)
	}
	sortByDay(out)
	return out, nil
}

func (r *MemoryLogRepo) ListCompletedByHabit(_ context.Context, habitID string) ([]Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Log
	for _, l := range r.logs {
		if l.HabitID == habitID && l.Completed {
			out = append(out, l)
		}
	}
	sortByDay(out)
	return out, nil
}

func (r *MemoryLogRepo) ListByUser(_ context.Context, userID string, from, to dates.DayKey) ([]Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Log
	for _, l := range r.logs {
		if l.UserID != userID {
			continue
		}
		if l.Day < from || l.Day > to {
			continue
		}
		out = append(out, l)
	}
	sortByDay(out)
	return out, nil
}

func sortByDay(logs []Log) {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].Day != logs[j].Day {
			return logs[i].Day < logs[j].Day
		}
		return logs[i].HabitID < logs[j].HabitID
	})
}
