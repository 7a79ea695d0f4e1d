package user

import (
	"time"

	"github.com/EnguerranCA/HabitHisson/internal/dates"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	XP           int       `json:"xp"`
	Level        int       `json:"level"`
	Public       bool      `json:"public"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Progress holds per-user bookkeeping for the catch-up prompt. The
// BestStreak field is a derived cache; readers recompute from logs and
// never trust it as authoritative.
type Progress struct {
	UserID        string       `json:"userId"`
	LastLoginDate dates.DayKey `json:"lastLoginDate"`
	BestStreak    int          `json:"bestStreak"`
}
