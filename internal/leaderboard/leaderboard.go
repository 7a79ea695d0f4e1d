// Package leaderboard ranks all users by XP.
package leaderboard

import (
	"context"

	"github.com/EnguerranCA/HabitHisson/internal/user"
)

const topSize = 10

type Entry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

type Standings struct {
	TopPlayers       []Entry `json:"topPlayers"`
	CurrentUserRank  int     `json:"currentUserRank"`
	CurrentUserEntry *Entry  `json:"currentUserEntry,omitempty"`
	TotalPlayers     int     `json:"totalPlayers"`
}

type Service struct {
	Users user.Repo
}

func New(users user.Repo) *Service {
	return &Service{Users: users}
}

// Standings returns the top players plus the calling user's own rank,
// even when outside the top.
func (s *Service) Standings(ctx context.Context, currentUserID string) (Standings, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return Standings{}, err
	}

	out := Standings{TotalPlayers: len(users)}
	for i, u := range users {
		e := Entry{
			Rank:          i + 1,
			UserID:        u.ID,
			Name:          u.Name,
			Level:         u.Level,
			XP:            u.XP,
			IsCurrentUser: u.ID == currentUserID,
		}
		if i < topSize {
			out.TopPlayers = append(out.TopPlayers, e)
		}
		if e.IsCurrentUser {
			entry := e
			out.CurrentUserRank = e.Rank
			out.CurrentUserEntry = &entry
		}
	}
	return out, nil
}
