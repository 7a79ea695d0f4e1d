package serverapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/EnguerranCA/HabitHisson/internal/auth"
	"github.com/EnguerranCA/HabitHisson/internal/dates"
	"github.com/EnguerranCA/HabitHisson/internal/engine"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/httpmw"
	"github.com/EnguerranCA/HabitHisson/internal/user"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func currentUserID(r *http.Request) string {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return ""
	}
	return u.ID
}

func isHabitValidationErr(err error) bool {
	return errors.Is(err, habit.ErrInvalidName) ||
		errors.Is(err, habit.ErrInvalidEmoji) ||
		errors.Is(err, habit.ErrInvalidKind) ||
		errors.Is(err, habit.ErrInvalidCadence)
}

func (a *App) writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, habit.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, engine.ErrUnauthenticated):
		writeErr(w, http.StatusUnauthorized, "authentication required")
	case isHabitValidationErr(err):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		var pe *engine.PersistError
		if errors.As(err, &pe) {
			a.logger.Error("persist failure",
				"op", pe.Op,
				"after_log_write", pe.AfterLogWrite,
				"request_id", httpmw.RequestIDFromContext(r.Context()),
				"err", pe.Err)
		} else {
			a.logger.Error("request failed",
				"path", r.URL.Path,
				"request_id", httpmw.RequestIDFromContext(r.Context()),
				"err", err)
		}
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *App) registerAPIRoutes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, a.auth.RequireAPI(h))
	}

	handle("GET /api/habits", a.handleListHabits)
	handle("POST /api/habits", a.handleCreateHabit)
	handle("PATCH /api/habits/{id}", a.handleUpdateHabit)
	handle("DELETE /api/habits/{id}", a.handleDeleteHabit)
	handle("POST /api/habits/{id}/toggle", a.handleToggleHabit)
	handle("POST /api/habits/{id}/catchup", a.handleCatchUpHabit)

	handle("GET /api/catchup", a.handleCatchUpStatus)

	handle("GET /api/calendar", a.handleCalendarMonth)
	handle("GET /api/calendar/day", a.handleCalendarDay)

	handle("GET /api/stats", a.handleStats)
	handle("GET /api/stats/export", a.handleStatsExport)

	handle("GET /api/streaks/{habitID}", a.handleStreaks)

	handle("GET /api/leaderboard", a.handleLeaderboard)

	handle("GET /api/profile", a.handleGetProfile)
	handle("PATCH /api/profile", a.handleUpdateProfile)
	handle("GET /api/me/xp", a.handleMyXP)

	if a.debugClock != nil {
		handle("GET /api/debug/clock", a.handleDebugClockState)
		handle("POST /api/debug/clock", a.handleDebugClockShift)
	}
}

func (a *App) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := a.engine.ListHabitsWithState(r.Context(), currentUserID(r))
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

func (a *App) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Emoji   string `json:"emoji"`
		Kind    string `json:"kind"`
		Cadence string `json:"cadence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	h, err := a.habits.Create(r.Context(), habit.Habit{
		UserID:  currentUserID(r),
		Name:    body.Name,
		Emoji:   body.Emoji,
		Kind:    habit.Kind(strings.ToUpper(strings.TrimSpace(body.Kind))),
		Cadence: habit.Cadence(strings.ToUpper(strings.TrimSpace(body.Cadence))),
	})
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

// ownedHabit resolves a habit ID against the current user. Habits
// belonging to someone else read as not found.
func (a *App) ownedHabit(r *http.Request) (habit.Habit, error) {
	h, err := a.habits.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return habit.Habit{}, err
	}
	if h.UserID != currentUserID(r) {
		return habit.Habit{}, habit.ErrNotFound
	}
	return h, nil
}

func (a *App) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	h, err := a.ownedHabit(r)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}

	var p habit.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	// Active is managed through the delete route.
	p.Active = nil

	updated, err := a.habits.Update(r.Context(), h.ID, p)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *App) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	h, err := a.ownedHabit(r)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}

	// Soft delete keeps logs and XP history intact.
	inactive := false
	if _, err := a.habits.Update(r.Context(), h.ID, habit.Patch{Active: &inactive}); err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	day := a.engine.Today()

	var body struct {
		Day string `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if body.Day != "" {
		parsed, err := dates.Parse(body.Day)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	res, err := a.engine.Toggle(r.Context(), currentUserID(r), r.PathValue("id"), day)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"completed": res.Completed,
		"xpDelta":   res.XPDelta,
		"xp":        res.XP,
		"level":     res.Level,
	})
}

func (a *App) handleCatchUpStatus(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	prompt, err := a.engine.ShouldPromptCatchUp(r.Context(), userID)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}

	missed := []engine.MissedHabit{}
	if prompt {
		missed, err = a.engine.MissedHabits(r.Context(), userID)
		if err != nil {
			a.writeDomainErr(w, r, err)
			return
		}
		if len(missed) == 0 {
			prompt = false
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prompt": prompt,
		"missed": missed,
	})
}

func (a *App) handleCatchUpHabit(w http.ResponseWriter, r *http.Request) {
	res, err := a.engine.CatchUp(r.Context(), currentUserID(r), r.PathValue("id"))
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"completed": res.Completed,
		"xpDelta":   res.XPDelta,
		"xp":        res.XP,
		"level":     res.Level,
	})
}

func (a *App) handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	today := a.engine.Today().Time()
	year := queryInt(r, "year", today.Year())
	month := queryInt(r, "month", int(today.Month()))
	if month < 1 || month > 12 {
		writeErr(w, http.StatusBadRequest, "month must be 1-12")
		return
	}

	logs, err := a.stats.LogsForMonth(r.Context(), currentUserID(r), year, month)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"logs":  logs,
	})
}

func (a *App) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := dates.Parse(r.URL.Query().Get("date"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	details, err := a.stats.DayDetails(r.Context(), currentUserID(r), day)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	weeks := queryInt(r, "weeks", 0)
	p, err := a.stats.Productivity(r.Context(), currentUserID(r), weeks)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) handleStatsExport(w http.ResponseWriter, r *http.Request) {
	csv, err := a.stats.ExportCSV(r.Context(), currentUserID(r))
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="habithisson-stats.csv"`)
	_, _ = io.WriteString(w, csv)
}

func (a *App) handleStreaks(w http.ResponseWriter, r *http.Request) {
	window := queryInt(r, "window", 30)
	s, err := a.engine.Streaks(r.Context(), currentUserID(r), r.PathValue("habitID"), window)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *App) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := a.leaderboard.Standings(r.Context(), currentUserID(r))
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (a *App) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := a.profile.Get(r.Context(), currentUserID(r))
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch user.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		writeErr(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	p, err := a.profile.Update(r.Context(), currentUserID(r), patch)
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) handleMyXP(w http.ResponseWriter, r *http.Request) {
	s, err := a.profile.XP(r.Context(), currentUserID(r))
	if err != nil {
		a.writeDomainErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *App) handleDebugClockState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"offsetDays": a.debugClock.OffsetDays(),
		"today":      a.engine.Today(),
	})
}

func (a *App) handleDebugClockShift(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AddDays int  `json:"addDays"`
		Reset   bool `json:"reset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if body.Reset {
		a.debugClock.Reset()
	} else {
		a.debugClock.AddDays(body.AddDays)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"offsetDays": a.debugClock.OffsetDays(),
		"today":      a.engine.Today(),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
