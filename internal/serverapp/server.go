// Package serverapp assembles the HTTP application: storage, services
// and routes behind the shared middleware chain.
package serverapp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/EnguerranCA/HabitHisson/internal/auth"
	"github.com/EnguerranCA/HabitHisson/internal/clock"
	"github.com/EnguerranCA/HabitHisson/internal/config"
	"github.com/EnguerranCA/HabitHisson/internal/engine"
	"github.com/EnguerranCA/HabitHisson/internal/habit"
	"github.com/EnguerranCA/HabitHisson/internal/httpmw"
	"github.com/EnguerranCA/HabitHisson/internal/leaderboard"
	"github.com/EnguerranCA/HabitHisson/internal/profile"
	"github.com/EnguerranCA/HabitHisson/internal/stats"
	"github.com/EnguerranCA/HabitHisson/internal/storage"
	"github.com/EnguerranCA/HabitHisson/internal/user"
	"github.com/EnguerranCA/HabitHisson/internal/xp"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger

	// Store overrides the database opened from Config.Storage.Path.
	// Tests pass an :memory: store here.
	Store *storage.Store
	// Clock overrides the default clock. When nil, the app uses the real
	// clock, wrapped in an offset clock if the debug clock is enabled.
	Clock clock.Clock
}

// App holds the wired application. It makes explicit what the handlers
// depend on.
type App struct {
	cfg    *config.Config
	logger *log.Logger
	store  *storage.Store

	habits habit.Repo
	logs   habit.LogRepo
	users  user.Repo

	clock      clock.Clock
	debugClock *clock.OffsetClock

	auth        *auth.Service
	engine      *engine.Engine
	stats       *stats.Service
	leaderboard *leaderboard.Service
	profile     *profile.Service
}

func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = storage.Open(ctx, opts.Config.Storage.Path)
		if err != nil {
			return nil, err
		}
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	var debugClock *clock.OffsetClock
	if opts.Config.Debug.Clock {
		debugClock = clock.NewOffsetClock(clk)
		clk = debugClock
		opts.Logger.Warn("debug clock enabled; server time is adjustable over the API")
	}

	rewards := xp.Rewards{
		Daily:  opts.Config.Rewards.Daily,
		Weekly: opts.Config.Rewards.Weekly,
	}

	a := &App{
		cfg:        opts.Config,
		logger:     opts.Logger,
		store:      store,
		habits:     store.Habits,
		logs:       store.Logs,
		users:      store.Users,
		clock:      clk,
		debugClock: debugClock,
	}

	a.auth = auth.NewService(store.Users, store.Sessions, opts.Logger, auth.Options{
		SessionTTL: time.Duration(opts.Config.Auth.SessionTTLHours) * time.Hour,
		BcryptCost: opts.Config.Auth.BcryptCost,
	})
	a.engine = engine.New(a.habits, a.logs, a.users, rewards, clk, opts.Logger)
	a.stats = stats.New(a.habits, a.logs, a.users, rewards, clk)
	a.leaderboard = leaderboard.New(a.users)
	a.profile = profile.New(a.users, a.habits, a.logs, clk, opts.Logger)

	return a, nil
}

// Handler builds the full route table wrapped in the middleware chain.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "habithisson",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "database unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "habithisson",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	authHandler := auth.NewHandler(a.auth)
	mux.HandleFunc("POST /api/auth/signup", authHandler.SignUp)
	mux.HandleFunc("POST /api/auth/signin", authHandler.SignIn)
	mux.HandleFunc("GET /api/auth/session", authHandler.Session)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	a.registerAPIRoutes(mux)

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(a.logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(a.logger),
	)
}

func (a *App) Close() error {
	return a.store.Close()
}
