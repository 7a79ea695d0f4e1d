package main

import (
	"context"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/EnguerranCA/HabitHisson/internal/config"
	"github.com/EnguerranCA/HabitHisson/internal/serverapp"
)

func main() {
	cfg, err := config.Load("habithisson.yml")
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "habithisson",
	})
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}

	app, err := serverapp.New(context.Background(), serverapp.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("build server", "err", err)
	}
	defer app.Close()

	logger.Info("listening", "addr", cfg.Server.Addr, "db", cfg.Storage.Path)
	if err := http.ListenAndServe(cfg.Server.Addr, app.Handler()); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
