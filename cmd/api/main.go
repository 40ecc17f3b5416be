package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/graos-sa/salescore/internal/cohort"
	"github.com/graos-sa/salescore/internal/config"
	"github.com/graos-sa/salescore/internal/forecast"
	salesHttp "github.com/graos-sa/salescore/internal/http"
	analyticsHandler "github.com/graos-sa/salescore/internal/http/analytics"
	ledgerHandler "github.com/graos-sa/salescore/internal/http/ledgerops"
	"github.com/graos-sa/salescore/internal/ledger"
	"github.com/graos-sa/salescore/internal/ledger/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	wholesaleStore := store.New(cfg.Ledger.Dir, cfg.Ledger.WholesalePrefix)
	retailStore := store.New(cfg.Ledger.Dir, cfg.Ledger.RetailPrefix)
	wholesaleStore.SkipBackup = cfg.Ledger.SkipBackup
	retailStore.SkipBackup = cfg.Ledger.SkipBackup

	var (
		ledgerService  = ledger.NewService(wholesaleStore, retailStore)
		cohortEngine   = cohort.NewEngine(cohort.DefaultThresholds())
		forecastEngine = forecast.NewEngine()
	)

	var (
		ledgersH   = ledgerHandler.NewHandler(ledgerService)
		analyticsH = analyticsHandler.NewHandler(ledgerService, cohortEngine, forecastEngine, analyticsHandler.Defaults{
			GoalCents:   cfg.Analytics.GoalCents,
			WorkingDays: cfg.Analytics.WorkingDays,
		})
	)

	router := salesHttp.New(ledgersH, analyticsH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
