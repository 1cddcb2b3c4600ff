// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/danielhkuo/election-survey/cliparse"
	"github.com/danielhkuo/election-survey/cooldown"
	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/gate"
	"github.com/danielhkuo/election-survey/identity"
	"github.com/danielhkuo/election-survey/middleware"
	"github.com/danielhkuo/election-survey/models"
	"github.com/danielhkuo/election-survey/router"
	"github.com/danielhkuo/election-survey/telemetry"
)

func main() {
	var err error

	// A missing .env is fine; real deployments use the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "election-survey", cfg.OTelEndpoint)
	if err != nil {
		slog.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}

	store := db.NewStore(dbConn, cfg.DatabaseType)
	if err := store.SeedElectionSurvey(ctx); err != nil {
		slog.Error("seeding election survey failed", "error", err)
		os.Exit(1)
	}
	votes, err := store.CountResponses(ctx, models.ElectionSurveyID)
	if err != nil {
		slog.Error("counting votes failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType, "election_votes", humanize.Comma(int64(votes)))

	// The ledger lives in memory; a restart forgets every cooldown
	ledger := cooldown.NewLedger(cooldown.WithMaxEntries(cfg.LedgerMaxEntries))
	go ledger.Run(ctx, cfg.SweepInterval)

	g := gate.New(store, ledger, identity.NewResolver(cfg.IPSalt))

	// Create router
	mux := router.NewRouter(store, g, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		server.Shutdown(sctx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "cooldown", cooldown.Window.String(), "sweep", cfg.SweepInterval.String())
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
