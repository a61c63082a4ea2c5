package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"finbot/internal/config"
	"finbot/internal/db"
	httpx "finbot/internal/http"
	"finbot/internal/ledger"
	"finbot/internal/reminder"
	"finbot/internal/report"
	"finbot/internal/telegram"
)

func main() {
	cfg, _ := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	transport, err := telegram.New(cfg.TelegramToken, log.With().Str("component", "telegram").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram transport")
	}

	store := &reminder.Store{DB: gdb}
	ledgerSvc := &ledger.Service{DB: gdb}
	reminderSvc := &reminder.Service{Store: store}

	worker := &reminder.Worker{
		Store:    store,
		Ledger:   ledgerSvc,
		Settings: ledgerSvc,
		Content:  &report.Builder{},
		Send:     transport,
		Backoff:  cfg.WorkerBackoff,
		Lease:    cfg.WorkerLease,
		Log:      log.With().Str("component", "reminder-worker").Logger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start reminder worker")
	}

	r := httpx.NewRouter(cfg, reminderSvc, ledgerSvc)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	worker.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
