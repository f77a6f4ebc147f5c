package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/events"
	"overdrive/sim/internal/input"
	"overdrive/sim/internal/journal"
	"overdrive/sim/internal/logging"
	"overdrive/sim/internal/world"
)

func main() {
	if err := run(); err != nil {
		logging.L().Fatal("service failed", logging.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	tuning := config.DefaultTuning()
	if cfg.TuningPath != "" {
		tuning, err = config.LoadTuning(cfg.TuningPath)
		if err != nil {
			return err
		}
	}
	if err := tuning.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream := events.NewStream(events.Config{})
	w := world.New(cfg.Seed, cfg.Mode, tuning, log, stream)
	intents := input.NewStore()

	//1.- The journal is optional; an empty directory disables both sinks.
	var recorder *journal.Writer
	var simMs atomic.Int64
	if cfg.JournalDir != "" {
		var manifest journal.Manifest
		recorder, manifest, err = journal.NewWriter(cfg.JournalDir, cfg.Seed, string(cfg.Mode), cfg.TickRate, nil)
		if err != nil {
			return err
		}
		defer func() { _ = recorder.Close() }()
		log.Info("journal opened",
			logging.String("dir", recorder.Directory()),
			logging.String("created_at", manifest.CreatedAt))
		go journalEvents(ctx, stream, recorder, &simMs, log)
	}

	srv := newServer(cfg, log, intents)
	httpServer := &http.Server{Addr: cfg.Address, Handler: srv.routes()}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", logging.String("addr", cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	//2.- The tick loop owns the world; everything else talks to it through the
	// intent store and published snapshots.
	ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRate))
	defer ticker.Stop()
	dt := 1.0 / float64(cfg.TickRate)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serveErr:
			return err
		case <-ticker.C:
			controls := intents.Latest(playerControllerID)
			w.Step(controls, dt)

			snap := w.Snapshot()
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Error("snapshot marshal failed", logging.Error(err))
				continue
			}
			srv.broadcast(payload)

			ms := int64(snap.Elapsed * 1000)
			simMs.Store(ms)
			if recorder != nil {
				if err := recorder.AppendFrame(snap.Tick, ms, payload); err != nil {
					log.Error("frame journal write failed", logging.Error(err))
				}
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", logging.Error(err))
	}
	return nil
}

// journalEvents drains the reliable stream into the event journal, acking
// each record once it is durably appended.
func journalEvents(ctx context.Context, stream *events.Stream, recorder *journal.Writer, simMs *atomic.Int64, log *logging.Logger) {
	sub, err := stream.Subscribe(ctx, "journal", 256)
	if err != nil {
		log.Error("journal subscription failed", logging.Error(err))
		return
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := recorder.AppendEvent(simMs.Load(), env); err != nil {
				log.Error("event journal write failed", logging.Error(err))
				continue
			}
			if err := sub.Ack(env.Sequence); err != nil {
				log.Warn("journal ack rejected", logging.Error(err))
			}
		}
	}
}
