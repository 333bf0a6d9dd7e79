// Command edudashd runs the EduDash engine: the local document store, the
// progress engine and the REST API the dashboard frontend talks to.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edudash-hub/edudash-engine/config"
	"github.com/edudash-hub/edudash-engine/internal/application/command"
	"github.com/edudash-hub/edudash-engine/internal/application/query"
	"github.com/edudash-hub/edudash-engine/internal/application/session"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/external/aigateway"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/messaging"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/secrets"
	httpapi "github.com/edudash-hub/edudash-engine/internal/interface/http"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "edudashd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Level: logger.ParseLevel(cfg.Log.Level)})
	log.Info("starting edudash engine",
		logger.String("storage_medium", cfg.Storage.Medium),
		logger.String("storage_path", cfg.Storage.Path),
		logger.String("http_addr", cfg.HTTP.Addr))

	var medium docstore.Medium
	switch cfg.Storage.Medium {
	case config.MediumSQLite:
		sqlMedium, err := docstore.OpenSQLiteMedium(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open sqlite medium: %w", err)
		}
		defer sqlMedium.Close()
		medium = sqlMedium
	default:
		medium = docstore.NewFileMedium(cfg.Storage.Path)
	}

	store, err := docstore.Open(medium, docstore.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	box, err := secrets.Open(cfg.Storage.KeyFile)
	if err != nil {
		return fmt.Errorf("open sealing key: %w", err)
	}

	bus := messaging.NewBus(log)
	bus.Subscribe(shared.EventBadgeUnlocked, func(ev shared.Event) {
		p := ev.Payload()
		log.Info("badge unlocked",
			logger.UserID(ev.AggregateID()),
			logger.BadgeID(fmt.Sprint(p["badge_id"])),
			logger.String("name", fmt.Sprint(p["name"])))
	})
	bus.Subscribe(shared.EventLevelUp, func(ev shared.Event) {
		p := ev.Payload()
		log.Info("level up",
			logger.UserID(ev.AggregateID()),
			logger.Any("new_level", p["new_level"]))
	})

	gateway := aigateway.New(aigateway.Config{
		Settings:   store.Settings,
		Unseal:     box.Unseal,
		Logger:     log,
		Cooldown:   cfg.AI.Cooldown.Duration,
		HTTPClient: &http.Client{Timeout: cfg.AI.RequestTimeout.Duration},
	})

	server := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.HTTP.Addr,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, httpapi.Deps{
		Store:            store,
		Bus:              bus,
		Register:         command.NewRegisterUserHandler(store, bus, command.WithLogger(log)),
		RecordCompletion: command.NewRecordCompletionHandler(store, bus, command.WithLogger(log)),
		Resolve:          query.NewResolveUserHandler(store, bus, query.WithLogger(log)),
		Overview:         query.NewStudentOverviewHandler(store),
		Session:          session.New(),
		Gateway:          gateway,
		Secrets:          box,
		Log:              log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.WatchFile && cfg.Storage.Medium == config.MediumFile {
		watcher, err := docstore.NewReloadWatcher(cfg.Storage.Path, cfg.Storage.WatchDebounce.Duration, func() {
			changed, err := store.Reload()
			if err != nil {
				log.Warn("document reload failed", logger.Err(err))
				return
			}
			if changed {
				bus.Publish(shared.DocumentReloadedEvent{
					BaseEvent: shared.NewBaseEvent(shared.EventDocumentReloaded, docstore.StorageKey, time.Now()),
					Path:      cfg.Storage.Path,
				})
			}
		}, log)
		if err != nil {
			log.Warn("file watching disabled", logger.Err(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("edudash engine stopped")
	return nil
}
