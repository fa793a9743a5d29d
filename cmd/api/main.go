package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stable-sharing/internal/adapters/auth/jwtauth"
	"stable-sharing/internal/adapters/auth/odin"
	"stable-sharing/internal/adapters/capabilities/plansfeatures"
	"stable-sharing/internal/adapters/notify/lognotify"
	"stable-sharing/internal/adapters/notify/redispub"
	mem "stable-sharing/internal/adapters/storage/memory"
	pg "stable-sharing/internal/adapters/storage/postgres"
	"stable-sharing/internal/domain/consents"
	"stable-sharing/internal/platform/config"
	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/platform/tasks"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/notify"
	"stable-sharing/internal/ports/tenants"
	"stable-sharing/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	plans, err := plansfeatures.NewClient(plansfeatures.Config{
		BaseURL: cfg.PlansBaseURL,
		APIKey:  cfg.PlansAPIKey,
	})
	if err != nil {
		return err
	}
	caps := plansfeatures.NewResolver(plans, cfg.AllowAll)

	presets, err := consents.LoadPresets(cfg.PresetsFile)
	if err != nil {
		return err
	}

	var db *sql.DB
	var dir tenants.Directory = mem.NewTenantDirectory(cfg.TenantKinds)
	if cfg.DBDSN != "" {
		if cfg.MigrateOnStart {
			version, err := pg.Migrate(cfg.DBDSN)
			if err != nil {
				return err
			}
			log.Info("migrations applied", map[string]any{"version": version})
		}

		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		tenantsRepo := pg.NewTenantsRepo(db)
		for id, kind := range cfg.TenantKinds {
			if err := tenantsRepo.Upsert(ctx, id, tenants.Kind(kind)); err != nil {
				return fmt.Errorf("seed tenant %s: %w", id, err)
			}
		}
		dir = tenantsRepo
	}

	var notifier notify.Notifier = lognotify.New(log)
	if cfg.RedisAddr != "" {
		pub, err := redispub.New(ctx, redispub.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			return err
		}
		defer pub.Close()
		notifier = pub
	}

	queue := tasks.NewQueue(log, tasks.Options{
		Workers: cfg.TaskWorkers,
		Buffer:  cfg.TaskBuffer,
		Timeout: cfg.TaskTimeout,
	})
	// LIFO: corre después del Shutdown del server y antes de cerrar el publisher
	// que usan las tareas. También en los returns por error.
	defer queue.Close()

	r := router.NewRouter(router.Options{
		AuthVerifier:   verifier,
		DB:             db,
		Log:            log,
		Capabilities:   caps,
		Tenants:        dir,
		Notifier:       notifier,
		Tasks:          queue,
		Presets:        presets,
		ResolveTimeout: cfg.ResolveTimeout,
		PublicBaseURL:  cfg.PublicBaseURL,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":      cfg.Addr(),
			"auth_mode": string(cfg.AuthMode),
			"postgres":  db != nil,
			"redis":     cfg.RedisAddr != "",
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", map[string]any{"error": err})
	}
	return nil
}

func newVerifier(cfg config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), nil
	case config.AuthModeOdin:
		c, err := odin.NewClient(odin.Config{BaseURL: cfg.OdinBaseURL, APIKey: cfg.OdinAPIKey})
		if err != nil {
			return nil, err
		}
		v := odin.NewVerifier(c)
		if cfg.OdinCacheTTL > 0 {
			v.WithCache(cfg.OdinCacheTTL)
		}
		return v, nil
	default:
		// modo dev: headers X-Debug-*
		return nil, nil
	}
}
