package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/geo-authority/internal/bootstrap"
	"github.com/bryanwahyu/geo-authority/internal/config"
	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("geo-authority", cfg.Log.Env, cfg.Log.Level)
	log := observability.GetLogger()

	ctx := context.Background()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring failed")
	}
	defer app.Close()

	app.Evaluation.Observer = func(s evaluation.Session) {
		log.Debug().
			Str("project_id", string(s.ProjectID)).
			Str("status", string(s.Status)).
			Int("progress", s.Progress).
			Msg("session updated")
	}

	// background runs stop when base is cancelled
	base, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()
	router := app.Router(base)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Info().
			Str("addr", addr).
			Str("default_provider", cfg.Evaluation.DefaultProvider).
			Strs("providers", app.Assistants.Names()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	cancelRuns()
	router.Wait()
	router.Close()
}
