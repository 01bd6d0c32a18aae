package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messmate/config"
	"messmate/jobs"
	"messmate/logger"
	"messmate/middleware"
	"messmate/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 15 * time.Second
	limiterIdle     = 30 * time.Minute
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *envFile)
		},
	}
}

func serve(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	reconcileCtx, cancelReconcile := context.WithTimeout(ctx, 2*time.Minute)
	if _, err := a.services.Reviews.ReconcileRatings(reconcileCtx); err != nil {
		log.WithError(err).Warn("startup rating reconciliation failed")
	}
	cancelReconcile()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	uploadDir := ""
	if cfg.StorageBackend == "local" {
		uploadDir = cfg.UploadDir
	}
	engine := routes.NewEngine(routes.Options{
		Services:       a.services,
		Files:          a.files,
		Limiter:        limiter,
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		DevMode:        cfg.IsDevelopment(),
		Log:            log,
	})

	scheduler := jobs.NewScheduler(log)
	for _, job := range []jobs.Job{
		{
			Name: "reconcile-ratings",
			Spec: cfg.JobRatingReconcile,
			Run: func(ctx context.Context) error {
				_, err := a.services.Reviews.ReconcileRatings(ctx)
				return err
			},
		},
		{
			Name: "purge-tokens",
			Spec: cfg.JobTokenPurge,
			Run: func(ctx context.Context) error {
				_, err := a.services.Auth.PurgeExpiredTokens(ctx)
				return err
			},
		},
		{
			Name:    "limiter-cleanup",
			Spec:    cfg.JobLimiterCleanup,
			Timeout: time.Minute,
			Run: func(context.Context) error {
				limiter.Cleanup(limiterIdle)
				return nil
			},
		},
	} {
		if err := scheduler.Add(job); err != nil {
			return err
		}
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
