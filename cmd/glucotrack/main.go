package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "glucotrack/internal/adapter/http"
	"glucotrack/internal/app"
	"glucotrack/internal/config"
	"glucotrack/internal/logger"
	"glucotrack/internal/metrics"
	"glucotrack/internal/worker"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/oauth2"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetupDefault(w, cfg.LogFormat, cfg.LogLevel)

	switch cmd {
	case CommandHealthcheck:
		return runHealthcheck(healthcheckURL(cfg.Addr))
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

func runServe(cfg *config.Config) error {
	slog.Info("starting glucotrack",
		slog.String("addr", cfg.Addr),
		slog.String("storage", cfg.Storage),
	)

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			slog.Error("close storage", slog.String("error", err.Error()))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	authSvc := app.NewAuthService(store.repos, store.sessions, cfg.SessionTTL)
	weightSvc := app.NewWeightService(store.repos)
	glucoseSvc := app.NewGlucoseService(store.repos)
	services := adapthttp.Services{
		Auth:    authSvc,
		Profile: app.NewProfileService(store.repos, weightSvc),
		Weight:  weightSvc,
		Glucose: glucoseSvc,
		Charts:  app.NewChartsService(weightSvc, glucoseSvc),
	}

	sweeper, err := worker.NewSessionSweeper(authSvc, collector, slog.Default(), cfg.SessionSweepSchedule)
	if err != nil {
		return err
	}
	sweeper.Start()

	srv := adapthttp.New(services, adapthttp.Options{
		WebDir:            cfg.WebDir,
		CookieSecure:      cfg.CookieSecure,
		TrustRemoteUser:   cfg.TrustRemoteUser,
		AuthRatePerMinute: cfg.AuthRatePerMinute,
		OIDC:              setupOIDC(cfg),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		Logger:            slog.Default(),
		HealthCheck:       store.ping,
	})
	defer srv.Close()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		sweeper.Stop(context.Background())
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeper.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("stopped gracefully")
	return nil
}

// setupOIDC discovers the identity provider. SSO stays disabled when it is
// not configured or discovery fails.
func setupOIDC(cfg *config.Config) adapthttp.OIDCConfig {
	if !cfg.SSOEnabled() {
		return adapthttp.OIDCConfig{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		slog.Error("oidc discovery failed; sso disabled",
			slog.String("issuer", cfg.OIDCIssuer),
			slog.String("error", err.Error()),
		)
		return adapthttp.OIDCConfig{}
	}

	slog.Info("sso enabled", slog.String("issuer", cfg.OIDCIssuer))
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}
}

func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
