package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/tabswipe/internal/api"
	"github.com/dgnsrekt/tabswipe/internal/browser"
	"github.com/dgnsrekt/tabswipe/internal/cdp"
	"github.com/dgnsrekt/tabswipe/internal/cdpcontrol"
	"github.com/dgnsrekt/tabswipe/internal/config"
	"github.com/dgnsrekt/tabswipe/internal/controller"
	"github.com/dgnsrekt/tabswipe/internal/counters"
	"github.com/dgnsrekt/tabswipe/internal/netutil"
	"github.com/dgnsrekt/tabswipe/internal/notify"
	"github.com/dgnsrekt/tabswipe/internal/relay"
)

// browserConn is a connected CDP driver.
type browserConn interface {
	cdp.Browser
	Connect(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		slog.Error("failed to load rules", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}

	slog.Info("tabswipe config loaded",
		"cdp_url", cfg.CDPURL(),
		"cdp_driver", cfg.CDPDriver,
		"bind_addr", cfg.BindAddr,
		"command_timeout_ms", cfg.CommandTimeoutMS,
		"counters_backend", cfg.CountersBackend,
		"counters_dir", cfg.CountersDir,
		"ignore_url_prefixes", rules.IgnoreURLPrefixes,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			ProfileDir: cfg.ProfileDir,
		})
		if err := launcher.Launch(ctx); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	var conn browserConn
	opts := cdp.TabsOptions{IgnorePrefixes: rules.IgnoreURLPrefixes}
	switch cfg.CDPDriver {
	case config.DriverChromedp:
		conn = cdp.NewClient(cfg.CDPURL(), cfg.CommandTimeout())
	default:
		conn = cdpcontrol.NewClient(cfg.CDPURL(), cfg.CommandTimeout())
		opts.MRUOrdered = true
	}
	if err := conn.Connect(ctx); err != nil {
		slog.Error("failed to connect to browser", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("CDP client close failed", "error", err)
		}
	}()

	store, err := counters.Open(cfg.CountersBackend, cfg.CountersDir)
	if err != nil {
		slog.Error("failed to open counters store", "dir", cfg.CountersDir, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Debug("counters store close failed", "error", err)
		}
	}()

	broker := relay.NewBroker()
	svc := controller.NewService(cdp.NewTabs(conn, opts), store, broker)
	if _, err := svc.Start(ctx); err != nil {
		slog.Error("failed to start review session", "error", err)
		os.Exit(1)
	}

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to bind", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	h := api.NewServer(svc, api.Options{
		Events:             broker,
		Levels:             logLevels{},
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		addr := ln.Addr().String()
		slog.Info("tabswipe listening", "addr", addr, "docs", "http://"+addr+"/docs")
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("tabswipe server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("tabswipe shutdown failed", "error", err)
	}

	sum := svc.Summary()
	slog.Info("session summary", "closed", sum.Closed, "kept", sum.Kept, "lifetime_closed", sum.LifetimeClosed, "unprocessed", sum.Unprocessed)
	if cfg.NotifyEndpoint != "" {
		err := notify.SendSummary(shutdownCtx, nil, cfg.NotifyEndpoint, notify.SessionSummary{
			Closed:         sum.Closed,
			Kept:           sum.Kept,
			LifetimeClosed: sum.LifetimeClosed,
			Unprocessed:    sum.Unprocessed,
		})
		if err != nil {
			slog.Warn("session summary notification failed", "error", err)
		}
	}
}
