package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and LIFTLOG_* env when empty)")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	if err := storage.RunMigrations(cfg.Database.Driver, cfg.Database.MigrationURL()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "driver", cfg.Database.Driver)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	resolver, err := history.NewResolver(db, cfg.History.SuggestCacheSize, log)
	if err != nil {
		log.Error("failed to create resolver", "error", err)
		os.Exit(1)
	}

	// Rest timer and session engine
	alerters := resttimer.MultiAlerter{resttimer.LogAlerter{Log: log}}
	if cfg.RestTimer.Bell {
		alerters = append(alerters, &resttimer.BellAlerter{
			W:       os.Stdout,
			Pattern: resttimer.PulsePattern(cfg.RestTimer.VibrationPulses),
		})
	}
	timer := resttimer.New(clock.Real{}, db, alerters, resttimer.LogNotifier{Log: log}, cfg.RestTimer.DefaultSeconds, log)
	defer timer.Close()
	if err := timer.LoadDefault(ctx); err != nil {
		log.Warn("using configured rest default", "seconds", cfg.RestTimer.DefaultSeconds, "error", err)
	}

	engine := session.NewEngine(db, resolver, timer, clock.Real{}, log)
	defer engine.Close()

	opts := server.Options{
		DB:      db,
		Engine:  engine,
		Timer:   timer,
		History: resolver,
		Alpha:   alpha.NewProvider(db, resolver, time.Local, log),
		APIKey:  cfg.Auth.APIKey,
	}

	// Listen on the tailnet or on a plain TCP address
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		opts.WhoIs = lc

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	srv := server.New(opts, log)

	// MCP over streamable HTTP, behind the same API key as /api.
	var mcpHandler http.Handler = mcpserver.NewStreamableHTTPServer(mcp.New(mcp.Local{DB: db, Resolver: resolver}, Version, log))
	if cfg.Auth.APIKey != "" {
		mcpHandler = server.APIKeyAuth(cfg.Auth.APIKey)(mcpHandler)
	}
	srv.Mount("/mcp", mcpHandler)

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	// Close the engine first so event streams end and Shutdown does not wait on them.
	engine.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
