package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/errors"
	"github.com/agentdeck/agentdeck/pkg/gateway"
	"github.com/agentdeck/agentdeck/pkg/resources"
	"github.com/agentdeck/agentdeck/pkg/schema"
	"github.com/agentdeck/agentdeck/pkg/server"
	"github.com/agentdeck/agentdeck/pkg/session"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		user       string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a dashboard session",
		Long: `Allocate a session and serve its dashboard.

Loads agentdeck.json from the current directory (or any parent), or
from an explicit --config path. Without a configuration file, serve
runs a built-in demo dashboard.

Examples:
  agentdeck serve
  agentdeck serve --user alice
  agentdeck serve --config ./deploy/agentdeck.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, user, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to agentdeck.json")
	cmd.Flags().StringVarP(&user, "user", "u", "demo", "User to allocate the session for")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(configPath, user string, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sch, err := loadSchema(cfg)
	if err != nil {
		return err
	}

	resolver := resources.NewResolver(resources.Config{
		Styles:        resources.NewDirSource(cfg.StylesPath()),
		Scripts:       resources.NewDirSource(cfg.ScriptsPath()),
		BaseStyle:     cfg.Resources.BaseStyle,
		BundleScripts: cfg.Resources.Bundle,
		Logger:        log,
	})

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	maxTTL, err := cfg.MaxSessionTTL()
	if err != nil {
		return err
	}
	if maxTTL == 0 {
		maxTTL = 24 * time.Hour
	}
	heartbeat, err := cfg.HeartbeatInterval()
	if err != nil {
		return err
	}

	allocator := session.NewMemoryAllocator(cfg.Host, cfg.BasePort, maxTTL)
	sess := allocator.Allocate(user, ttl, time.Now())
	defer allocator.Release(sess.Token())

	store := newDemoStore()

	srv, err := server.New(server.Config{
		Session:       sess,
		Schema:        sch,
		Resolver:      resolver,
		DataSource:    store.Data,
		OnUpdate:      store.Update,
		Extender:      allocator,
		Host:          cfg.Host,
		ProxyMode:     cfg.Gateway.Enabled,
		HostResolver:  allocator,
		EnableMetrics: cfg.Observability.Metrics,
		EnableTracing: cfg.Observability.Tracing,
		Gateway: gateway.Config{
			BaseURL:           cfg.Gateway.URL,
			ServerName:        cfg.Name,
			HeartbeatInterval: heartbeat,
			Logger:            log,
		},
		Logger: log,
	})
	if err != nil {
		return errors.FromError(err, "E403")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return serveError(err)
	}

	printBanner()
	success("Session %s started for %s", sess.ID()[:8], user)
	info("Dashboard:  http://%s/?token=%s", srv.Addr(), sess.Token())
	info("Expires:    %s", sess.ExpiresAt().Format(time.RFC1123))
	if cfg.Gateway.Enabled {
		info("Gateway:    %s", cfg.Gateway.URL)
	}
	fmt.Println()

	<-ctx.Done()
	fmt.Println()
	info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		warn("Shutdown incomplete: %v", err)
		return nil
	}
	success("Session closed")
	return nil
}

// loadConfig finds and loads agentdeck.json. A missing file is not an
// error: serve falls back to defaults and the built-in demo dashboard.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		warn("No %s found, using built-in demo configuration", config.ConfigFileName)
		return config.New(), nil
	}
	return config.Load(root)
}

func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	path := cfg.SchemaPath()
	if path == "" {
		return demoSchema(), nil
	}
	s, err := schema.LoadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("E201").WithDetail(path)
		}
		return nil, errors.New("E202").Wrap(err)
	}
	return s, nil
}

func serveError(err error) error {
	switch {
	case stderrors.Is(err, server.ErrPortInUse):
		return errors.New("E401").Wrap(err)
	case stderrors.Is(err, server.ErrPortPermission):
		return errors.New("E402").Wrap(err)
	default:
		return errors.FromError(err, "E403")
	}
}
