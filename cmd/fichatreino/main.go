package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/meltforce/fichatreino/internal/catalog"
	"github.com/meltforce/fichatreino/internal/config"
	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/mcp"
	"github.com/meltforce/fichatreino/internal/server"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	log.Info("fichatreino starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to load catalog", "path", cfg.Catalog.Path, "error", err)
			os.Exit(1)
		}
		log.Info("catalog loaded", "path", cfg.Catalog.Path, "groups", len(cat.Groups()))
	}

	// Open the AI call journal
	jr, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		log.Error("failed to open journal", "path", cfg.Journal.Path, "error", err)
		os.Exit(1)
	}
	defer jr.Close()
	log.Info("journal opened", "path", cfg.Journal.Path)

	ai, err := genai.NewGemini(context.Background(), genai.Config{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		TextModel:  cfg.AI.TextModel,
		ImageModel: cfg.AI.ImageModel,
		Timeout:    cfg.AI.Timeout(),
	}, log)
	if err != nil {
		log.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}

	baseCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	ws := workspace.New(baseCtx, ai, workspace.Options{
		Catalog:     cat,
		Roster:      cfg.Students,
		Journal:     jr,
		Logger:      log.With("component", "workspace"),
		SettleDelay: cfg.AI.SettleDelay(),
		CallTimeout: cfg.AI.Timeout(),
	})

	// Create server
	srv := server.New(ws, jr, log)
	mcpSrv := mcp.New(mcp.NewLocal(ws, jr), Version, log.With("component", "mcp"))
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
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
		srv.SetTailscale(lc)

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

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	// In-flight AI calls are abandoned; their results would go nowhere.
	cancelJobs()
	ws.Wait()
	log.Info("server stopped")
}
