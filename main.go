package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nconklindev/censo/internal/config"
	"github.com/nconklindev/censo/internal/converter"
	"github.com/nconklindev/censo/internal/pkg/logger"
	"github.com/nconklindev/censo/internal/schema"
	"github.com/nconklindev/censo/internal/server"
	"github.com/nconklindev/censo/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	args := os.Args[1:]

	// Handle --version flag
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Printf("censo %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	var configPath string
	if len(args) > 1 && args[0] == "--config" {
		configPath = args[1]
		args = args[2:]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	registry := schema.Default()
	if cfg.FormatsFile != "" {
		registry, err = schema.LoadFile(cfg.FormatsFile)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	export := converter.ExportOptions{Sheet: cfg.SheetName, Highlight: cfg.Highlight()}

	if len(args) > 0 && args[0] == "serve" {
		if err := serve(cfg, registry, export); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	// The alt screen owns stdout, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.SetOutput(logFile)

	model := ui.InitialModel(ui.Options{
		Registry:     registry,
		OutputSuffix: cfg.OutputSuffix,
		Export:       export,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config, registry *schema.Registry, export converter.ExportOptions) error {
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(registry, export, cfg.Server.MaxUploadBytes()).Routes(),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "formats", len(registry.Formats()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
