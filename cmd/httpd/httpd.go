// Package httpd implements the HTTP server command for the product search
// service.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/shopsearch/cmd/common"
	"github.com/jonesrussell/shopsearch/internal/api"
)

const (
	errorChannelBufferSize = 1
	defaultShutdownTimeout = 30 * time.Second
)

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP API server",
		Long:  `Start the HTTP API server exposing search, streaming search, and resolve endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Start(cmd.Flag("config").Value.String(), cmd.Flag("debug").Value.String() == "true")
		},
	}
}

// Start starts the HTTP server and runs until interrupted. It handles
// graceful shutdown on SIGINT or SIGTERM.
func Start(cfgFile string, debug bool) error {
	deps, err := common.NewCommandDeps(cfgFile, debug)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	pipeline, err := common.BuildPipeline(deps)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	if err := pipeline.Cache.Start(); err != nil {
		return fmt.Errorf("failed to start cache sweeper: %w", err)
	}
	defer pipeline.Cache.Stop()

	router := api.SetupRouter(deps.Logger.WithComponent("api"), pipeline.Engine, pipeline.Resolver, pipeline.Registry)
	server := api.NewHTTPServer(deps.Config, router)

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		deps.Logger.Info("HTTP server listening", "address", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return runUntilInterrupt(deps, server, errChan)
}

// runUntilInterrupt blocks until the server fails or the process receives a
// termination signal, then shuts down gracefully.
func runUntilInterrupt(deps common.CommandDeps, server *http.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		deps.Logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	deps.Logger.Info("server stopped")
	return nil
}
