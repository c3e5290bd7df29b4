package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/internal/server"
	"github.com/ogulcanaydogan/expense-tracker/pkg/budget"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reporting API and run scheduled budget checks",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
	serveCmd.Flags().Bool("no-budget-checks", false, "Disable scheduled budget checks")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	apiServer := server.NewServer(a.reporter, a.store, a.budgets, logger, server.Options{
		DefaultOwner:   cfg.Defaults.Owner,
		RequestTimeout: cfg.Server.RequestTimeout,
		Location:       a.loc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var watcher *budget.Watcher
	if disabled, _ := cmd.Flags().GetBool("no-budget-checks"); !disabled && cfg.Budgets.CheckSchedule != "" {
		watcher, err = budget.NewWatcher(a.budgets, cfg.Budgets.CheckSchedule, cfg.Budgets.CheckTimeout, logger)
		if err != nil {
			return err
		}
		watcher.Start()
		logger.Info("budget checks scheduled", "schedule", cfg.Budgets.CheckSchedule)
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "listen", cfg.Server.Listen, "timezone", a.loc.String())
		fmt.Fprintf(os.Stderr, "Expense Tracker API listening on %s\n", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if watcher != nil {
			watcher.Stop(ctx)
		}
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
