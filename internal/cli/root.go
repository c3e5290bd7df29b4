package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/internal/config"
	"github.com/ogulcanaydogan/expense-tracker/pkg/alerts"
	"github.com/ogulcanaydogan/expense-tracker/pkg/budget"
	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/report"
	"github.com/ogulcanaydogan/expense-tracker/pkg/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile string
	owner   string
)

var rootCmd = &cobra.Command{
	Use:   "expt",
	Short: "Expense Tracker - personal expense recording and reporting",
	Long: `Expense Tracker records expenses and turns them into daily, weekly,
monthly and custom-range reports. It also enforces spending budgets with
alerts, exports to CSV or Excel, and serves reports over an HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.expt/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "owner id (default from config)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// ownerID returns the --owner flag or the configured default owner.
func ownerID(cfg *config.Config) string {
	if owner != "" {
		return owner
	}
	return cfg.Defaults.Owner
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemory(), nil
	case "sqlite", "":
		return storage.NewSQLite(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// app bundles the wired components a command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	loc      *time.Location
	store    storage.Storage
	reporter *report.Reporter
	budgets  *budget.Manager
}

// initApp loads config and wires storage, reporting and budgets.
func initApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	loc, err := cfg.Reports.Location()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return nil, err
	}

	reporter := report.NewReporter(store, loc, logger)
	budgets := budget.NewManager(store, reporter, initNotifiers(cfg), logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		loc:      loc,
		store:    store,
		reporter: reporter,
		budgets:  budgets,
	}, nil
}

func (a *app) owner() string {
	return ownerID(a.cfg)
}

// now returns the current time in the report timezone.
func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

// parseTimeFlag reads a date or date-time flag in the report timezone,
// falling back to def when the flag is empty.
func (a *app) parseTimeFlag(cmd *cobra.Command, name string, def time.Time) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return def, nil
	}
	t, err := model.ParseTime(v, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
