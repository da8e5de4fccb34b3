// Package cli holds the start-up steps shared by the homebudget subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"homebudget/internal/config"
	"homebudget/internal/ledger"
	"homebudget/internal/log"
	"homebudget/internal/seed"
	"homebudget/internal/services"
)

// LoadEnvFile loads .env (or the given files) for local development.
// Missing files are not an error.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig reads the environment and reports every problem at once.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, out io.Writer, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	if err != nil {
		logger.Warn("Falling back to info level", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// NewLedgerService seeds a ledger from cfg.SeedFile (or the embedded sample)
// and wraps it in a service publishing through pub, which may be nil.
func NewLedgerService(cfg *config.Config, pub services.Publisher, logger *log.Logger) (*services.LedgerService, error) {
	var opts []ledger.Option
	if cfg.LinkedSpending {
		opts = append(opts, ledger.WithLinkedSpending())
	}
	l := ledger.New(opts...)

	doc, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	if err := doc.Apply(l, l.Now()); err != nil {
		return nil, fmt.Errorf("apply seed: %w", err)
	}

	// Seed settings override the defaults; BUDGET_ALERTS=false always wins.
	prefs := services.DefaultPreferences()
	if v := doc.Settings.Notifications; v != nil {
		prefs.Notifications = *v
	}
	if v := doc.Settings.BudgetAlerts; v != nil {
		prefs.BudgetAlerts = *v
	}
	if !cfg.BudgetAlerts {
		prefs.BudgetAlerts = false
	}

	logger.Info("Ledger ready",
		"transactions", len(l.ListTransactions()),
		"budgets", len(l.ListBudgets()),
		"linked_spending", cfg.LinkedSpending,
		"seed", seedName(cfg.SeedFile))
	return services.NewLedgerService(l, pub, logger, prefs), nil
}

func seedName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownContext gives cleanup a bounded amount of time once ctx is done.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
