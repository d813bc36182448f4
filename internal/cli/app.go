// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-shamir/internal/config"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/rand"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/shareset"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

// App carries per-invocation state shared by subcommands.
type App struct {
	flags  *Flags
	viper  *viper.Viper
	config *config.Config
	logger logger.Logger

	rng     rand.Resolver
	backend storage.Backend
}

func (a *App) init(cmd *cobra.Command) error {
	cfg, err := config.LoadWith(a.viper, a.flags.ConfigFile)
	if err != nil {
		return err
	}
	if a.flags.Verbose {
		cfg.Logging.Level = "debug"
	}
	switch a.flags.OutputFormat {
	case string(OutputFormatText), string(OutputFormatJSON):
	default:
		return fmt.Errorf("unknown output format: %s", a.flags.OutputFormat)
	}

	a.config = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	if cfg.Metrics.Enabled || a.flags.Metrics {
		metrics.Enable()
	} else {
		metrics.Disable()
	}
	return nil
}

// Printer returns a printer for the command's stdout.
func (a *App) Printer(cmd *cobra.Command) *Printer {
	return NewPrinter(a.flags.OutputFormat, cmd.OutOrStdout())
}

// Dealer builds a dealer from the configured random source.
func (a *App) Dealer() (*shamir.Dealer, error) {
	if a.rng == nil {
		rng, err := rand.NewResolver(a.config.RandConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open random source: %w", err)
		}
		a.rng = rng
	}
	return shamir.NewDealer(
		shamir.WithRand(a.rng),
		shamir.WithLogger(a.logger),
		shamir.WithWorkers(a.config.Split.Workers),
		shamir.WithMetrics(metrics.IsEnabled()),
	), nil
}

// Store opens the share set store.
func (a *App) Store() (*shareset.Store, error) {
	if a.backend == nil {
		backend, err := a.config.NewStorage()
		if err != nil {
			return nil, fmt.Errorf("failed to open share set store: %w", err)
		}
		a.backend = backend
	}
	return shareset.New(a.backend, shareset.WithLogger(a.logger)), nil
}

// Close releases the random source and store.
func (a *App) Close() error {
	var errs []error
	if a.rng != nil {
		errs = append(errs, a.rng.Close())
		a.rng = nil
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
		a.backend = nil
	}
	return errors.Join(errs...)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shamir.ErrInvalidArgument),
		errors.Is(err, shamir.ErrInvalidShare),
		errors.Is(err, shamir.ErrDuplicateInput):
		return 2
	case errors.Is(err, shamir.ErrPrimeMismatch),
		errors.Is(err, shamir.ErrLengthMismatch):
		return 3
	case errors.Is(err, shareset.ErrNotFound):
		return 4
	default:
		return 1
	}
}
