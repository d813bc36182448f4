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
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/internal/rest"
	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/ratelimit"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.config
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			dealer, err := app.Dealer()
			if err != nil {
				return err
			}

			checker := health.NewChecker(0)
			checker.Register("rng", health.RandomSource(app.rng))

			var limiter *ratelimit.Limiter
			if cfg.RateLimit.Enabled {
				limiter = ratelimit.New(&ratelimit.Config{
					Enabled:           true,
					RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
					Burst:             cfg.RateLimit.Burst,
				})
				defer limiter.Stop()
			}

			server, err := rest.NewServer(&rest.Config{
				Host:    cfg.Server.Host,
				Port:    cfg.Server.Port,
				Dealer:  dealer,
				Limiter: limiter,
				Health:  checker,
				Logger:  app.logger,
				Metrics: metrics.IsEnabled(),
				Version: Version,

				TLSCertFile: cfg.Server.TLSCert,
				TLSKeyFile:  cfg.Server.TLSKey,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metrics.IsEnabled() {
				collector := metrics.NewResourceCollector(ctx, 15*time.Second)
				go collector.Start()
				defer collector.Stop()
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			app.logger.Info("shutdown requested", logger.String("addr", server.Addr()))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
