package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"moltspeak/internal/config"
	"moltspeak/internal/directory"
	"moltspeak/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		cfgPath string
		addr    string
		rps     float64
		burst   int
	)
	cmd := &cobra.Command{
		Use:          "moltdir",
		Short:        "In-memory agent directory for development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Directory.Addr = addr
			}

			opts := logging.DefaultOptions(logging.ProfileRuntime)
			if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok && os.Getenv(logging.EnvLogLevel) == "" {
				opts.Level = lvl
			}
			opts.JSON = opts.JSON || cfg.Log.JSON
			logger := logging.New(opts)

			dir := directory.NewServer(
				directory.WithServerLogger(logger),
				directory.WithRateLimit(rate.Limit(rps), burst),
			)
			srv := &http.Server{
				Addr:         cfg.Directory.Addr,
				Handler:      dir.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("starting moltspeak directory")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					logger.Error().Err(err).Msg("server failed")
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down directory...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("directory forced to shutdown")
				return err
			}
			logger.Info().Msg("directory stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file (.toml or .yaml)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().Float64Var(&rps, "rate", 10, "requests per second allowed per client")
	cmd.Flags().IntVar(&burst, "burst", 20, "request burst allowed per client")
	return cmd
}
