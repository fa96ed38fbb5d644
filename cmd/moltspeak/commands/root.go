package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"moltspeak/internal/app"
	"moltspeak/internal/config"
	"moltspeak/internal/logging"
)

var (
	home       string
	cfgPath    string
	passphrase string
	dirURL     string
	logLevel   string
	insecure   bool

	appCtx *app.App
)

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	defer func() {
		if appCtx != nil {
			appCtx.Close()
		}
	}()
	return NewRoot().ExecuteContext(ctx)
}

// NewRoot builds the command tree.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "moltspeak",
		Short:         "Signed, classified agent-to-agent messages",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if dirURL != "" {
				cfg.Directory.URL = dirURL
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("insecure-test-crypto") {
				cfg.Crypto.InsecureTestCrypto = insecure
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			logger := newLogger(cmd, cfg)
			w, err := app.NewWire(app.Config{Settings: cfg, Logger: &logger})
			if err != nil {
				return err
			}
			appCtx = app.New(w, passphrase)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				appCtx.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.moltspeak)")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (.toml or .yaml)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity keys")
	root.PersistentFlags().StringVar(&dirURL, "directory", "", "directory base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	root.PersistentFlags().BoolVar(&insecure, "insecure-test-crypto", false, "use the NON-CRYPTOGRAPHIC test provider; never in production")

	root.AddCommand(
		keygenCmd(),
		fingerprintCmd(),
		buildCmd(),
		signCmd(),
		sealCmd(),
		verifyCmd(),
		handshakeCmd(),
		inspectCmd(),
		scanCmd(),
		peerCmd(),
		registerCmd(),
		searchCmd(),
		heartbeatCmd(),
		deregisterCmd(),
	)
	return root
}

func newLogger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	opts := logging.DefaultOptions(logging.ProfileRuntime)
	opts.Out = cmd.ErrOrStderr()
	// MOLTSPEAK_LOG_LEVEL wins over the config file.
	if os.Getenv(logging.EnvLogLevel) == "" {
		if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
			opts.Level = lvl
		}
	}
	opts.JSON = opts.JSON || cfg.Log.JSON
	return logging.New(opts)
}
