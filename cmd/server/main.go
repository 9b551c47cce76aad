package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"smpserver/internal/app"
	"smpserver/internal/platform/config"
	"smpserver/internal/platform/logger"
	"smpserver/internal/platform/postgres"
)

var version = "dev"

type rootOptions struct {
	configFile string
	addr       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "smpserver",
		Short:         "Business card directory for registered participants",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindRootFlags(root.PersistentFlags(), opts)

	root.AddCommand(newServeCmd(opts), newMigrateCmd(opts))
	return root
}

func bindRootFlags(flags *pflag.FlagSet, opts *rootOptions) {
	flags.StringVarP(&opts.configFile, "config", "c", "", "path to a YAML config file (SMP_* environment variables override it)")
	flags.StringVar(&opts.addr, "addr", "", "listen address, overrides server.addr")
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return config.Config{}, err
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	return cfg, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Error("failed to release resources", "error", err)
				}
			}()

			log.InfoContext(ctx, "starting smpserver", "version", version, "addr", cfg.Server.Addr)
			return a.Serve(ctx)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("database.url is required for migrate")
			}
			log := logger.New(cfg.Log)
			ctx := cmd.Context()

			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}
