// Package cmd implements the defterctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"defter/internal/backend"
	"defter/internal/cli"
	"defter/internal/config"
	applog "defter/internal/log"
)

// Opener connects to the ledger backend. Every command opens it once and
// runs the returned cleanup when done.
type Opener func(ctx context.Context) (*backend.BackendResult, error)

type rootOptions struct {
	debug   bool
	envFile string
	open    Opener
	logger  *applog.Logger
}

// NewRootCmd builds the command tree. A nil open reads the backend from the
// environment.
func NewRootCmd(open Opener) *cobra.Command {
	o := &rootOptions{open: open}
	if o.open == nil {
		o.open = openFromEnv
	}

	root := &cobra.Command{
		Use:   "defterctl",
		Short: "Manage the defter ledger from the command line",
		Long: `defterctl reads and writes the same ledger the defter server uses.

Examples:
  defterctl entities
  defterctl add-entity "Ayşe Yılmaz" --phone "532 000 00 00"
  defterctl record 1 borc 250,50 --note "market"
  defterctl settle 1`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.LoadEnvFile(o.envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			level := os.Getenv("LOG_LEVEL")
			if level == "" {
				level = "warn"
			}
			if o.debug {
				level = "debug"
			}
			lvl, err := applog.ParseLevel(level)
			if err != nil {
				return err
			}
			// Logs go to stderr so command output stays pipeable.
			o.logger = applog.New(applog.Config{Level: lvl, Component: applog.ComponentCLI, Output: cmd.ErrOrStderr()})
			applog.SetDefault(o.logger)
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&o.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "path to a .env file")

	root.AddCommand(
		newEntitiesCmd(o),
		newShowCmd(o),
		newAddEntityCmd(o),
		newRecordCmd(o),
		newSettleCmd(o),
		newDeleteCmd(o),
		newImportCmd(o),
	)
	return root
}

// Execute runs defterctl against the configured backend.
func Execute() error {
	return NewRootCmd(nil).Execute()
}

func openFromEnv(ctx context.Context) (*backend.BackendResult, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	// One-shot process: nothing to gain from a summary cache.
	backendCfg.CacheSize = 0
	return backend.NewFactory(nil).CreateBackend(ctx, backendCfg)
}

// withBackend opens the backend, runs fn and always cleans up.
func (o *rootOptions) withBackend(cmd *cobra.Command, fn func(res *backend.BackendResult) error) (err error) {
	res, err := o.open(cmd.Context())
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(res)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entity id %q", s)
	}
	return id, nil
}
