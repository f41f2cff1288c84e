package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/japaniel/concertarchive/pkg/config"
	"github.com/japaniel/concertarchive/pkg/db"
)

var version = "dev"

// app holds what the subcommands share once the root command has loaded
// the configuration.
type app struct {
	configPath string
	envFiles   []string

	cfg    *config.Config
	logger *logrus.Logger
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFiles)
	if err != nil {
		return withCode(exitConfig, err)
	}
	a.cfg = cfg
	a.logger = config.NewLogger(cfg)
	a.logger.SetOutput(cmd.ErrOrStderr())
	return nil
}

func (a *app) open(ctx context.Context) (*sqlx.DB, error) {
	conn, err := db.Open(ctx, a.cfg.DBDriver, a.cfg.DatabaseURL)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	return conn, nil
}

// withDB opens the store, runs fn and closes the store again.
func (a *app) withDB(ctx context.Context, fn func(conn *sqlx.DB) error) error {
	conn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "concertarchive",
		Short:         "Concert program archive: ingest spreadsheets and query the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.load(cmd)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", config.DefaultEnvFiles, ".env files to load when present")

	cmd.AddCommand(newIngestCmd(a))
	cmd.AddCommand(newConcertsCmd(a))
	cmd.AddCommand(newConcertCmd(a))
	cmd.AddCommand(newComposerConcertsCmd(a))
	cmd.AddCommand(newPerformersCmd(a))
	cmd.AddCommand(newWorksCmd(a))
	cmd.AddCommand(newWorkConcertsCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// usageArgs wraps a cobra argument check so a failure maps to exitUsage.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withCode(exitUsage, check(cmd, args))
	}
}

func execute(ctx context.Context, args []string) int {
	return executeWith(ctx, args, os.Stdout, os.Stderr)
}

func executeWith(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err.Error())
		return exitCode(err)
	}
	return exitOK
}
