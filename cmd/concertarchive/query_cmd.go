package main

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/japaniel/concertarchive/pkg/db"
)

// queryCmd builds a read-only subcommand that prints whatever fn returns.
func queryCmd(a *app, use, short string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, conn *sqlx.DB, args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  usageArgs(args),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(conn *sqlx.DB) error {
				v, err := fn(cmd, conn, args)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), v)
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, withCode(exitUsage, fmt.Errorf("invalid id %q", s))
	}
	return id, nil
}

func queryFailed(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return withCode(exitGeneric, err)
	}
	return withCode(exitDB, err)
}

func newConcertsCmd(a *app) *cobra.Command {
	var performer, composer string
	cmd := queryCmd(a, "concerts", "List concerts, optionally filtered by performer or composer", cobra.NoArgs,
		func(cmd *cobra.Command, conn *sqlx.DB, _ []string) (any, error) {
			if performer != "" && composer != "" {
				return nil, withCode(exitUsage, errors.New("--performer and --composer cannot be combined"))
			}
			ctx := cmd.Context()
			var (
				v   any
				err error
			)
			switch {
			case performer != "":
				v, err = db.ListConcertsByPerformer(ctx, conn, performer)
			case composer != "":
				v, err = db.ListConcertsByComposer(ctx, conn, composer)
			default:
				v, err = db.ListConcertSummaries(ctx, conn)
			}
			if err != nil {
				return nil, queryFailed(err)
			}
			return v, nil
		})
	cmd.Flags().StringVar(&performer, "performer", "", "case-insensitive performer substring")
	cmd.Flags().StringVar(&composer, "composer", "", "case-insensitive composer substring")
	return cmd
}

func newConcertCmd(a *app) *cobra.Command {
	return queryCmd(a, "concert <id>", "Show a concert and its program", cobra.ExactArgs(1),
		func(cmd *cobra.Command, conn *sqlx.DB, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			detail, err := db.GetConcert(cmd.Context(), conn, id)
			if err != nil {
				return nil, queryFailed(errors.Wrapf(err, "concert %d", id))
			}
			return detail, nil
		})
}

func newComposerConcertsCmd(a *app) *cobra.Command {
	return queryCmd(a, "composer-concerts <name>", "List concerts featuring a composer (exact name)", cobra.ExactArgs(1),
		func(cmd *cobra.Command, conn *sqlx.DB, args []string) (any, error) {
			concerts, err := db.ConcertsByComposer(cmd.Context(), conn, args[0])
			if err != nil {
				return nil, queryFailed(err)
			}
			return concerts, nil
		})
}

func newPerformersCmd(a *app) *cobra.Command {
	return queryCmd(a, "performers", "List performers", cobra.NoArgs,
		func(cmd *cobra.Command, conn *sqlx.DB, _ []string) (any, error) {
			performers, err := db.ListPerformers(cmd.Context(), conn)
			if err != nil {
				return nil, queryFailed(err)
			}
			return performers, nil
		})
}

func newWorksCmd(a *app) *cobra.Command {
	return queryCmd(a, "works", "List works", cobra.NoArgs,
		func(cmd *cobra.Command, conn *sqlx.DB, _ []string) (any, error) {
			works, err := db.ListWorks(cmd.Context(), conn)
			if err != nil {
				return nil, queryFailed(err)
			}
			return works, nil
		})
}

func newWorkConcertsCmd(a *app) *cobra.Command {
	return queryCmd(a, "work-concerts <id>", "List concerts in which a work was performed", cobra.ExactArgs(1),
		func(cmd *cobra.Command, conn *sqlx.DB, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			concerts, err := db.ConcertsByWork(cmd.Context(), conn, id)
			if err != nil {
				return nil, queryFailed(err)
			}
			return concerts, nil
		})
}

func newSearchCmd(a *app) *cobra.Command {
	return queryCmd(a, "search <query>", "Search concerts, performers and works", cobra.ExactArgs(1),
		func(cmd *cobra.Command, conn *sqlx.DB, args []string) (any, error) {
			res, err := db.Search(cmd.Context(), conn, args[0])
			if err != nil {
				return nil, queryFailed(err)
			}
			return res, nil
		})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
