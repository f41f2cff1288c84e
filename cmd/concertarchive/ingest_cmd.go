package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/japaniel/concertarchive/pkg/ingest"
	"github.com/japaniel/concertarchive/pkg/metrics"
	"github.com/japaniel/concertarchive/pkg/staging"
)

type ingestOptions struct {
	dryRun          bool
	workers         int
	metricsTextfile string
}

func newIngestCmd(a *app) *cobra.Command {
	var opts ingestOptions
	cmd := &cobra.Command{
		Use:   "ingest <source>...",
		Short: "Ingest CSV, XLSX or JSON concert programs from files, http(s) URLs or s3:// objects",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(conn *sqlx.DB) error {
				return runIngest(cmd, a, conn, opts, args)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "run every source in a transaction that is rolled back")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "sources ingested at once (default from config)")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write run metrics to this file (default from config)")
	return cmd
}

func runIngest(cmd *cobra.Command, a *app, conn *sqlx.DB, opts ingestOptions, sources []string) error {
	ctx := cmd.Context()

	st, err := newStager(ctx, a)
	if err != nil {
		return withCode(exitConfig, err)
	}

	reg := prometheus.NewRegistry()
	ig := ingest.NewIngester(conn)
	ig.Logger = a.logger
	ig.Metrics = metrics.NewRecorder(reg)
	ig.DryRun = opts.dryRun
	ig.Workers = a.cfg.IngestWorkers
	if opts.workers > 0 {
		ig.Workers = opts.workers
	}

	reports := ig.IngestSources(ctx, st, sources)

	textfile := opts.metricsTextfile
	if textfile == "" {
		textfile = a.cfg.MetricsTextfile
	}
	if textfile != "" {
		if err := metrics.WriteTextfile(textfile, reg); err != nil {
			a.logger.WithError(err).WithField("path", textfile).Warn("could not write metrics textfile")
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return withCode(exitRunFailed, fmt.Errorf("%d of %d sources failed", failed, len(reports)))
	}
	return nil
}

func newStager(ctx context.Context, a *app) (*staging.Stager, error) {
	st := &staging.Stager{
		Dir:      a.cfg.UploadsDir,
		MaxBytes: a.cfg.MaxUploadSize,
	}
	s3opts := a.cfg.S3
	if s3opts.Region == "" && s3opts.Endpoint == "" {
		return st, nil
	}
	client, err := staging.NewS3Client(ctx, staging.S3Config{
		Region:          s3opts.Region,
		Endpoint:        s3opts.Endpoint,
		PathStyle:       s3opts.PathStyle,
		AccessKeyID:     s3opts.AccessKeyID,
		SecretAccessKey: s3opts.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	st.S3 = client
	return st, nil
}
