package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/japaniel/concertarchive/pkg/db"
	"github.com/japaniel/concertarchive/pkg/metrics"
	"github.com/japaniel/concertarchive/pkg/staging"
	"github.com/japaniel/concertarchive/pkg/tabular"
)

// Stages at which a run can fail as a whole.
const (
	StageStage   = "stage"
	StageLoad    = "load"
	StageConnect = "connect"
	StageIngest  = "ingest"
)

// RunError aborts a whole run: the input could not be read, the store is
// unreachable, or the run was canceled. No summary accompanies it.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("ingest run failed at %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Ingester loads concert program rows into the store.
type Ingester struct {
	DB *sqlx.DB
	// Logger receives per-run and per-skip messages. nil means no logging.
	Logger logrus.FieldLogger
	// Metrics is optional.
	Metrics *metrics.Recorder
	// DryRun runs everything inside a transaction that is rolled back.
	DryRun bool
	// OnProgress is called after every row with the rows done and the total.
	OnProgress func(current, total int)

	// Workers bounds how many sources IngestSources runs at once.
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester.
func NewIngester(conn *sqlx.DB) *Ingester {
	return &Ingester{
		DB:      conn,
		Workers: 4,
	}
}

func (ig *Ingester) logger() logrus.FieldLogger {
	if ig.Logger != nil {
		return ig.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Ingest processes rows in order and returns the run summary.
func (ig *Ingester) Ingest(ctx context.Context, rows []tabular.Row) (*Summary, error) {
	return ig.run(ctx, "", rows)
}

// IngestFile loads a staged file and ingests it. The staged file is removed
// on every return path.
func (ig *Ingester) IngestFile(ctx context.Context, f *staging.File) (*Summary, error) {
	log := ig.logger().WithField("source", f.Source)
	defer func() {
		if err := f.Remove(); err != nil {
			log.WithError(err).Warn("could not remove staged file")
		}
	}()

	tbl, err := tabular.Load(f.Path)
	if err != nil {
		ig.Metrics.ObserveRun("failed", 0)
		return nil, &RunError{Stage: StageLoad, Err: err}
	}
	log.WithFields(logrus.Fields{
		"format":  tbl.Format,
		"charset": tbl.Charset,
		"rows":    len(tbl.Rows),
	}).Debug("loaded input")
	return ig.run(ctx, f.Source, tbl.Rows)
}

func (ig *Ingester) run(ctx context.Context, source string, rows []tabular.Row) (sum *Summary, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := ig.logger().WithFields(logrus.Fields{"run_id": runID, "source": source})

	defer func() {
		result := "ok"
		switch {
		case err != nil:
			result = "failed"
			log.WithError(err).Error("ingest run failed")
		case ig.DryRun:
			result = "dry_run"
		}
		ig.Metrics.ObserveRun(result, time.Since(start))
	}()

	if err := ig.DB.PingContext(ctx); err != nil {
		return nil, &RunError{Stage: StageConnect, Err: err}
	}

	var exec db.DBExecutor = ig.DB
	if ig.DryRun {
		tx, err := ig.DB.BeginTxx(ctx, nil)
		if err != nil {
			return nil, &RunError{Stage: StageConnect, Err: err}
		}
		defer func() {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.WithError(rbErr).Warn("dry run rollback failed")
			}
		}()
		exec = tx
	}

	st := newRunState()
	sum = newSummary(runID, source, ig.DryRun)
	log.WithField("rows", len(rows)).Info("ingest run started")

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, &RunError{Stage: StageIngest, Err: err}
		}
		res, err := ig.processRow(ctx, exec, st, row)
		if err != nil {
			return nil, &RunError{Stage: StageIngest, Err: fmt.Errorf("line %d: %w", row.Line, err)}
		}
		sum.Apply(res)

		if res.Skip != "" {
			ig.Metrics.ObserveRow("skipped")
			entry := log.WithFields(logrus.Fields{"line": res.Line, "reason": res.Skip})
			if res.Detail != "" {
				entry = entry.WithField("detail", res.Detail)
			}
			entry.Warn("row skipped")
		} else {
			ig.Metrics.ObserveRow("ok")
		}
		if ig.OnProgress != nil {
			ig.OnProgress(i+1, len(rows))
		}
	}

	log.WithFields(logrus.Fields{
		"rows":                sum.RowsRead,
		"skipped":             len(sum.Skipped),
		"concerts_added":      sum.Stats.ConcertsAdded,
		"performers_added":    sum.Stats.PerformersAdded,
		"works_added":         sum.Stats.WorksAdded,
		"program_items_added": sum.Stats.ProgramItemsAdded,
		"dry_run":             ig.DryRun,
	}).Info("ingest run finished")
	return sum, nil
}
