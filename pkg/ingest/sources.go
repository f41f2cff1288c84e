package ingest

import (
	"context"

	"github.com/japaniel/concertarchive/pkg/staging"
)

// Stager fetches a source into a local staged file.
type Stager interface {
	Stage(ctx context.Context, src string) (*staging.File, error)
}

// Report is the outcome of one source in IngestSources. Exactly one of
// Summary and Err is set.
type Report struct {
	Source  string   `json:"source"`
	Summary *Summary `json:"summary,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

func failedReport(src string, err error) Report {
	return Report{Source: src, Err: err, Error: err.Error()}
}

// IngestSources stages and ingests each source as its own run, at most
// Workers at a time. Reports come back in the order of sources. A failing
// source does not stop the others.
func (ig *Ingester) IngestSources(ctx context.Context, st Stager, sources []string) []Report {
	reports := make([]Report, len(sources))
	if len(sources) == 0 {
		return reports
	}

	workers := ig.Workers
	if workers > len(sources) {
		workers = len(sources)
	}
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, len(sources))
	} else {
		wp = NewWorkerPool(workers, len(sources))
	}
	wp.Start(ctx)

	for i, src := range sources {
		i, src := i, src
		err := wp.SubmitCtx(ctx, func(ctx context.Context) error {
			reports[i] = ig.ingestSource(ctx, st, src)
			return reports[i].Err
		})
		if err != nil {
			for j := i; j < len(sources); j++ {
				reports[j] = failedReport(sources[j], &RunError{Stage: StageStage, Err: err})
			}
			break
		}
	}
	wp.Close()

	// Jobs still queued when ctx was canceled never ran.
	for i := range reports {
		if reports[i].Source == "" {
			err := ctx.Err()
			if err == nil {
				err = ErrPoolClosed
			}
			reports[i] = failedReport(sources[i], &RunError{Stage: StageStage, Err: err})
		}
	}
	return reports
}

func (ig *Ingester) ingestSource(ctx context.Context, st Stager, src string) Report {
	f, err := st.Stage(ctx, src)
	if err != nil {
		ig.logger().WithField("source", src).WithError(err).Error("could not stage source")
		return failedReport(src, &RunError{Stage: StageStage, Err: err})
	}
	sum, err := ig.IngestFile(ctx, f)
	if err != nil {
		return failedReport(src, err)
	}
	return Report{Source: src, Summary: sum}
}
