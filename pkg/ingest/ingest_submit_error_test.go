package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/japaniel/concertarchive/pkg/staging"
)

// failingPool always returns an error on Submit to simulate a pool that
// refuses work.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestIngestSourcesHandlesSubmitError(t *testing.T) {
	conn := setupDB(t)

	ingester := NewIngester(conn)
	// Inject failing pool so the first Submit() returns an error
	ingester.PoolFactory = func(workers, queue int) WorkerPoolInterface { return &failingPool{} }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reports := ingester.IngestSources(ctx, &staging.Stager{Dir: t.TempDir()}, []string{"a.csv", "b.csv"})
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for _, r := range reports {
		if r.Err == nil {
			t.Fatalf("expected submit error for %s, got nil", r.Source)
		}
		var runErr *RunError
		if !errors.As(r.Err, &runErr) {
			t.Fatalf("expected RunError, got %T", r.Err)
		}
	}
	if reports[1].Source != "b.csv" {
		t.Fatalf("reports out of order: %+v", reports)
	}
}
