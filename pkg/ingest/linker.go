package ingest

import (
	"context"

	"github.com/japaniel/concertarchive/pkg/db"
)

// LinkOutcome reports whether a program item was written.
type LinkOutcome int

const (
	LinkSkipped LinkOutcome = iota
	Linked
)

func (o LinkOutcome) String() string {
	if o == Linked {
		return "linked"
	}
	return "skipped"
}

// LinkRequest describes one program item. A zero id means the entity could
// not be resolved for this row.
type LinkRequest struct {
	ConcertID     int64
	PerformerID   int64
	WorkID        int64
	ItemOrder     *int
	IntervalAfter *bool
}

// Link writes a program item when all three ids are known. It does not touch
// the store otherwise.
func Link(ctx context.Context, exec db.DBExecutor, req LinkRequest) (LinkOutcome, error) {
	if req.ConcertID == 0 || req.PerformerID == 0 || req.WorkID == 0 {
		return LinkSkipped, nil
	}
	_, err := db.InsertProgramItem(ctx, exec, db.ProgramItem{
		ConcertID:     req.ConcertID,
		PerformerID:   req.PerformerID,
		WorkID:        req.WorkID,
		ItemOrder:     req.ItemOrder,
		IntervalAfter: req.IntervalAfter,
	})
	if err != nil {
		return LinkSkipped, err
	}
	return Linked, nil
}
