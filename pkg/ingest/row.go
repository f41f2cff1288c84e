package ingest

import (
	"context"

	"github.com/japaniel/concertarchive/pkg/db"
	"github.com/japaniel/concertarchive/pkg/fields"
	"github.com/japaniel/concertarchive/pkg/tabular"
)

// runState is the per-run memory of resolved entities. It is dropped when
// the run ends.
type runState struct {
	concerts   Cache[ConcertKey]
	performers Cache[string]
	works      Cache[WorkKey]
}

func newRunState() *runState {
	return &runState{
		concerts:   Cache[ConcertKey]{},
		performers: Cache[string]{},
		works:      Cache[WorkKey]{},
	}
}

// processRow runs one row through normalize, resolve and link. The returned
// error is non-nil only when the store is unavailable and the run must stop;
// every other problem is reported as a skip in the RowResult.
func (ig *Ingester) processRow(ctx context.Context, exec db.DBExecutor, st *runState, row tabular.Row) (RowResult, error) {
	res := RowResult{Line: row.Line}

	if row.Malformed != "" {
		res.Skip, res.Detail = SkipMalformedRow, row.Malformed
		return res, nil
	}
	text, ok := fields.NormalizeDatetime(row.Get(tabular.ColDatetime))
	if !ok {
		res.Skip = SkipMissingDatetime
		return res, nil
	}
	at, err := fields.ParseDatetime(text)
	if err != nil {
		res.Skip, res.Detail = SkipInvalidDatetime, err.Error()
		return res, nil
	}

	// fail ends the row after normalization: nothing gets linked.
	fail := func(reason SkipReason, err error) (RowResult, error) {
		if err != nil {
			if db.IsUnavailable(err) {
				return res, err
			}
			res.Detail = err.Error()
		}
		res.Skip = reason
		res.Delta.ProgramItemsSkipped++
		return res, nil
	}

	concert, err := concertResolver.Resolve(ctx, exec, ConcertKey{
		At:        at,
		Venue:     fields.Clean(row.Get(tabular.ColVenue)),
		Organiser: fields.Clean(row.Get(tabular.ColOrganiser)),
	}, ConcertAttrs{
		Title:  fields.Clean(row.Get(tabular.ColTitle)),
		Note:   fields.Clean(row.Get(tabular.ColNote)),
		Source: fields.Clean(row.Get(tabular.ColSource)),
	}, st.concerts)
	if err != nil {
		return fail(SkipStoreError, err)
	}
	ig.Metrics.ObserveEntity("concert", concert.Outcome.String())
	count(concert.Outcome, &res.Delta.ConcertsAdded, &res.Delta.ConcertsSkipped)
	if concert.Outcome == Unresolvable {
		return fail(SkipUnresolvedConcert, nil)
	}

	var performerID int64
	if name, nationality := fields.SplitPerformer(row.Get(tabular.ColPerformer)); name != "" {
		performer, err := performerResolver.Resolve(ctx, exec, name, nationality, st.performers)
		if err != nil {
			return fail(SkipStoreError, err)
		}
		ig.Metrics.ObserveEntity("performer", performer.Outcome.String())
		count(performer.Outcome, &res.Delta.PerformersAdded, &res.Delta.PerformersSkipped)
		if performer.Outcome == Unresolvable {
			return fail(SkipUnresolvedPerformer, nil)
		}
		performerID = performer.ID
	}

	var workID int64
	if title := fields.Clean(row.Get(tabular.ColWorkTitle)); title != "" {
		key := WorkKey{Title: title, Composer: fields.Clean(row.Get(tabular.ColComposer))}
		work, err := workResolver.Resolve(ctx, exec, key, struct{}{}, st.works)
		if err != nil {
			return fail(SkipStoreError, err)
		}
		ig.Metrics.ObserveEntity("work", work.Outcome.String())
		count(work.Outcome, &res.Delta.WorksAdded, &res.Delta.WorksSkipped)
		if work.Outcome == Unresolvable {
			return fail(SkipUnresolvedWork, nil)
		}
		workID = work.ID
	}

	linked, err := Link(ctx, exec, LinkRequest{
		ConcertID:     concert.ID,
		PerformerID:   performerID,
		WorkID:        workID,
		ItemOrder:     fields.ParseItemOrder(row.Get(tabular.ColItemOrder)),
		IntervalAfter: fields.ParseIntervalFlag(row.Get(tabular.ColInterval)),
	})
	if err != nil {
		return fail(SkipStoreError, err)
	}
	ig.Metrics.ObserveEntity("program_item", linked.String())
	if linked == Linked {
		res.Delta.ProgramItemsAdded++
	} else {
		res.Delta.ProgramItemsSkipped++
	}
	return res, nil
}
