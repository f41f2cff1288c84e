package ingest

// Stats counts what a run did to the store. Cache hits are not counted.
type Stats struct {
	ConcertsAdded       int `json:"concerts_added"`
	ConcertsSkipped     int `json:"concerts_skipped"`
	PerformersAdded     int `json:"performers_added"`
	PerformersSkipped   int `json:"performers_skipped"`
	WorksAdded          int `json:"works_added"`
	WorksSkipped        int `json:"works_skipped"`
	ProgramItemsAdded   int `json:"program_items_added"`
	ProgramItemsSkipped int `json:"program_items_skipped"`
}

// Add accumulates d into s.
func (s *Stats) Add(d Stats) {
	s.ConcertsAdded += d.ConcertsAdded
	s.ConcertsSkipped += d.ConcertsSkipped
	s.PerformersAdded += d.PerformersAdded
	s.PerformersSkipped += d.PerformersSkipped
	s.WorksAdded += d.WorksAdded
	s.WorksSkipped += d.WorksSkipped
	s.ProgramItemsAdded += d.ProgramItemsAdded
	s.ProgramItemsSkipped += d.ProgramItemsSkipped
}

// count bumps added or skipped for a resolution outcome.
func count(o Outcome, added, skipped *int) {
	switch o {
	case Created:
		*added++
	case Resolved:
		*skipped++
	}
}

// SkipReason says why a row produced no program item.
type SkipReason string

const (
	SkipMalformedRow        SkipReason = "malformed_row"
	SkipMissingDatetime     SkipReason = "missing_datetime"
	SkipInvalidDatetime     SkipReason = "invalid_datetime"
	SkipUnresolvedConcert   SkipReason = "unresolved_concert"
	SkipUnresolvedPerformer SkipReason = "unresolved_performer"
	SkipUnresolvedWork      SkipReason = "unresolved_work"
	SkipStoreError          SkipReason = "store_error"
)

// RowResult is the outcome of one row. Skip is empty unless the row was
// rejected.
type RowResult struct {
	Line   int
	Delta  Stats
	Skip   SkipReason
	Detail string
}

// SkippedRow records a rejected row in the run summary.
type SkippedRow struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Summary is the result of one ingestion run.
type Summary struct {
	RunID    string       `json:"run_id"`
	Source   string       `json:"source,omitempty"`
	DryRun   bool         `json:"dry_run"`
	RowsRead int          `json:"rows_read"`
	Stats    Stats        `json:"stats"`
	Skipped  []SkippedRow `json:"skipped"`
}

func newSummary(runID, source string, dryRun bool) *Summary {
	return &Summary{RunID: runID, Source: source, DryRun: dryRun, Skipped: []SkippedRow{}}
}

// Apply folds one row result into the summary.
func (s *Summary) Apply(r RowResult) {
	s.RowsRead++
	s.Stats.Add(r.Delta)
	if r.Skip != "" {
		s.Skipped = append(s.Skipped, SkippedRow{Line: r.Line, Reason: r.Skip, Detail: r.Detail})
	}
}
