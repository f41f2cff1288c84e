package db

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const concertColumns = `c.id, c.datetime, c.concert_title, c.venue, c.organiser, c.note, c.source`

func selectConcerts(ctx context.Context, exec DBExecutor, query string, args ...interface{}) ([]Concert, error) {
	out := []Concert{}
	if err := sqlx.SelectContext(ctx, exec, &out, exec.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// likePattern wraps s for a case-insensitive substring match.
func likePattern(s string) string {
	return "%" + s + "%"
}

// ListConcerts returns every concert ordered by datetime.
func ListConcerts(ctx context.Context, exec DBExecutor) ([]Concert, error) {
	out, err := selectConcerts(ctx, exec, `SELECT `+concertColumns+` FROM concerts c ORDER BY c.datetime, c.id`)
	return out, errors.Wrap(err, "list concerts")
}

// ListConcertsByPerformer returns concerts with a performer whose name
// contains the given text, ignoring case.
func ListConcertsByPerformer(ctx context.Context, exec DBExecutor, performer string) ([]Concert, error) {
	out, err := selectConcerts(ctx, exec,
		`SELECT DISTINCT `+concertColumns+` FROM concerts c
		 JOIN program_items pi ON pi.concert_id = c.id
		 JOIN performers p ON p.id = pi.performer_id
		 WHERE LOWER(p.performer) LIKE LOWER(?)
		 ORDER BY c.datetime, c.id`,
		likePattern(performer))
	return out, errors.Wrap(err, "list concerts by performer")
}

// ListConcertsByComposer returns concerts featuring a composer whose name
// contains the given text, ignoring case.
func ListConcertsByComposer(ctx context.Context, exec DBExecutor, composer string) ([]Concert, error) {
	out, err := selectConcerts(ctx, exec,
		`SELECT DISTINCT `+concertColumns+` FROM concerts c
		 JOIN program_items pi ON pi.concert_id = c.id
		 JOIN works w ON w.id = pi.work_id
		 WHERE LOWER(w.composer) LIKE LOWER(?)
		 ORDER BY c.datetime, c.id`,
		likePattern(composer))
	return out, errors.Wrap(err, "list concerts by composer")
}

// ConcertsByComposer returns concerts featuring exactly the named composer.
func ConcertsByComposer(ctx context.Context, exec DBExecutor, composer string) ([]Concert, error) {
	out, err := selectConcerts(ctx, exec,
		`SELECT DISTINCT `+concertColumns+` FROM concerts c
		 JOIN program_items pi ON pi.concert_id = c.id
		 JOIN works w ON w.id = pi.work_id
		 WHERE w.composer = ?
		 ORDER BY c.datetime, c.id`,
		composer)
	return out, errors.Wrap(err, "concerts by composer")
}

// ConcertsByWork returns the concerts in which the work was performed.
func ConcertsByWork(ctx context.Context, exec DBExecutor, workID int64) ([]Concert, error) {
	out, err := selectConcerts(ctx, exec,
		`SELECT DISTINCT `+concertColumns+` FROM concerts c
		 JOIN program_items pi ON pi.concert_id = c.id
		 WHERE pi.work_id = ?
		 ORDER BY c.datetime, c.id`,
		workID)
	return out, errors.Wrap(err, "concerts by work")
}

// ListConcertSummaries returns every concert with the sorted, distinct
// performers and composers on its program.
func ListConcertSummaries(ctx context.Context, exec DBExecutor) ([]ConcertSummary, error) {
	concerts, err := ListConcerts(ctx, exec)
	if err != nil {
		return nil, err
	}

	var pairs []struct {
		ConcertID int64  `db:"concert_id"`
		Performer string `db:"performer"`
		Composer  string `db:"composer"`
	}
	err = sqlx.SelectContext(ctx, exec, &pairs,
		`SELECT pi.concert_id, p.performer, w.composer FROM program_items pi
		 JOIN performers p ON p.id = pi.performer_id
		 JOIN works w ON w.id = pi.work_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list program participants")
	}

	performers := map[int64]map[string]struct{}{}
	composers := map[int64]map[string]struct{}{}
	for _, p := range pairs {
		addName(performers, p.ConcertID, p.Performer)
		addName(composers, p.ConcertID, p.Composer)
	}

	out := make([]ConcertSummary, 0, len(concerts))
	for _, c := range concerts {
		out = append(out, ConcertSummary{
			Concert:    c,
			Performers: sortedNames(performers[c.ID]),
			Composers:  sortedNames(composers[c.ID]),
		})
	}
	return out, nil
}

func addName(m map[int64]map[string]struct{}, id int64, name string) {
	if name == "" {
		return
	}
	if m[id] == nil {
		m[id] = map[string]struct{}{}
	}
	m[id][name] = struct{}{}
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetConcert returns one concert and its program ordered by item order.
// Items without an order come last, in insertion order.
func GetConcert(ctx context.Context, exec DBExecutor, id int64) (*ConcertDetail, error) {
	var detail ConcertDetail
	err := sqlx.GetContext(ctx, exec, &detail.Concert,
		exec.Rebind(`SELECT `+concertColumns+` FROM concerts c WHERE c.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "concert %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get concert")
	}

	detail.Program = []ProgramEntry{}
	err = sqlx.SelectContext(ctx, exec, &detail.Program, exec.Rebind(
		`SELECT pi.item_order, pi.interval_after, w.id AS work_id, w.work_title, w.composer, p.performer
		 FROM program_items pi
		 JOIN works w ON w.id = pi.work_id
		 JOIN performers p ON p.id = pi.performer_id
		 WHERE pi.concert_id = ?
		 ORDER BY CASE WHEN pi.item_order IS NULL THEN 1 ELSE 0 END, pi.item_order, pi.id`), id)
	if err != nil {
		return nil, errors.Wrap(err, "get concert program")
	}
	return &detail, nil
}

// ListPerformers returns all performers ordered by name.
func ListPerformers(ctx context.Context, exec DBExecutor) ([]Performer, error) {
	out := []Performer{}
	err := sqlx.SelectContext(ctx, exec, &out,
		`SELECT id, performer, nationality FROM performers ORDER BY performer, id`)
	return out, errors.Wrap(err, "list performers")
}

// ListWorks returns all works ordered by composer, then title.
func ListWorks(ctx context.Context, exec DBExecutor) ([]Work, error) {
	out := []Work{}
	err := sqlx.SelectContext(ctx, exec, &out,
		`SELECT id, work_title, composer FROM works ORDER BY composer, work_title, id`)
	return out, errors.Wrap(err, "list works")
}

// Search matches q case-insensitively against concert venues and notes,
// performer names and nationalities, and work titles and composers.
func Search(ctx context.Context, exec DBExecutor, q string) (*SearchResult, error) {
	pattern := likePattern(q)
	res := &SearchResult{Performers: []Performer{}, Works: []Work{}}

	concerts, err := selectConcerts(ctx, exec,
		`SELECT `+concertColumns+` FROM concerts c
		 WHERE LOWER(c.venue) LIKE LOWER(?) OR LOWER(c.note) LIKE LOWER(?)
		 ORDER BY c.datetime, c.id`,
		pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search concerts")
	}
	res.Concerts = concerts

	err = sqlx.SelectContext(ctx, exec, &res.Performers, exec.Rebind(
		`SELECT id, performer, nationality FROM performers
		 WHERE LOWER(performer) LIKE LOWER(?) OR LOWER(nationality) LIKE LOWER(?)
		 ORDER BY performer, id`),
		pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search performers")
	}

	err = sqlx.SelectContext(ctx, exec, &res.Works, exec.Rebind(
		`SELECT id, work_title, composer FROM works
		 WHERE LOWER(composer) LIKE LOWER(?) OR LOWER(work_title) LIKE LOWER(?)
		 ORDER BY composer, work_title, id`),
		pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search works")
	}
	return res, nil
}
