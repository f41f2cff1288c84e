package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx, so every store call
// can run inside or outside a transaction.
type DBExecutor interface {
	sqlx.ExtContext
}

// insertReturningID runs an INSERT ... ON CONFLICT DO NOTHING RETURNING id.
// ok is false when the conflict clause swallowed the insert.
func insertReturningID(ctx context.Context, exec DBExecutor, query string, args ...interface{}) (int64, bool, error) {
	var id int64
	err := exec.QueryRowxContext(ctx, exec.Rebind(query), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// lookupID runs a single-column id query. ok is false when nothing matches.
func lookupID(ctx context.Context, exec DBExecutor, query string, args ...interface{}) (int64, bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, exec, &id, exec.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertConcert creates the concert unless one with the same datetime, venue
// and organiser exists. created is false in that case and id is zero.
func InsertConcert(ctx context.Context, exec DBExecutor, c Concert) (id int64, created bool, err error) {
	id, created, err = insertReturningID(ctx, exec,
		`INSERT INTO concerts (datetime, concert_title, venue, organiser, note, source)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (datetime, venue, organiser) DO NOTHING
		 RETURNING id`,
		c.Datetime.UTC(), c.Title, c.Venue, c.Organiser, c.Note, c.Source)
	return id, created, errors.Wrap(err, "insert concert")
}

// FindConcertID looks a concert up by its natural key.
func FindConcertID(ctx context.Context, exec DBExecutor, at time.Time, venue, organiser string) (int64, bool, error) {
	id, ok, err := lookupID(ctx, exec,
		`SELECT id FROM concerts WHERE datetime = ? AND venue = ? AND organiser = ?`,
		at.UTC(), venue, organiser)
	return id, ok, errors.Wrap(err, "find concert")
}

// InsertPerformer creates the performer unless the name is already taken.
// The nationality of an existing performer is left untouched.
func InsertPerformer(ctx context.Context, exec DBExecutor, name, nationality string) (int64, bool, error) {
	if strings.TrimSpace(name) == "" {
		return 0, false, errors.New("performer name must be non-empty")
	}
	id, created, err := insertReturningID(ctx, exec,
		`INSERT INTO performers (performer, nationality) VALUES (?, ?)
		 ON CONFLICT (performer) DO NOTHING
		 RETURNING id`,
		name, nationality)
	return id, created, errors.Wrap(err, "insert performer")
}

// FindPerformerID looks a performer up by name.
func FindPerformerID(ctx context.Context, exec DBExecutor, name string) (int64, bool, error) {
	id, ok, err := lookupID(ctx, exec, `SELECT id FROM performers WHERE performer = ?`, name)
	return id, ok, errors.Wrap(err, "find performer")
}

// InsertWork creates the work unless the (title, composer) pair exists.
func InsertWork(ctx context.Context, exec DBExecutor, title, composer string) (int64, bool, error) {
	if strings.TrimSpace(title) == "" {
		return 0, false, errors.New("work title must be non-empty")
	}
	id, created, err := insertReturningID(ctx, exec,
		`INSERT INTO works (work_title, composer) VALUES (?, ?)
		 ON CONFLICT (work_title, composer) DO NOTHING
		 RETURNING id`,
		title, composer)
	return id, created, errors.Wrap(err, "insert work")
}

// FindWorkID looks a work up by title and composer.
func FindWorkID(ctx context.Context, exec DBExecutor, title, composer string) (int64, bool, error) {
	id, ok, err := lookupID(ctx, exec,
		`SELECT id FROM works WHERE work_title = ? AND composer = ?`, title, composer)
	return id, ok, errors.Wrap(err, "find work")
}

// InsertProgramItem appends a program item. Items are never deduplicated.
func InsertProgramItem(ctx context.Context, exec DBExecutor, item ProgramItem) (int64, error) {
	if item.ConcertID <= 0 || item.PerformerID <= 0 || item.WorkID <= 0 {
		return 0, errors.Errorf("program item needs concert, performer and work ids, got %d/%d/%d",
			item.ConcertID, item.PerformerID, item.WorkID)
	}
	var id int64
	err := exec.QueryRowxContext(ctx, exec.Rebind(
		`INSERT INTO program_items (concert_id, performer_id, work_id, item_order, interval_after)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`),
		item.ConcertID, item.PerformerID, item.WorkID, nullableInt(item.ItemOrder), nullableBool(item.IntervalAfter),
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert program item")
	}
	return id, nil
}

// nullableInt returns nil for a missing value so the column stores NULL.
func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableBool(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
