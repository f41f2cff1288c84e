package ingest

import (
	"context"
	"time"

	"github.com/japaniel/concertarchive/pkg/db"
)

// Outcome is how a natural key was turned into an id.
type Outcome int

const (
	// Unresolvable means the insert conflicted but the lookup found nothing.
	Unresolvable Outcome = iota
	// Created means this call inserted the row.
	Created
	// Resolved means the row already existed and was found by lookup.
	Resolved
	// Cached means the id came from the run cache without touching the store.
	Cached
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Resolved:
		return "resolved"
	case Cached:
		return "cached"
	default:
		return "unresolvable"
	}
}

// Resolution is the result of Resolve. ID is zero when Unresolvable.
type Resolution struct {
	ID      int64
	Outcome Outcome
}

// Cache maps natural keys to ids for the lifetime of one run.
type Cache[K comparable] map[K]int64

// Resolver turns a natural key into a row id, inserting the row when it does
// not exist yet.
type Resolver[K comparable, A any] struct {
	// Insert attempts a conflict-safe insert; created is false on conflict.
	Insert func(ctx context.Context, exec db.DBExecutor, key K, attrs A) (id int64, created bool, err error)
	// Lookup finds an existing row by natural key.
	Lookup func(ctx context.Context, exec db.DBExecutor, key K) (id int64, found bool, err error)
}

// Resolve returns the id for key, consulting cache first. Successful
// resolutions are written back to cache.
func (r Resolver[K, A]) Resolve(ctx context.Context, exec db.DBExecutor, key K, attrs A, cache Cache[K]) (Resolution, error) {
	if id, ok := cache[key]; ok {
		return Resolution{ID: id, Outcome: Cached}, nil
	}

	id, created, err := r.Insert(ctx, exec, key, attrs)
	if err != nil {
		return Resolution{}, err
	}
	if created {
		cache[key] = id
		return Resolution{ID: id, Outcome: Created}, nil
	}

	// Someone else holds the key: this run earlier without caching, an
	// earlier run, or a concurrent one.
	id, found, err := r.Lookup(ctx, exec, key)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		return Resolution{Outcome: Unresolvable}, nil
	}
	cache[key] = id
	return Resolution{ID: id, Outcome: Resolved}, nil
}

// ConcertKey is the natural key of a concert. At is always UTC.
type ConcertKey struct {
	At        time.Time
	Venue     string
	Organiser string
}

// ConcertAttrs are stored on creation only.
type ConcertAttrs struct {
	Title  string
	Note   string
	Source string
}

// WorkKey is the natural key of a work.
type WorkKey struct {
	Title    string
	Composer string
}

var concertResolver = Resolver[ConcertKey, ConcertAttrs]{
	Insert: func(ctx context.Context, exec db.DBExecutor, k ConcertKey, a ConcertAttrs) (int64, bool, error) {
		return db.InsertConcert(ctx, exec, db.Concert{
			Datetime:  k.At,
			Title:     a.Title,
			Venue:     k.Venue,
			Organiser: k.Organiser,
			Note:      a.Note,
			Source:    a.Source,
		})
	},
	Lookup: func(ctx context.Context, exec db.DBExecutor, k ConcertKey) (int64, bool, error) {
		return db.FindConcertID(ctx, exec, k.At, k.Venue, k.Organiser)
	},
}

// performerResolver keys on name; attrs is the nationality.
var performerResolver = Resolver[string, string]{
	Insert: db.InsertPerformer,
	Lookup: db.FindPerformerID,
}

var workResolver = Resolver[WorkKey, struct{}]{
	Insert: func(ctx context.Context, exec db.DBExecutor, k WorkKey, _ struct{}) (int64, bool, error) {
		return db.InsertWork(ctx, exec, k.Title, k.Composer)
	},
	Lookup: func(ctx context.Context, exec db.DBExecutor, k WorkKey) (int64, bool, error) {
		return db.FindWorkID(ctx, exec, k.Title, k.Composer)
	},
}
