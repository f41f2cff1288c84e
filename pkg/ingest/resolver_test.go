package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/concertarchive/pkg/db"
)

// fakeTable is an in-memory stand-in for one natural-key table.
type fakeTable struct {
	rows    map[string]int64
	inserts int
	lookups int
	// hide makes lookups miss, as if the row vanished after the conflict.
	hide bool
	err  error
}

func (f *fakeTable) resolver() Resolver[string, string] {
	return Resolver[string, string]{
		Insert: func(_ context.Context, _ db.DBExecutor, key, _ string) (int64, bool, error) {
			f.inserts++
			if f.err != nil {
				return 0, false, f.err
			}
			if _, ok := f.rows[key]; ok {
				return 0, false, nil
			}
			id := int64(len(f.rows) + 1)
			f.rows[key] = id
			return id, true, nil
		},
		Lookup: func(_ context.Context, _ db.DBExecutor, key string) (int64, bool, error) {
			f.lookups++
			if f.hide {
				return 0, false, nil
			}
			id, ok := f.rows[key]
			return id, ok, nil
		},
	}
}

func TestResolveCreatesThenCaches(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{}}
	r := table.resolver()
	cache := Cache[string]{}
	ctx := context.Background()

	first, err := r.Resolve(ctx, nil, "Jane Doe", "USA", cache)
	require.NoError(t, err)
	assert.Equal(t, Resolution{ID: 1, Outcome: Created}, first)

	second, err := r.Resolve(ctx, nil, "Jane Doe", "USA", cache)
	require.NoError(t, err)
	assert.Equal(t, Resolution{ID: 1, Outcome: Cached}, second)

	assert.Equal(t, 1, table.inserts, "identical keys in one run are inserted at most once")
	assert.Equal(t, 0, table.lookups)
}

func TestResolveFallsBackToLookup(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{"Jane Doe": 7}}
	r := table.resolver()
	cache := Cache[string]{}

	res, err := r.Resolve(context.Background(), nil, "Jane Doe", "", cache)
	require.NoError(t, err)
	assert.Equal(t, Resolution{ID: 7, Outcome: Resolved}, res)
	assert.Equal(t, int64(7), cache["Jane Doe"])
}

func TestResolveUnresolvableIsNotCached(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{"Jane Doe": 7}, hide: true}
	r := table.resolver()
	cache := Cache[string]{}

	res, err := r.Resolve(context.Background(), nil, "Jane Doe", "", cache)
	require.NoError(t, err)
	assert.Equal(t, Unresolvable, res.Outcome)
	assert.Zero(t, res.ID)
	assert.Empty(t, cache)
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	table := &fakeTable{rows: map[string]int64{}, err: boom}
	_, err := table.resolver().Resolve(context.Background(), nil, "x", "", Cache[string]{})
	assert.ErrorIs(t, err, boom)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "cached", Cached.String())
	assert.Equal(t, "unresolvable", Unresolvable.String())
}
