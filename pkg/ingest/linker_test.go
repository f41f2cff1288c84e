package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/concertarchive/pkg/db"
)

func TestLinkSkipsWithoutTouchingStore(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	exec := sqlx.NewDb(mockDB, "sqlmock")

	for _, req := range []LinkRequest{
		{PerformerID: 1, WorkID: 1},
		{ConcertID: 1, WorkID: 1},
		{ConcertID: 1, PerformerID: 1},
	} {
		out, err := Link(context.Background(), exec, req)
		require.NoError(t, err)
		assert.Equal(t, LinkSkipped, out)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkWritesProgramItem(t *testing.T) {
	conn := setupDB(t)
	ctx := context.Background()
	cid, _, err := db.InsertConcert(ctx, conn, db.Concert{Datetime: time.Date(2023, 5, 1, 19, 30, 0, 0, time.UTC)})
	require.NoError(t, err)
	pid, _, err := db.InsertPerformer(ctx, conn, "Jane Doe", "")
	require.NoError(t, err)
	wid, _, err := db.InsertWork(ctx, conn, "Sonata", "Mozart")
	require.NoError(t, err)

	order := 4
	out, err := Link(ctx, conn, LinkRequest{ConcertID: cid, PerformerID: pid, WorkID: wid, ItemOrder: &order})
	require.NoError(t, err)
	assert.Equal(t, Linked, out)

	var got db.ProgramItem
	require.NoError(t, conn.Get(&got, `SELECT * FROM program_items`))
	require.NotNil(t, got.ItemOrder)
	assert.Equal(t, 4, *got.ItemOrder)
	assert.Nil(t, got.IntervalAfter)
}
