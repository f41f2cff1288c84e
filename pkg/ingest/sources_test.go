package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/concertarchive/pkg/db"
	"github.com/japaniel/concertarchive/pkg/staging"
)

const programCSV = "Year/Date/Time,Venue,Organiser/Sponsor,Concert Title,Note,Source,Performer/ Nationality,Music Title,Composer,Program Order number,Interval  Y/N\n" +
	"2023-05-01-19:30,Hall A,Society,Spring Gala,,Archive box 3,Jane Doe / USA,Sonata,Mozart,Item 1,Y\n" +
	"2023-05-01-19:30,Hall A,Society,Spring Gala,,Archive box 3,Jane Doe / USA,Partita,Bach,Item 2,\n" +
	",Hall A,Society,Spring Gala,,,Jane Doe / USA,Encore,,,\n"

func writeSource(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestIngestFileRemovesStagedFile(t *testing.T) {
	conn := setupDB(t)
	ig := NewIngester(conn)
	stager := &staging.Stager{Dir: t.TempDir()}
	ctx := context.Background()

	f, err := stager.Stage(ctx, writeSource(t, "program.csv", programCSV))
	require.NoError(t, err)
	sum, err := ig.IngestFile(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.RowsRead)
	assert.Equal(t, 2, sum.Stats.ProgramItemsAdded)
	require.Len(t, sum.Skipped, 1)
	assert.Equal(t, SkippedRow{Line: 4, Reason: SkipMissingDatetime}, sum.Skipped[0])
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err), "staged file must be removed after success")
}

func TestIngestFileUnparsableIsRunError(t *testing.T) {
	conn := setupDB(t)
	ig := NewIngester(conn)
	stager := &staging.Stager{Dir: t.TempDir()}
	ctx := context.Background()

	f, err := stager.Stage(ctx, writeSource(t, "empty.csv", ""))
	require.NoError(t, err)

	sum, err := ig.IngestFile(ctx, f)
	assert.Nil(t, sum)
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageLoad, runErr.Stage)
	_, statErr := os.Stat(f.Path)
	assert.True(t, os.IsNotExist(statErr), "staged file must be removed after failure")
	assert.Equal(t, 0, countRows(t, conn, "concerts"), "nothing is written when the file cannot be parsed")
}

func TestIngestFileKeepsStrayQuotes(t *testing.T) {
	conn := setupDB(t)
	ig := NewIngester(conn)
	stager := &staging.Stager{Dir: t.TempDir()}
	ctx := context.Background()

	body := "Year/Date/Time,Venue,Organiser/Sponsor,Performer/ Nationality,Music Title,Composer,Program Order number\n" +
		"2023-05-01-19:30,Hall A,Society,Jane Doe / USA,Partita,Bach,Item 1\n" +
		"2023-05-01-19:30,Hall A,Society,Jane Doe / USA,Sonata No. 14 \"Moonlight\",Beethoven,Item 2\n"
	f, err := stager.Stage(ctx, writeSource(t, "program.csv", body))
	require.NoError(t, err)

	sum, err := ig.IngestFile(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.RowsRead)
	assert.Empty(t, sum.Skipped)
	assert.Equal(t, 2, sum.Stats.ProgramItemsAdded)

	var title string
	require.NoError(t, conn.Get(&title, "SELECT work_title FROM works WHERE composer = ?", "Beethoven"))
	assert.Equal(t, "Sonata No. 14 \"Moonlight\"", title)
}

func TestIngestFileWithoutDatetimeColumnSkipsEveryRow(t *testing.T) {
	conn := setupDB(t)
	ig := NewIngester(conn)
	stager := &staging.Stager{Dir: t.TempDir()}
	ctx := context.Background()

	f, err := stager.Stage(ctx, writeSource(t, "program.csv", "Venue,Music Title\nHall A,Partita\nHall B,Sonata\n"))
	require.NoError(t, err)

	sum, err := ig.IngestFile(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.RowsRead)
	assert.Equal(t, Stats{}, sum.Stats)
	assert.Equal(t, []SkippedRow{
		{Line: 2, Reason: SkipMissingDatetime},
		{Line: 3, Reason: SkipMissingDatetime},
	}, sum.Skipped)
	assert.Equal(t, 0, countRows(t, conn, "works"))
}

func TestIngestSourcesConcurrentRunsConverge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	conn, err := db.Open(context.Background(), db.DriverSQLite, path)
	require.NoError(t, err)
	defer conn.Close()

	ig := NewIngester(conn)
	ig.Workers = 4
	src := writeSource(t, "program.csv", programCSV)
	sources := []string{src, src, src, src}

	reports := ig.IngestSources(context.Background(), &staging.Stager{Dir: t.TempDir()}, sources)
	require.Len(t, reports, 4)

	var total Stats
	for _, r := range reports {
		require.NoError(t, r.Err, r.Source)
		require.NotNil(t, r.Summary)
		total.Add(r.Summary.Stats)
	}
	assert.Equal(t, 1, total.ConcertsAdded)
	assert.Equal(t, 1, total.PerformersAdded)
	assert.Equal(t, 2, total.WorksAdded)
	assert.Equal(t, 8, total.ProgramItemsAdded)

	assert.Equal(t, 1, countRows(t, conn, "concerts"))
	assert.Equal(t, 1, countRows(t, conn, "performers"))
	assert.Equal(t, 2, countRows(t, conn, "works"))
	assert.Equal(t, 8, countRows(t, conn, "program_items"))
}

func TestIngestSourcesReportsStagingFailure(t *testing.T) {
	conn := setupDB(t)
	ig := NewIngester(conn)
	good := writeSource(t, "program.csv", programCSV)
	missing := filepath.Join(t.TempDir(), "missing.csv")

	reports := ig.IngestSources(context.Background(), &staging.Stager{Dir: t.TempDir()}, []string{missing, good})
	require.Len(t, reports, 2)

	var runErr *RunError
	require.True(t, errors.As(reports[0].Err, &runErr))
	assert.Equal(t, StageStage, runErr.Stage)
	assert.NotEmpty(t, reports[0].Error)

	require.NoError(t, reports[1].Err)
	assert.Equal(t, 2, reports[1].Summary.Stats.ProgramItemsAdded)
}
