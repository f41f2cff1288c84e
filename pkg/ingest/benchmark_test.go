package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/japaniel/concertarchive/pkg/tabular"
)

func generateBenchmarkRows(n int) []tabular.Row {
	rows := make([]tabular.Row, 0, n)
	for i := 0; i < n; i++ {
		// Ten items per concert, performers and works recurring across concerts.
		l := programLine{
			datetime:  fmt.Sprintf("2023-%02d-%02d-19:30", 1+(i/10)%12, 1+(i/120)%28),
			venue:     "Hall A",
			organiser: "Society",
			performer: fmt.Sprintf("Performer %d / Nowhere", i%25),
			title:     fmt.Sprintf("Work %d", i%200),
			composer:  fmt.Sprintf("Composer %d", i%40),
			order:     fmt.Sprintf("Item %d", 1+i%10),
		}
		rows = append(rows, l.row(i+2))
	}
	return rows
}

func BenchmarkIngest(b *testing.B) {
	rows := generateBenchmarkRows(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		conn := setupDB(b)
		_, _ = conn.Exec("PRAGMA synchronous = OFF")
		ingester := NewIngester(conn)
		b.StartTimer()

		_, err := ingester.Ingest(context.Background(), rows)
		b.StopTimer()
		if err != nil {
			b.Fatalf("Ingest failed: %v", err)
		}
		conn.Close()
	}
}

func BenchmarkIngestRerun(b *testing.B) {
	// Every entity already exists, so each first sighting goes through the
	// conflict-and-lookup path.
	rows := generateBenchmarkRows(1000)
	conn := setupDB(b)
	ingester := NewIngester(conn)
	if _, err := ingester.Ingest(context.Background(), rows); err != nil {
		b.Fatalf("seed ingest failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ingester.Ingest(context.Background(), rows); err != nil {
			b.Fatalf("Ingest failed: %v", err)
		}
	}
}
