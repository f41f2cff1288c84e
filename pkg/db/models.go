package db

import "time"

// Concert is one performance event, unique by (datetime, venue, organiser).
type Concert struct {
	ID        int64     `db:"id" json:"id"`
	Datetime  time.Time `db:"datetime" json:"datetime"`
	Title     string    `db:"concert_title" json:"concert_title"`
	Venue     string    `db:"venue" json:"venue"`
	Organiser string    `db:"organiser" json:"organiser"`
	Note      string    `db:"note" json:"note"`
	Source    string    `db:"source" json:"source"`
}

// Performer is an individual or ensemble, unique by name.
type Performer struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"performer" json:"performer"`
	Nationality string `db:"nationality" json:"nationality"`
}

// Work is a musical composition, unique by (title, composer).
type Work struct {
	ID       int64  `db:"id" json:"id"`
	Title    string `db:"work_title" json:"work_title"`
	Composer string `db:"composer" json:"composer"`
}

// ProgramItem places one performer performing one work within a concert.
// ItemOrder and IntervalAfter are nil when the source row left them blank.
type ProgramItem struct {
	ID            int64 `db:"id" json:"id"`
	ConcertID     int64 `db:"concert_id" json:"concert_id"`
	PerformerID   int64 `db:"performer_id" json:"performer_id"`
	WorkID        int64 `db:"work_id" json:"work_id"`
	ItemOrder     *int  `db:"item_order" json:"item_order"`
	IntervalAfter *bool `db:"interval_after" json:"interval_after"`
}

// ConcertSummary is a concert with the distinct performers and composers of
// its program.
type ConcertSummary struct {
	Concert
	Performers []string `json:"performers"`
	Composers  []string `json:"composers"`
}

// ProgramEntry is one line of a concert program as shown to readers.
type ProgramEntry struct {
	ItemOrder     *int   `db:"item_order" json:"item_order"`
	IntervalAfter *bool  `db:"interval_after" json:"interval_after"`
	WorkID        int64  `db:"work_id" json:"work_id"`
	WorkTitle     string `db:"work_title" json:"work_title"`
	Composer      string `db:"composer" json:"composer"`
	Performer     string `db:"performer" json:"performer"`
}

// ConcertDetail is a concert together with its ordered program.
type ConcertDetail struct {
	Concert
	Program []ProgramEntry `json:"program"`
}

// SearchResult groups substring matches by entity kind.
type SearchResult struct {
	Concerts   []Concert   `json:"concerts"`
	Performers []Performer `json:"performers"`
	Works      []Work      `json:"works"`
}
