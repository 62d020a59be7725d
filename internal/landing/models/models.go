package models

import (
	"encoding/json"
	"time"
)

// Source identifies which external registry feed a landing came from.
type Source string

const (
	// SourceDeclaration is the authoritative landing record for larger vessels.
	SourceDeclaration Source = "declaration"
	// SourceELog is the electronic-log fallback used before a declaration exists.
	SourceELog Source = "elog"
	// SourceCatchActivity is the single feed for vessels under ten metres.
	SourceCatchActivity Source = "catchActivity"
)

// CatchItem is one species line within a landing.
type CatchItem struct {
	Species      string  `json:"species"`
	State        string  `json:"state"`
	Presentation string  `json:"presentation"`
	Weight       float64 `json:"weight"`
	Factor       float64 `json:"factor"`
}

// Equal reports value equality on the full five-tuple.
func (c CatchItem) Equal(other CatchItem) bool {
	return c.Species == other.Species &&
		c.State == other.State &&
		c.Presentation == other.Presentation &&
		c.Weight == other.Weight &&
		c.Factor == other.Factor
}

// Landing is a recorded catch event for a vessel at an instant. Uniqueness is
// enforced on (PLN, LandedAt); same-day all-midnight batches are disambiguated
// by millisecond offsets before persistence.
type Landing struct {
	PLN              string      `json:"pln"`
	LandedAt         time.Time   `json:"landedAt"`
	Source           Source      `json:"source"`
	Items            []CatchItem `json:"items"`
	FirstRetrievedAt time.Time   `json:"firstRetrievedAt"`
}

// Key is the persistence key for a landing.
type Key struct {
	PLN      string
	LandedAt time.Time
}

func (l Landing) Key() Key {
	return Key{PLN: l.PLN, LandedAt: l.LandedAt}
}

// Day returns the UTC calendar day the landing falls on.
func (l Landing) Day() time.Time {
	return DayOf(l.LandedAt)
}

// DayKey addresses all landings for one vessel on one UTC day. Batch range
// queries take a set of these.
type DayKey struct {
	PLN  string
	Date time.Time
}

// DayOf truncates t to the start of its UTC calendar day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWindow returns the inclusive [start-of-day, end-of-day] UTC bounds for t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := DayOf(t)
	return start, start.Add(24*time.Hour - time.Millisecond)
}

// RecordKind distinguishes raw audit payloads.
type RecordKind string

const (
	KindLandings   RecordKind = "landings"
	KindSalesNotes RecordKind = "salesNotes"
)

// ExtendedValidationRecord is an audit snapshot of a raw registry payload,
// keyed by (PLN, date, kind) with last-write-wins upsert semantics. Validation
// logic never reads it; it exists for investigations.
type ExtendedValidationRecord struct {
	PLN       string          `json:"pln"`
	Date      time.Time       `json:"date"`
	Kind      RecordKind      `json:"kind"`
	Raw       json.RawMessage `json:"raw"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
