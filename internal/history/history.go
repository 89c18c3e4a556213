// Package history implements C8: the append-only historical store behind
// the five relations of spec.md §4.8, backed by modernc.org/sqlite the way
// the pack's flight-ingestor example drives a relational store with
// database/sql — generalized here from Postgres to the teacher-adjacent
// embedded-sqlite convention used throughout this module (buntdb for the
// registry, sqlite for time-series history).
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wispayr/radar-core/internal/aircraft"
)

// Store is C8: single-writer/many-reader discipline enforced by mu, per
// spec.md §4.8's concurrency discipline note.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS aircraft_contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hex TEXT NOT NULL,
	t INTEGER NOT NULL,
	callsign TEXT,
	squawk TEXT,
	phase TEXT,
	lat REAL,
	lon REAL,
	alt_baro REAL,
	ground_speed REAL
);
CREATE INDEX IF NOT EXISTS idx_contacts_hex_t ON aircraft_contacts(hex, t);
CREATE INDEX IF NOT EXISTS idx_contacts_t ON aircraft_contacts(t);
CREATE INDEX IF NOT EXISTS idx_contacts_callsign ON aircraft_contacts(callsign);

CREATE TABLE IF NOT EXISTS aircraft_summary (
	hex TEXT PRIMARY KEY,
	callsigns TEXT,
	phases TEXT,
	squawks TEXT,
	min_alt REAL,
	max_alt REAL,
	contact_count INTEGER,
	first_seen INTEGER,
	last_seen INTEGER,
	last_lat REAL,
	last_lon REAL
);

CREATE TABLE IF NOT EXISTS ship_contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mmsi INTEGER NOT NULL,
	t INTEGER NOT NULL,
	lat REAL,
	lon REAL,
	sog REAL,
	cog REAL,
	name TEXT
);
CREATE INDEX IF NOT EXISTS idx_ship_contacts_mmsi_t ON ship_contacts(mmsi, t);

CREATE TABLE IF NOT EXISTS ship_summary (
	mmsi INTEGER PRIMARY KEY,
	names TEXT,
	contact_count INTEGER,
	first_seen INTEGER,
	last_seen INTEGER,
	last_lat REAL,
	last_lon REAL
);

CREATE TABLE IF NOT EXISTS flight_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hex TEXT NOT NULL,
	t INTEGER NOT NULL,
	event_kind TEXT NOT NULL,
	detail TEXT,
	lat REAL,
	lon REAL,
	alt REAL,
	squawk TEXT,
	UNIQUE(hex, t, event_kind)
);
CREATE INDEX IF NOT EXISTS idx_events_kind ON flight_events(event_kind);

CREATE TABLE IF NOT EXISTS performance_stats (
	metric TEXT PRIMARY KEY,
	value REAL,
	updated_at INTEGER
);
`

// Open creates/opens the sqlite database at path and ensures schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Event is a detected flight_events row. Lat/Lon/Alt/Squawk mirror spec.md
// §3's FlightEvent fields and are populated from the triggering contact
// (or, for LOST_CONTACT, from the aircraft's last known summary position).
type Event struct {
	Hex    string
	T      int64
	Kind   string
	Detail string
	Lat    *float64
	Lon    *float64
	Alt    *float64
	Squawk string
}

// AircraftSummary is the per-hex rollup maintained by StoreContact.
type AircraftSummary struct {
	Hex          string
	Callsigns    []string
	Phases       []string
	Squawks      []string
	MinAlt       float64
	MaxAlt       float64
	ContactCount int
	FirstSeen    int64
	LastSeen     int64
	LastLat      *float64
	LastLon      *float64
}

// ActiveAircraft is one row of the active() contract.
type ActiveAircraft struct {
	Hex      string
	LastSeen int64
	Callsign string
	Lat, Lon *float64
	Alt      *float64
}

const recentWindowSeconds = 300

// StoreContact appends a contact row, upserts the per-hex summary, and runs
// the event detector, all inside one transaction (spec.md §4.8).
func (s *Store) StoreContact(ctx context.Context, c aircraft.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO aircraft_contacts
		(hex, t, callsign, squawk, phase, lat, lon, alt_baro, ground_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Hex, c.T, c.Callsign, c.Squawk, c.Phase,
		nullFloat(c.Lat), nullFloat(c.Lon), nullFloat(c.AltBaro), nullFloat(c.GroundSpeed)); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	recent, err := s.recentContacts(ctx, tx, c.Hex, c.T)
	if err != nil {
		return fmt.Errorf("load recent contacts: %w", err)
	}

	if err := s.upsertSummary(ctx, tx, c); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}

	for _, ev := range detectEvents(c, recent) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO flight_events
			(hex, t, event_kind, detail, lat, lon, alt, squawk) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.Hex, ev.T, ev.Kind, ev.Detail, nullFloat(ev.Lat), nullFloat(ev.Lon), nullFloat(ev.Alt), ev.Squawk); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

type recentPoint struct {
	alt *float64
}

func (s *Store) recentContacts(ctx context.Context, tx *sql.Tx, hex string, t int64) ([]recentPoint, error) {
	rows, err := tx.QueryContext(ctx, `SELECT alt_baro FROM aircraft_contacts
		WHERE hex = ? AND t >= ? AND t < ? ORDER BY t DESC LIMIT 5`,
		hex, t-recentWindowSeconds, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []recentPoint
	for rows.Next() {
		var alt sql.NullFloat64
		if err := rows.Scan(&alt); err != nil {
			return nil, err
		}
		var p recentPoint
		if alt.Valid {
			v := alt.Float64
			p.alt = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// detectEvents mirrors spec.md §4.8's event detector, given the last five
// contacts for this hex within the past 300s. Every emitted Event carries
// the triggering contact's position/altitude/squawk, per spec.md §3's
// FlightEvent fields.
func detectEvents(c aircraft.Contact, recent []recentPoint) []Event {
	var out []Event

	if c.Squawk == "7500" || c.Squawk == "7600" || c.Squawk == "7700" {
		out = append(out, Event{
			Hex: c.Hex, T: c.T, Kind: "EMERGENCY_SQUAWK", Detail: c.Squawk,
			Lat: c.Lat, Lon: c.Lon, Alt: c.AltBaro, Squawk: c.Squawk,
		})
	}

	if c.AltBaro != nil {
		var recentMin *float64
		var recentMax *float64
		for _, p := range recent {
			if p.alt == nil {
				continue
			}
			if recentMin == nil || *p.alt < *recentMin {
				v := *p.alt
				recentMin = &v
			}
			if recentMax == nil || *p.alt > *recentMax {
				v := *p.alt
				recentMax = &v
			}
		}
		if recentMin != nil && *recentMin < 500 && *c.AltBaro > 1000 && *c.AltBaro-*recentMin > 800 {
			out = append(out, Event{
				Hex: c.Hex, T: c.T, Kind: "TAKEOFF",
				Lat: c.Lat, Lon: c.Lon, Alt: c.AltBaro, Squawk: c.Squawk,
			})
		}
		if recentMax != nil && *recentMax > 2000 && *c.AltBaro < 500 {
			out = append(out, Event{
				Hex: c.Hex, T: c.T, Kind: "LANDING",
				Lat: c.Lat, Lon: c.Lon, Alt: c.AltBaro, Squawk: c.Squawk,
			})
		}
	}

	return out
}

func (s *Store) upsertSummary(ctx context.Context, tx *sql.Tx, c aircraft.Contact) error {
	var existing AircraftSummary
	var callsigns, phases, squawks sql.NullString
	var minAlt, maxAlt sql.NullFloat64
	row := tx.QueryRowContext(ctx, `SELECT callsigns, phases, squawks, min_alt, max_alt, contact_count, first_seen
		FROM aircraft_summary WHERE hex = ?`, c.Hex)
	err := row.Scan(&callsigns, &phases, &squawks, &minAlt, &maxAlt, &existing.ContactCount, &existing.FirstSeen)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing.FirstSeen = c.T
		existing.ContactCount = 0
	case err != nil:
		return err
	default:
		existing.Callsigns = splitSet(callsigns.String)
		existing.Phases = splitSet(phases.String)
		existing.Squawks = splitSet(squawks.String)
		existing.MinAlt = minAlt.Float64
		existing.MaxAlt = maxAlt.Float64
	}

	if c.Callsign != "" {
		existing.Callsigns = addToSet(existing.Callsigns, c.Callsign)
	}
	if c.Phase != "" {
		existing.Phases = addToSet(existing.Phases, c.Phase)
	}
	if c.Squawk != "" {
		existing.Squawks = addToSet(existing.Squawks, c.Squawk)
	}
	if c.AltBaro != nil {
		if existing.MinAlt == 0 || *c.AltBaro < existing.MinAlt {
			existing.MinAlt = *c.AltBaro
		}
		if *c.AltBaro > existing.MaxAlt {
			existing.MaxAlt = *c.AltBaro
		}
	}
	existing.ContactCount++
	existing.LastSeen = c.T

	_, err = tx.ExecContext(ctx, `INSERT INTO aircraft_summary
		(hex, callsigns, phases, squawks, min_alt, max_alt, contact_count, first_seen, last_seen, last_lat, last_lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hex) DO UPDATE SET
			callsigns = excluded.callsigns, phases = excluded.phases, squawks = excluded.squawks,
			min_alt = excluded.min_alt, max_alt = excluded.max_alt, contact_count = excluded.contact_count,
			last_seen = excluded.last_seen, last_lat = excluded.last_lat, last_lon = excluded.last_lon`,
		c.Hex, joinSet(existing.Callsigns), joinSet(existing.Phases), joinSet(existing.Squawks),
		existing.MinAlt, existing.MaxAlt, existing.ContactCount, existing.FirstSeen, existing.LastSeen,
		nullFloat(c.Lat), nullFloat(c.Lon))
	return err
}

// History returns the chronological contact list for hex over the past
// hours.
func (s *Store) History(ctx context.Context, hex string, hours int) ([]aircraft.Contact, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT hex, t, callsign, squawk, phase, lat, lon, alt_baro, ground_speed
		FROM aircraft_contacts WHERE hex = ? AND t >= ? ORDER BY t ASC`, hex, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []aircraft.Contact
	for rows.Next() {
		var c aircraft.Contact
		var lat, lon, alt, gs sql.NullFloat64
		if err := rows.Scan(&c.Hex, &c.T, &c.Callsign, &c.Squawk, &c.Phase, &lat, &lon, &alt, &gs); err != nil {
			return nil, err
		}
		c.Lat = floatPtr(lat)
		c.Lon = floatPtr(lon)
		c.AltBaro = floatPtr(alt)
		c.GroundSpeed = floatPtr(gs)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Summary returns the per-hex rollup, or nil if hex has never been seen.
func (s *Store) Summary(ctx context.Context, hex string) (*AircraftSummary, error) {
	var sum AircraftSummary
	sum.Hex = hex
	var callsigns, phases, squawks sql.NullString
	var minAlt, maxAlt, lastLat, lastLon sql.NullFloat64
	row := s.db.QueryRowContext(ctx, `SELECT callsigns, phases, squawks, min_alt, max_alt, contact_count, first_seen, last_seen, last_lat, last_lon
		FROM aircraft_summary WHERE hex = ?`, hex)
	err := row.Scan(&callsigns, &phases, &squawks, &minAlt, &maxAlt, &sum.ContactCount, &sum.FirstSeen, &sum.LastSeen, &lastLat, &lastLon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sum.Callsigns = splitSet(callsigns.String)
	sum.Phases = splitSet(phases.String)
	sum.Squawks = splitSet(squawks.String)
	sum.MinAlt, sum.MaxAlt = minAlt.Float64, maxAlt.Float64
	sum.LastLat = floatPtr(lastLat)
	sum.LastLon = floatPtr(lastLon)
	return &sum, nil
}

// Events returns matching flight_events, newest first. Empty hex/kind match
// any value.
func (s *Store) Events(ctx context.Context, hex, kind string, hours int) ([]Event, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
	query := `SELECT hex, t, event_kind, detail, lat, lon, alt, squawk FROM flight_events WHERE t >= ?`
	args := []any{since}
	if hex != "" {
		query += " AND hex = ?"
		args = append(args, hex)
	}
	if kind != "" {
		query += " AND event_kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY t DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var detail, squawk sql.NullString
		var lat, lon, alt sql.NullFloat64
		if err := rows.Scan(&e.Hex, &e.T, &e.Kind, &detail, &lat, &lon, &alt, &squawk); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		e.Squawk = squawk.String
		e.Lat, e.Lon, e.Alt = floatPtr(lat), floatPtr(lon), floatPtr(alt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Active returns aircraft whose last_seen falls within the past minutes.
func (s *Store) Active(ctx context.Context, minutes int) ([]ActiveAircraft, error) {
	since := time.Now().Add(-time.Duration(minutes) * time.Minute).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT hex, last_seen, callsigns, last_lat, last_lon
		FROM aircraft_summary WHERE last_seen >= ? ORDER BY last_seen DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveAircraft
	for rows.Next() {
		var a ActiveAircraft
		var callsigns sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&a.Hex, &a.LastSeen, &callsigns, &lat, &lon); err != nil {
			return nil, err
		}
		if set := splitSet(callsigns.String); len(set) > 0 {
			a.Callsign = set[len(set)-1]
		}
		a.Lat, a.Lon = floatPtr(lat), floatPtr(lon)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Cleanup deletes contacts older than days, recomputes first_seen on
// surviving summaries, and drops summaries with no remaining contacts.
// Returns the number of contact rows deleted.
func (s *Store) Cleanup(ctx context.Context, days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM aircraft_contacts WHERE t < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	deleted, _ := res.RowsAffected()

	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT hex FROM aircraft_summary`)
	if err != nil {
		return 0, err
	}
	var hexes []string
	for rows.Next() {
		var hex string
		if err := rows.Scan(&hex); err != nil {
			rows.Close()
			return 0, err
		}
		hexes = append(hexes, hex)
	}
	rows.Close()

	for _, hex := range hexes {
		var minT, count sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MIN(t), COUNT(*) FROM aircraft_contacts WHERE hex = ?`, hex).Scan(&minT, &count); err != nil {
			return 0, err
		}
		if !count.Valid || count.Int64 == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM aircraft_summary WHERE hex = ?`, hex); err != nil {
				return 0, err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE aircraft_summary SET first_seen = ? WHERE hex = ?`, minT.Int64, hex); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// DetectLostContacts scans aircraft_summary for aircraft whose last_seen
// exceeds threshold and emits a LOST_CONTACT event for each, per spec.md
// §4.8's "reported by a separate janitor when a previously active
// aircraft's last_seen exceeds a threshold." Idempotent: the event is keyed
// on (hex, last_seen, "LOST_CONTACT"), so re-running the janitor while an
// aircraft stays silent never produces a duplicate row. Returns the number
// of new events emitted.
func (s *Store) DetectLostContacts(ctx context.Context, threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-threshold).Unix()

	rows, err := s.db.QueryContext(ctx, `SELECT hex, last_seen, last_lat, last_lon
		FROM aircraft_summary WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	type lost struct {
		hex          string
		lastSeen     int64
		lat, lon     sql.NullFloat64
	}
	var candidates []lost
	for rows.Next() {
		var l lost
		if err := rows.Scan(&l.hex, &l.lastSeen, &l.lat, &l.lon); err != nil {
			rows.Close()
			return 0, err
		}
		candidates = append(candidates, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	emitted := 0
	for _, l := range candidates {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO flight_events
			(hex, t, event_kind, detail, lat, lon) VALUES (?, ?, 'LOST_CONTACT', ?, ?, ?)`,
			l.hex, l.lastSeen, fmt.Sprintf("last seen at %d", l.lastSeen), floatOrNil(l.lat), floatOrNil(l.lon))
		if err != nil {
			return emitted, fmt.Errorf("insert lost_contact event: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			emitted++
		}
	}

	if err := tx.Commit(); err != nil {
		return emitted, err
	}
	return emitted, nil
}

func floatOrNil(n sql.NullFloat64) any {
	if !n.Valid {
		return nil
	}
	return n.Float64
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func splitSet(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func joinSet(set []string) string {
	return strings.Join(set, ",")
}

func addToSet(set []string, v string) []string {
	for _, existing := range set {
		if existing == v {
			return set
		}
	}
	set = append(set, v)
	sort.Strings(set)
	return set
}
