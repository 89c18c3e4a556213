package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wispayr/radar-core/internal/ais"
)

// ShipSummary is the per-mmsi rollup, the vessel-side mirror of
// AircraftSummary fed by C6 rather than C5 (SPEC_FULL.md C8 note).
type ShipSummary struct {
	MMSI         int64
	Names        []string
	ContactCount int
	FirstSeen    int64
	LastSeen     int64
	LastLat      *float64
	LastLon      *float64
}

// StoreVessel appends a ship_contacts row and upserts ship_summary,
// mirroring StoreContact's contract for the AIS side.
func (s *Store) StoreVessel(ctx context.Context, v ais.Vessel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := v.LastUpdate.Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO ship_contacts (mmsi, t, lat, lon, sog, cog, name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.MMSI, t, nullFloat(v.Lat), nullFloat(v.Lon), nullFloat(v.SOG), nullFloat(v.COG), v.Name); err != nil {
		return err
	}

	var existing ShipSummary
	var names sql.NullString
	row := tx.QueryRowContext(ctx, `SELECT names, contact_count, first_seen FROM ship_summary WHERE mmsi = ?`, v.MMSI)
	err = row.Scan(&names, &existing.ContactCount, &existing.FirstSeen)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing.FirstSeen = t
	case err != nil:
		return err
	default:
		existing.Names = splitSet(names.String)
	}
	if v.Name != "" {
		existing.Names = addToSet(existing.Names, v.Name)
	}
	existing.ContactCount++
	existing.LastSeen = t

	_, err = tx.ExecContext(ctx, `INSERT INTO ship_summary
		(mmsi, names, contact_count, first_seen, last_seen, last_lat, last_lon)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mmsi) DO UPDATE SET
			names = excluded.names, contact_count = excluded.contact_count,
			last_seen = excluded.last_seen, last_lat = excluded.last_lat, last_lon = excluded.last_lon`,
		v.MMSI, joinSet(existing.Names), existing.ContactCount, existing.FirstSeen, existing.LastSeen,
		nullFloat(v.Lat), nullFloat(v.Lon))
	return err
}

// VesselSummary returns the per-mmsi rollup, or nil if unseen.
func (s *Store) VesselSummary(ctx context.Context, mmsi int64) (*ShipSummary, error) {
	var sum ShipSummary
	sum.MMSI = mmsi
	var names sql.NullString
	var lastLat, lastLon sql.NullFloat64
	row := s.db.QueryRowContext(ctx, `SELECT names, contact_count, first_seen, last_seen, last_lat, last_lon
		FROM ship_summary WHERE mmsi = ?`, mmsi)
	err := row.Scan(&names, &sum.ContactCount, &sum.FirstSeen, &sum.LastSeen, &lastLat, &lastLon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sum.Names = splitSet(names.String)
	sum.LastLat, sum.LastLon = floatPtr(lastLat), floatPtr(lastLon)
	return &sum, nil
}

// VesselHistory returns the chronological ship_contacts list over the past
// hours.
func (s *Store) VesselHistory(ctx context.Context, mmsi int64, hours int) ([]ais.Vessel, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT mmsi, t, lat, lon, sog, cog, name
		FROM ship_contacts WHERE mmsi = ? AND t >= ? ORDER BY t ASC`, mmsi, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ais.Vessel
	for rows.Next() {
		var v ais.Vessel
		var t int64
		var lat, lon, sog, cog sql.NullFloat64
		if err := rows.Scan(&v.MMSI, &t, &lat, &lon, &sog, &cog, &v.Name); err != nil {
			return nil, err
		}
		v.LastUpdate = time.Unix(t, 0)
		v.Lat, v.Lon, v.SOG, v.COG = floatPtr(lat), floatPtr(lon), floatPtr(sog), floatPtr(cog)
		out = append(out, v)
	}
	return out, rows.Err()
}
