// Package registry implements C3: an on-disk key-value lookup from 24-bit
// ICAO hex addresses to registration/type/operator, backed by
// github.com/tidwall/buntdb (grounded on
// _examples/other_examples "maniack-miniflightradar" storage package, which
// keeps a similar embedded-KV aircraft/position store). Every exported
// method opens its own transaction — no caller shares a cursor.
package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/buntdb"

	"github.com/wispayr/radar-core/internal/apierr"
)

// Record is the static identity joined onto an enriched contact.
type Record struct {
	Hex          string `json:"hex"`
	Registration string `json:"registration"`
	TypeCode     string `json:"type_code"`
	Manufacturer string `json:"manufacturer"`
	Operator     string `json:"operator"`
	Owner        string `json:"owner"`
}

const (
	idxRegistration = "registration"
	idxType         = "type_code"
)

// Registry wraps a buntdb file database keyed by ICAO hex.
type Registry struct {
	db *buntdb.DB
}

// Open opens (creating if absent) the registry database at path and
// ensures the registration/type secondary indexes exist.
func Open(path string) (*Registry, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry %q: %w", path, err)
	}
	r := &Registry{db: db}
	if err := r.ensureIndexes(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) ensureIndexes() error {
	if err := r.db.CreateIndex(idxRegistration, "rec:*", buntdb.IndexJSON("registration")); err != nil && err != buntdb.ErrIndexExists {
		return fmt.Errorf("create registration index: %w", err)
	}
	if err := r.db.CreateIndex(idxType, "rec:*", buntdb.IndexJSON("type_code")); err != nil && err != buntdb.ErrIndexExists {
		return fmt.Errorf("create type index: %w", err)
	}
	return nil
}

func key(hex string) string { return "rec:" + strings.ToUpper(hex) }

// Close releases the underlying database file.
func (r *Registry) Close() error { return r.db.Close() }

// Put inserts or replaces a registry record (used by the corpus loader).
func (r *Registry) Put(rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return apierr.New(apierr.ParseError, "registry.Put", err)
	}
	return r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(rec.Hex), string(body), nil)
		return err
	})
}

// Lookup finds a record by ICAO hex. Absence is reported as apierr.NotFound,
// never a bare error, per spec.md §4.3 "absent records return not found
// without error".
func (r *Registry) Lookup(hex string) (Record, error) {
	var rec Record
	err := r.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key(hex))
		if err == buntdb.ErrNotFound {
			return apierr.Sentinel(apierr.NotFound)
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &rec)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// SearchRegistrationPrefix returns records whose registration starts with
// prefix (case-insensitive), wildcard-friendly.
func (r *Registry) SearchRegistrationPrefix(prefix string) ([]Record, error) {
	prefix = strings.ToUpper(prefix)
	var out []Record
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(idxRegistration, func(k, v string) bool {
			var rec Record
			if json.Unmarshal([]byte(v), &rec) == nil && strings.HasPrefix(strings.ToUpper(rec.Registration), prefix) {
				out = append(out, rec)
			}
			return true
		})
	})
	return out, err
}

// SearchType returns records matching an aircraft type code exactly.
func (r *Registry) SearchType(typeCode string) ([]Record, error) {
	typeCode = strings.ToUpper(typeCode)
	var out []Record
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(idxType, func(k, v string) bool {
			var rec Record
			if json.Unmarshal([]byte(v), &rec) == nil && strings.ToUpper(rec.TypeCode) == typeCode {
				out = append(out, rec)
			}
			return true
		})
	})
	return out, err
}
