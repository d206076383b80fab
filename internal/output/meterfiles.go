package output

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/wmbusd/wmbusd/internal/wmbus/meter"
)

// MeterFileStore is the Go analogue of wmbusmeters'
// --meterfiles/--meterfilesaction=append on-disk history: one bbolt
// bucket per meter name, keyed by the reading's UTC RFC3339 timestamp
// so bucket iteration order is chronological.
type MeterFileStore struct {
	db *bolt.DB
}

// OpenMeterFileStore opens (creating if necessary) a bbolt database at
// path for meter history.
func OpenMeterFileStore(path string) (*MeterFileStore, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("output: open meterfiles store %s: %w", path, err)
	}
	return &MeterFileStore{db: db}, nil
}

// Close releases the underlying bbolt database.
func (s *MeterFileStore) Close() error {
	return s.db.Close()
}

// Record appends m's current snapshot to its bucket, creating the
// bucket on first use. A meter with no timestamp yet (no telegram
// applied) is not recorded.
func (s *MeterFileStore) Record(m *meter.Meter) error {
	snap := m.Snapshot()
	ts, ok := snap["timestamp"].(string)
	if !ok {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("output: marshal snapshot for %s: %w", m.Name, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(m.Name))
		if err != nil {
			return err
		}
		return b.Put([]byte(ts), data)
	})
}

// Latest returns the most recently recorded snapshot for meter name,
// the Go equivalent of --meterfilesaction=overwrite's "just the last
// reading" view over the same append-only bucket.
func (s *MeterFileStore) Latest(name string) (map[string]any, bool, error) {
	var (
		snap  map[string]any
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		k, v := b.Cursor().Last()
		if k == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return nil, false, fmt.Errorf("output: read meterfiles for %s: %w", name, err)
	}
	return snap, found, nil
}

// History returns every recorded snapshot for meter name, oldest
// first.
func (s *MeterFileStore) History(name string) ([]map[string]any, error) {
	var out []map[string]any
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var snap map[string]any
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			out = append(out, snap)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("output: read meterfiles history for %s: %w", name, err)
	}
	return out, nil
}
