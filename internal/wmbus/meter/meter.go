package meter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wmbusd/wmbusd/internal/wmbus/address"
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

// Meter is one configured meter instance: an identity expression, the
// driver it was matched to, its decryption key, and the field values
// accumulated from telegrams seen so far.
type Meter struct {
	mu sync.RWMutex

	Name         string
	Expression   address.Expression
	DriverName   string
	Key          []byte
	PollInterval time.Duration

	index        int
	numUpdates   int
	lastReceived time.Time
	values       map[string]float64
	strings      map[string]string
	statusParts  []string
}

// New constructs a Meter bound to the named driver. name must already be
// registered in package driver; New returns an error otherwise so
// configuration mistakes surface at startup rather than at first
// telegram.
func New(name string, expr address.Expression, driverName string, key []byte, pollInterval time.Duration) (*Meter, error) {
	if _, ok := driver.ByName(driverName); !ok {
		return nil, fmt.Errorf("meter: unknown driver %q", driverName)
	}
	return &Meter{
		Name:         name,
		Expression:   expr,
		DriverName:   driverName,
		Key:          key,
		PollInterval: pollInterval,
		values:       map[string]float64{},
		strings:      map[string]string{},
	}, nil
}

// NumUpdates reports how many telegrams have successfully updated this
// meter's fields.
func (m *Meter) NumUpdates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.numUpdates
}

// ApplyTelegram extracts every field the meter's driver declares from tg
// and stores the results. A telegram tg flagged Understood=false is
// ignored without error: the caller is responsible for logging the
// underlying Problem once per signature.
func (m *Meter) ApplyTelegram(tg *telegram.Telegram) error {
	if tg == nil || !tg.Understood {
		return nil
	}
	info, ok := driver.ByName(m.DriverName)
	if !ok {
		return fmt.Errorf("meter: driver %q vanished from the registry", m.DriverName)
	}

	entries := tg.Entries
	if info.ProcessContent != nil {
		extra := info.ProcessContent(tg.RawFrame)
		entries = append(append([]dif.Entry{}, entries...), extra...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var statusParts []string
	for _, f := range info.Fields {
		if f.IsDateTimeString {
			s, ok := f.ExtractDateTimeString(entries)
			if !ok {
				continue
			}
			m.strings[f.Name] = s
			continue
		}
		if f.IsTextField {
			s, ok := f.ExtractText(entries)
			if !ok {
				continue
			}
			m.strings[f.Name] = s
			continue
		}
		if f.StringLookup != nil {
			s, ok := f.ExtractString(entries, tg.TPL.Status)
			if !ok {
				continue
			}
			m.strings[f.Name] = s
			if f.Props.Has(field.PropJoinIntoStatus) {
				statusParts = appendStatus(statusParts, s)
			}
			continue
		}
		if f.Calculator != nil {
			v, ok := f.Calculator(m.getLocked)
			if !ok {
				continue
			}
			m.values[f.Name] = v
			continue
		}
		v, ok := f.Extract(entries)
		if !ok {
			continue
		}
		m.values[f.Name] = v
		if f.Quantity == field.QuantityPointInTime {
			if s, ok := f.FormatPointInTime(entries); ok {
				m.strings[f.Name] = s
			}
		}
	}
	if len(statusParts) > 0 {
		m.statusParts = statusParts
	}

	m.numUpdates++
	m.lastReceived = time.Now()
	return nil
}

// appendStatus appends s to parts with de-duplication and "OK" collapse:
// once any real condition has been recorded, a later "OK" contributes
// nothing, and duplicates are dropped.
func appendStatus(parts []string, s string) []string {
	if s == "" {
		return parts
	}
	if s == "OK" {
		if len(parts) == 0 {
			return []string{"OK"}
		}
		return parts
	}
	if len(parts) == 1 && parts[0] == "OK" {
		parts = parts[:0]
	}
	for _, p := range parts {
		if p == s {
			return parts
		}
	}
	return append(parts, s)
}

// getLocked is the get callback Calculator functions receive; it must
// only be called while m.mu is already held (from ApplyTelegram).
func (m *Meter) getLocked(name string) (float64, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Value returns the current value of a numeric field.
func (m *Meter) Value(name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// StringValue returns the current value of a string/status field.
func (m *Meter) StringValue(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.strings[name]
	return v, ok
}

// Snapshot returns a point-in-time copy of every field this meter has
// populated, safe to hand to an output formatter without holding any
// lock.
func (m *Meter) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.values)+len(m.strings)+2)
	for k, v := range m.values {
		out[k] = v
	}
	for k, v := range m.strings {
		out[k] = v
	}
	out["name"] = m.Name
	out["id"] = m.Expression.String()
	out["meter"] = m.DriverName
	if !m.lastReceived.IsZero() {
		out["timestamp"] = m.lastReceived.UTC().Format(time.RFC3339)
	}
	if len(m.statusParts) > 0 {
		out["status"] = strings.Join(m.statusParts, " ")
	}
	return out
}
