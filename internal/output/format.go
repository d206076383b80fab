package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
	"github.com/wmbusd/wmbusd/internal/wmbus/meter"
)

// Format selects how Printer.Print renders a meter's snapshot,
// matching the three output modes config.cc's handleFormat accepts.
type Format string

const (
	FormatHR     Format = "hr"
	FormatJSON   Format = "json"
	FormatFields Format = "fields"
)

// Printer renders a meter's current field values in one of Format's
// three shapes. The zero value renders FormatHR with the default
// separator.
type Printer struct {
	Format     Format
	PrettyJSON bool
	Separator  rune

	// SelectedFields overrides which fields are printed, in order. A
	// nil slice falls back to the meter's driver's own DefaultFields.
	SelectedFields []string
}

// NewPrinter returns a Printer for format, using separator for
// FormatFields (';' per config.cc's default if separator is 0).
func NewPrinter(format Format, prettyJSON bool, separator rune) *Printer {
	if separator == 0 {
		separator = ';'
	}
	return &Printer{Format: format, PrettyJSON: prettyJSON, Separator: separator}
}

// fieldNames returns the driver fields to print, in order, with the
// synthetic identity/status/timestamp keys Snapshot always sets
// filtered out since those are printed separately.
func (p *Printer) fieldNames(info driver.Info) []string {
	names := p.SelectedFields
	if len(names) == 0 {
		names = info.DefaultFields
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case "name", "id", "meter", "status", "timestamp":
			continue
		default:
			out = append(out, n)
		}
	}
	return out
}

// Print renders m according to p.Format. It returns an error only if m
// was built against a driver that has since vanished from the
// registry, which should not happen outside of tests.
func (p *Printer) Print(m *meter.Meter) (string, error) {
	info, ok := driver.ByName(m.DriverName)
	if !ok {
		return "", fmt.Errorf("output: unknown driver %q", m.DriverName)
	}
	snap := m.Snapshot()
	names := p.fieldNames(*info)

	switch p.Format {
	case FormatJSON:
		return p.printJSON(snap, names)
	case FormatFields:
		return p.printFields(*info, snap, names), nil
	default:
		return p.printHR(*info, snap, names), nil
	}
}

// identityFields lists the keys Snapshot always sets, always printed
// ahead of the driver's own fields. "meter" carries the driver name,
// matching spec's reserved top-level JSON key of the same name.
var identityFields = []string{"name", "id", "meter"}

func orderedSubset(snap map[string]any, names []string) map[string]any {
	out := make(map[string]any, len(names)+4)
	for _, k := range identityFields {
		if v, ok := snap[k]; ok {
			out[k] = v
		}
	}
	for _, n := range names {
		if v, ok := snap[n]; ok {
			out[n] = v
		}
	}
	if v, ok := snap["status"]; ok {
		out["status"] = v
	}
	if v, ok := snap["timestamp"]; ok {
		out["timestamp"] = v
	}
	return out
}

func (p *Printer) printJSON(snap map[string]any, names []string) (string, error) {
	obj := orderedSubset(snap, names)
	var (
		data []byte
		err  error
	)
	if p.PrettyJSON {
		data, err = json.MarshalIndent(obj, "", "  ")
	} else {
		data, err = json.Marshal(obj)
	}
	if err != nil {
		return "", fmt.Errorf("output: marshal snapshot: %w", err)
	}
	return string(data), nil
}

// printFields renders the selected fields in order, separator-joined.
// Every selected name always produces a column — a missing numeric
// field prints the literal "null" rather than shifting later columns,
// per spec's delimited-output contract; a missing string field prints
// empty.
func (p *Printer) printFields(info driver.Info, snap map[string]any, names []string) string {
	byName := make(map[string]field.Info, len(info.Fields))
	for _, f := range info.Fields {
		byName[f.Name] = f
	}

	var parts []string
	for _, k := range identityFields {
		if v, ok := snap[k]; ok {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	for _, n := range names {
		v, ok := snap[n]
		if ok {
			parts = append(parts, fmt.Sprint(v))
			continue
		}
		if byName[n].StringLookup != nil {
			parts = append(parts, "")
		} else {
			parts = append(parts, "null")
		}
	}
	if v, ok := snap["status"]; ok {
		parts = append(parts, fmt.Sprint(v))
	}
	if v, ok := snap["timestamp"]; ok {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, string(p.Separator))
}

// printHR renders a single human-readable line: name and id, then
// "field: value unit" for every selected field in order, then status
// and timestamp. Numeric fields carry their driver-declared display
// unit; string/status fields don't.
func (p *Printer) printHR(info driver.Info, snap map[string]any, names []string) string {
	byName := make(map[string]field.Info, len(info.Fields))
	for _, f := range info.Fields {
		byName[f.Name] = f
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v (%v)", snap["name"], snap["id"])
	for _, n := range names {
		v, ok := snap[n]
		if !ok {
			continue
		}
		fi := byName[n]
		if fi.StringLookup != nil {
			fmt.Fprintf(&b, "  %s: %v", n, v)
			continue
		}
		fmt.Fprintf(&b, "  %s: %v %s", n, v, fi.Quantity.DefaultUnit().Name)
	}
	if status, ok := snap["status"]; ok {
		fmt.Fprintf(&b, "  status: %v", status)
	}
	if ts, ok := snap["timestamp"]; ok {
		fmt.Fprintf(&b, "  timestamp: %v", ts)
	}
	return b.String()
}
