package driver

import (
	"fmt"
	"sync"

	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

// wildcard marks a Detection triple component that matches any value.
const wildcard = -1

// Detection is one (manufacturer, version, media) triple a driver claims.
// Version or Media may be wildcard to match any value in that slot.
type Detection struct {
	Mfct    uint16
	Version int
	Media   int
}

func (d Detection) matches(mfct uint16, version, media byte) bool {
	if d.Mfct != mfct {
		return false
	}
	if d.Version != wildcard && byte(d.Version) != version {
		return false
	}
	if d.Media != wildcard && byte(d.Media) != media {
		return false
	}
	return true
}

// Info is one registered driver: its identity, detection triples, and
// ordered field declarations.
type Info struct {
	Name          string
	MeterType     string
	DefaultFields []string
	LinkModes     []string
	Detections    []Detection
	Fields        []field.Info

	// ProcessContent decodes a manufacturer-specific payload shape that
	// the generic DV walk cannot interpret (a packed record, or a
	// scrambled/LFSR-obfuscated body), returning synthetic dif.Entry
	// values the regular field Matchers can then claim. Nil for drivers
	// whose entire payload is standard DV records.
	ProcessContent func(rawAPL []byte) []dif.Entry
}

// FieldByName returns the driver's declared field with the given name,
// used by calculated fields to look up their inputs.
func (i *Info) FieldByName(name string) (field.Info, bool) {
	for _, f := range i.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return field.Info{}, false
}

var (
	mu       sync.Mutex
	byName   = map[string]*Info{}
	ordered  []*Info
)

// Register adds a driver to the registry; it is called from an init()
// function in a drivers/*.go file. Drivers that share a detection triple
// are all kept, and DetectByTriple returns the first one registered.
// Registering the same name twice panics.
func Register(info Info) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := byName[info.Name]; exists {
		panic(fmt.Sprintf("driver: %q registered twice", info.Name))
	}
	byName[info.Name] = &info
	ordered = append(ordered, &info)
}

// ByName looks up a registered driver by its declared name.
func ByName(name string) (*Info, bool) {
	mu.Lock()
	defer mu.Unlock()
	d, ok := byName[name]
	return d, ok
}

// DetectByTriple returns the first-registered driver whose Detections
// include a match for (mfct, version, media), in registration order.
func DetectByTriple(mfct uint16, version, media byte) (*Info, bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range ordered {
		for _, det := range d.Detections {
			if det.matches(mfct, version, media) {
				return d, true
			}
		}
	}
	return nil, false
}

// All returns every registered driver in registration order.
func All() []*Info {
	mu.Lock()
	defer mu.Unlock()
	out := make([]*Info, len(ordered))
	copy(out, ordered)
	return out
}

// AnalyzeResult is the per-driver score produced by Analyze: how many of
// a telegram's DV-entries this driver's fields were able to claim.
type AnalyzeResult struct {
	Driver          string
	MatchedEntries  int
	TotalEntries    int
}

// Analyze scores every registered driver against entries, used by the
// analyze-mode CLI to report which built-in driver best explains an
// unrecognized telegram.
func Analyze(entries []dif.Entry) []AnalyzeResult {
	var results []AnalyzeResult
	for _, d := range All() {
		matched := 0
		for _, e := range entries {
			for _, f := range d.Fields {
				if f.Matcher.Matches(e) {
					matched++
					break
				}
			}
		}
		results = append(results, AnalyzeResult{Driver: d.Name, MatchedEntries: matched, TotalEntries: len(entries)})
	}
	return results
}
