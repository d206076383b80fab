package drivers

import (
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

// init registers the "auto" driver: a synthetic driver that the config
// parser assigns to a meter whose configuration names no driver, per
// spec.md §9. It declares no detection triples of its own and no fields,
// so a meter using it prints only name, id and timestamp; it does not
// print mfct, media or version.
func init() {
	driver.Register(driver.Info{
		Name:          "auto",
		MeterType:     "UnknownMeter",
		DefaultFields: []string{"name", "id", "timestamp"},
		Fields:        []field.Info{},
	})
}
