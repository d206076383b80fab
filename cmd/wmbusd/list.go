package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
	"github.com/wmbusd/wmbusd/internal/wmbus/units"
)

var listMetersCmd = &cobra.Command{
	Use:   "list-meters",
	Short: "List every built-in driver and the meter type it claims to decode",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range driver.All() {
			fmt.Printf("%-14s %-12s fields: %s\n", d.Name, d.MeterType, joinFieldNames(d.Fields))
		}
		return nil
	},
}

var listFieldsCmd = &cobra.Command{
	Use:   "list-fields <driver>",
	Short: "List the fields a driver declares",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, ok := driver.ByName(args[0])
		if !ok {
			return fmt.Errorf("no such driver %q", args[0])
		}
		for _, f := range info.Fields {
			if f.StringLookup != nil {
				fmt.Printf("%-20s %s\n", f.Name, f.Description)
				continue
			}
			fmt.Printf("%-20s %-8s %s\n", f.Name, f.Quantity.DefaultUnit().Name, f.Description)
		}
		return nil
	},
}

var listUnitsCmd = &cobra.Command{
	Use:   "list-units",
	Short: "List every unit of measure wmbusd understands",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, u := range units.All() {
			fmt.Println(u.Name)
		}
		return nil
	},
}

func joinFieldNames(fields []field.Info) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
