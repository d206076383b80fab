// Wmbusd-analyze is a standalone utility for decoding one wmbus/mbus
// telegram and reporting which built-in driver best explains it.
//
// Usage:
//
//	wmbusd-analyze <hex telegram> [--key <hex key>] [--driver <name>]
//
// This is the same analysis 'wmbusd analyze' performs, split into its
// own binary for use in scripts and CI without pulling in the full
// daemon's serial/MQTT/bbolt dependencies.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	_ "github.com/wmbusd/wmbusd/internal/wmbus/drivers"

	"github.com/wmbusd/wmbusd/internal/version"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	keyHex      string
	forceDriver string
	bestEffort  bool
)

var rootCmd = &cobra.Command{
	Use:     "wmbusd-analyze <hex telegram>",
	Short:   "Decode one telegram and report which driver best explains it",
	Args:    cobra.ExactArgs(1),
	Version: version.Version,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded AES decryption key, if the telegram is encrypted")
	rootCmd.Flags().StringVar(&forceDriver, "driver", "", "also score this specific driver by name")
	rootCmd.Flags().BoolVar(&bestEffort, "best-effort", true, "relax the DLL control-field whitelist")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(strings.ReplaceAll(args[0], " ", ""))
	if err != nil {
		return fmt.Errorf("decoding hex telegram: %w", err)
	}

	var key []byte
	if keyHex != "" {
		key, err = hex.DecodeString(keyHex)
		if err != nil {
			return fmt.Errorf("decoding key: %w", err)
		}
	}

	tg := telegram.Parse(raw, key, bestEffort)
	fmt.Printf("mfct=0x%04x id=%s version=0x%02x media=0x%02x understood=%v\n",
		tg.DLL.Mfct, tg.DLL.IdString(), tg.DLL.Version, tg.DLL.Media, tg.Understood)
	if tg.Problem != nil {
		fmt.Printf("problem: %s\n", tg.Problem.Reason)
	}

	if auto, ok := driver.DetectByTriple(tg.DLL.Mfct, tg.DLL.Version, tg.DLL.Media); ok {
		fmt.Printf("auto-detected: %s (%s)\n", auto.Name, auto.MeterType)
	} else {
		fmt.Println("auto-detected: none (no driver claims this mfct/version/media triple)")
	}

	results := driver.Analyze(tg.Entries)
	sort.Slice(results, func(i, j int) bool { return results[i].MatchedEntries > results[j].MatchedEntries })
	fmt.Println("best-by-score:")
	for i, r := range results {
		if i >= 5 {
			break
		}
		fmt.Printf("  %-14s %d/%d entries matched\n", r.Driver, r.MatchedEntries, r.TotalEntries)
	}

	if forceDriver != "" {
		info, ok := driver.ByName(forceDriver)
		if !ok {
			return fmt.Errorf("no such driver %q", forceDriver)
		}
		matched := 0
		for _, e := range tg.Entries {
			for _, f := range info.Fields {
				if f.Matcher.Matches(e) {
					matched++
					break
				}
			}
		}
		fmt.Printf("forced %s: %d/%d entries matched\n", forceDriver, matched, len(tg.Entries))
	}

	return nil
}
