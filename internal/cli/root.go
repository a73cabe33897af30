// Package cli wires Marlin's cobra command surface: one command per
// verb (spec §6), global --verbose/--format switches, and the
// auto-safety-snapshot-before-mutation policy (spec §4.6).
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	outputFmt  string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marlin",
	Short: "Marlin is a local-first metadata indexer",
	Long: `Marlin indexes a set of directories into a local SQLite store: paths,
hierarchical tags, key/value attributes, typed links between files, named
collections, and saved searches, all queryable through a small text DSL
and kept live by a filesystem watcher.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput = outputFmt == "json"
		if !verbose {
			log.SetFlags(0)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "raise log level")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", `output format: "text" or "json"`)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// fail renders err (respecting --format=json) and returns an empty
// error so cobra exits nonzero without also printing its own
// usage-and-error banner on top of ours.
func fail(err error) error {
	outputError(err)
	return fmt.Errorf("")
}
