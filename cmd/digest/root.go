// digest is the main CLI: generate, send, serve, freshness, geodata.
//
// Usage:
//
//	digest generate [--days=7] [--min-units=1] [--html] [--profile=<path>] [-o <path>]
//	digest send [--days=1] [--frequency=daily] [--dry-run]
//	digest serve [--interval=1h]
//	digest freshness
//	digest geodata
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "digest",
	Short: "Philadelphia development digest generator",
	Long: "Builds digests of new construction permits and zoning variance\n" +
		"applications from the city's L&I open data, enriched with unit counts\n" +
		"and neighborhood boundaries.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(freshnessCmd)
	rootCmd.AddCommand(geodataCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
