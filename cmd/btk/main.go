// Command btk is the dispatch front of the vanity address search engine:
// it maps a CLI invocation to pattern compilation plus search-coordinator
// lifecycle, and translates SIGINT/SIGTERM into a cooperative stop request
// (spec.md §2, §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "btk",
	Short: "Bitcoin vanity P2PKH address search toolkit",
	Long: `btk searches for Bitcoin private keys whose P2PKH address matches a
user-supplied pattern, using a parallel brute-force worker pool.`,
}

func main() {
	rootCmd.AddCommand(vanityCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(255)
	}
	os.Exit(processExitCode)
}
