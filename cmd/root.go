package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "apalis-tools",
	Short: "Inspect the flash layout of Toradex Apalis/Colibri modules",
	Long: `apalis-tools reads the on-flash data structures of Toradex Apalis and
Colibri (NVIDIA Tegra) modules: the proprietary NVIDIA partition table in
the eMMC boot area, the GPT at the end of the user area, and the Toradex
config block holding factory data.

All access is strictly read-only.

Commands:
  partitions   List Tegra and GPT partition information
  configblock  Read the Toradex config block`,
	Version: "0.1.0",
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"show hexdumps of the decoded structures")
}
