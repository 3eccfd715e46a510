// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var registryPath string

var rootCmd = &cobra.Command{
	Use:   "registry-updater",
	Short: "Inspect and edit the mealmatch activity registry",
	Long: `registry-updater keeps configs/activity-registry.json in line with the
workers that the worker manager registers. The worker manager compiles
each activity's inputSchema at startup, so a broken registry only shows
up there as a warning. Run "registry-updater validate" in CI instead.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&registryPath, "path", "p", "configs/activity-registry.json",
		"path to the activity registry")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(setCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
