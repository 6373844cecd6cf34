package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Overridden at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// Cmd represents the version command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("m3p %s (%s, %s/%s)\n", Version, Commit, runtime.GOOS, runtime.GOARCH)
	},
}
