package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the askdocs version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(versionString(versionShort))
	},
}

func versionString(short bool) string {
	if short {
		return version
	}
	return fmt.Sprintf("askdocs %s, built with %s for %s/%s", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print the version number alone")
	rootCmd.AddCommand(versionCmd)
}
