package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overwritten at build time via -ldflags.
var Version = "local-build"

// GetVersionCommand prints udronectl's build version, mirroring the
// teacher's commands/version.go.
func GetVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}
}
