// Command udronectl is the companion CLI for driving udrone agents:
// discovery, assignment, reset, and one-shot command sends over the same
// multicast control plane, adapted from the teacher's cmd/surp tool.
package main

import (
	"os"

	"github.com/blogic/udrone/cmd/udronectl/commands"
)

func main() {
	if err := commands.GetRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
