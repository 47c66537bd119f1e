// Command mentor is the entry point for the StudyLoop course mentor.
// It provides a CLI interface (via Cobra) and an HTTP API for semantic
// search and retrieval-augmented answers over course material.
package main

import (
	"fmt"
	"os"

	"github.com/studyloop/mentor-go/cmd/mentor/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
