// sketchd is the SketchDuel backend: the HTTP API that arbitrates rounds
// between a human player and an AI vision model, plus operational commands
// for the daily analytics rollup and deck seeding.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
