package main

import (
	"fmt"
	"os"

	"github.com/sarth-shah20/berth/cmd"
)

func main() {
	// All logic lives in the cmd package; main only maps the result to an
	// exit code.
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "berth:", err)
		os.Exit(1)
	}
}
