// Command flatbind generates flat C bindings for C++ libraries.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/flatbind/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
