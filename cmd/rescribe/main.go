package main

import (
	"fmt"
	"os"

	"github.com/roach88/rescribe/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		// Commands silence cobra's own error printing; report here with
		// the exit code the error carries.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
