// Command structq validates CUE table schemas and renders, migrates and
// queries the tables they define.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/structq/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; anything else is a usage or
	// config error cobra returned before a command ran.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
