// Package cli adapts flag-parsing command functions to mitchellh/cli.
package cli

import (
	"fmt"
	"io"

	mcli "github.com/mitchellh/cli"
)

// Run dispatches args to commands and returns the process exit code.
func Run(name, version string, args []string, commands map[string]mcli.CommandFactory, stdout, stderr io.Writer) int {
	c := mcli.NewCLI(name, version)
	c.Args = args
	c.Commands = commands
	c.HelpWriter = stdout
	c.ErrorWriter = stderr

	code, err := c.Run()
	if err != nil {
		fmt.Fprintf(stderr, "! Error: %v\n", err)
		return 1
	}
	return code
}
