package main

import (
	"io"
	"os"

	mcli "github.com/mitchellh/cli"

	"github.com/3leaps/mingwup/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole program minus process exit, so tests can drive it.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := stdio{in: stdin, out: stdout, err: stderr}
	commands := map[string]mcli.CommandFactory{
		"list":     func() (mcli.Command, error) { return listCommand(s), nil },
		"download": func() (mcli.Command, error) { return downloadCommand(s), nil },
		"install":  func() (mcli.Command, error) { return installCommand(s), nil },
		"remove":   func() (mcli.Command, error) { return removeCommand(s), nil },
		"add-path": func() (mcli.Command, error) { return addPathCommand(s), nil },
		"watch":    func() (mcli.Command, error) { return watchCommand(s), nil },
		"host":     func() (mcli.Command, error) { return hostCommand(s), nil },
	}
	return cli.Run("mingwup", version, args, commands, stdout, stderr)
}
