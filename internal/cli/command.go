package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	mcli "github.com/mitchellh/cli"
	"github.com/spf13/pflag"

	"github.com/3leaps/mingwup/internal/model"
	"github.com/3leaps/mingwup/internal/progress"
)

// Func runs a command after its flags are parsed. args holds the
// positional arguments.
type Func func(ctx context.Context, args []string) error

// Cmd is a mitchellh/cli command whose flags live in a pflag set.
type Cmd struct {
	name     string
	synopsis string
	usage    string
	flags    *pflag.FlagSet
	run      Func

	// Stderr receives errors and progress bars.
	Stderr io.Writer
	// Progress reports, after flags are parsed, whether to draw progress
	// bars on Stderr. Nil means always.
	Progress func() bool
}

var _ mcli.Command = (*Cmd)(nil)

// New builds a command. usage is the argument summary shown in help, e.g.
// "[options] <file|version>".
func New(name, synopsis, usage string, flags *pflag.FlagSet, run Func) *Cmd {
	if flags == nil {
		flags = pflag.NewFlagSet(name, pflag.ContinueOnError)
	}
	flags.SetOutput(io.Discard)
	return &Cmd{
		name:     name,
		synopsis: synopsis,
		usage:    usage,
		flags:    flags,
		run:      run,
		Stderr:   os.Stderr,
	}
}

func (c *Cmd) Synopsis() string { return c.synopsis }

func (c *Cmd) Help() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: mingwup %s %s\n\n  %s\n", c.name, c.usage, c.synopsis)
	if c.flags.HasFlags() {
		sb.WriteString("\nOptions:\n\n")
		sb.WriteString(c.flags.FlagUsages())
	}
	return sb.String()
}

func (c *Cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return mcli.RunResultHelp
		}
		fmt.Fprintf(c.Stderr, "! Error: %v\n", err)
		return mcli.RunResultHelp
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Progress == nil || c.Progress() {
		ctx = progress.Open(ctx, c.Stderr)
	}

	err := c.run(ctx, c.flags.Args())
	if err == nil {
		return 0
	}

	hclog.L().Debug("command failed", "command", c.name, "error", fmt.Sprintf("%+v", err))
	fmt.Fprintf(c.Stderr, "! Error: %s\n", Describe(err))
	return ExitCode(err)
}

// Describe prefixes err with its kind so users can tell a network problem
// from a broken archive.
func Describe(err error) string {
	switch {
	case errors.Is(err, model.ErrDeclined):
		return "cancelled: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	if kind, ok := model.KindOf(err); ok {
		return fmt.Sprintf("[%s] %v", kind, err)
	}
	return err.Error()
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrDeclined):
		return 3
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, model.ErrBusy):
		return 4
	default:
		return 1
	}
}
