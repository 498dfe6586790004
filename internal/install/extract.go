package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/3leaps/mingwup/internal/model"
)

// Extractor unpacks an archive into dest.
type Extractor interface {
	Extract(ctx context.Context, archive, dest string) error
}

// maxStderr bounds how much tool output is carried in an error.
const maxStderr = 512

// SevenZip runs the 7-Zip command line tool.
type SevenZip struct {
	// Path is the 7z executable, looked up on PATH when it has no directory.
	Path   string
	Logger hclog.Logger
}

func (s SevenZip) Extract(ctx context.Context, archive, dest string) error {
	exe := s.Path
	if exe == "" {
		exe = "7z"
	}
	logger := s.Logger
	if logger == nil {
		logger = hclog.L()
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, exe, "x", archive, "-o"+dest, "-y")
	cmd.Stdout = logger.StandardWriter(&hclog.StandardLoggerOptions{ForceLevel: hclog.Trace})
	cmd.Stderr = &stderr

	logger.Debug("running extractor", "args", cmd.Args)

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("extract: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return model.Errorf(model.KindNotFound, "extract", "7-Zip not found at %s", exe)
	case errors.As(err, &exitErr):
		msg := trimOutput(stderr.String())
		if msg == "" {
			return model.Errorf(model.KindExternalTool, "extract", "%s exited with code %d", exe, exitErr.ExitCode())
		}
		return model.Errorf(model.KindExternalTool, "extract", "%s exited with code %d: %s", exe, exitErr.ExitCode(), msg)
	default:
		return model.E(model.KindExternalTool, "extract", err)
	}
}

// trimOutput keeps the tail of s, where tools print the actual failure.
func trimOutput(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderr {
		return s
	}
	return "..." + s[len(s)-maxStderr:]
}
