package install

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/3leaps/mingwup/internal/hostenv"
)

// Runner runs an installed binary and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// SmokeTools are queried with --version after an install.
var SmokeTools = []string{"gcc", "g++"}

// smokeTimeout bounds a single --version call.
const smokeTimeout = 30 * time.Second

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// parseVersion returns the last field of the first output line, which is
// where gcc prints its version.
func parseVersion(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if !sc.Scan() {
		return ""
	}
	fields := strings.Fields(sc.Text())
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// postInstall runs the best-effort steps. Failures become warnings.
func (a *attempt) postInstall(ctx context.Context) {
	bin := filepath.Join(a.o.target, "bin")

	for _, tool := range SmokeTools {
		path := filepath.Join(bin, exeName(tool))

		tctx, cancel := context.WithTimeout(ctx, smokeTimeout)
		out, err := a.o.runner.Output(tctx, path, "--version")
		cancel()

		if err != nil {
			a.warn(fmt.Sprintf("%s --version failed: %v", tool, err))
			continue
		}
		version := parseVersion(out)
		if version == "" {
			a.warn(fmt.Sprintf("%s --version printed nothing", tool))
			continue
		}
		a.res.Versions[tool] = version
		a.logger.Info("installed compiler", "tool", tool, "version", version)
	}

	a.renameMake(bin)

	if mnt, ok := hostenv.NoExecMount(a.o.target); ok {
		a.warn(fmt.Sprintf("install directory is on a noexec mount (%s); binaries will not run from there", mnt))
	}

	if err := writeMarker(a.o.target, Marker{
		Version:     a.req.Version,
		Filename:    filepath.Base(a.req.Archive),
		InstalledAt: a.o.now().UTC(),
		AttemptID:   a.res.AttemptID,
	}); err != nil {
		a.warn(fmt.Sprintf("could not write install marker: %v", err))
	}
}

// renameMake gives mingw32-make the name build tools look for. A missing
// source is not an error.
func (a *attempt) renameMake(bin string) {
	for _, ext := range []string{".exe", ""} {
		src := filepath.Join(bin, "mingw32-make"+ext)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(bin, "make"+ext)
		if err := os.Rename(src, dst); err != nil {
			a.warn(fmt.Sprintf("could not rename %s: %v", filepath.Base(src), err))
			return
		}
		a.logger.Info("renamed build tool", "from", filepath.Base(src), "to", filepath.Base(dst))
		return
	}
	a.logger.Debug("mingw32-make not present, skipping rename")
}
