// Package install turns a downloaded toolchain archive into an installation.
//
// An attempt moves through Verifying, Extracting, Relocating and PostInstall
// to Done, or stops in Aborted. Apart from the <target>.lock file, nothing on
// disk is changed until the archive has been verified and, when an
// installation already exists, the Confirmer has agreed to replace it. Once extraction starts the scratch directory is
// left empty when the attempt ends, whatever the outcome.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	pkgerrors "github.com/pkg/errors"

	"github.com/3leaps/mingwup/internal/model"
	"github.com/3leaps/mingwup/internal/pathlock"
	"github.com/3leaps/mingwup/internal/progress"
	"github.com/3leaps/mingwup/internal/verify"
	"github.com/3leaps/mingwup/pkg/update"
)

// Confirmer approves destructive steps.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Yes approves everything.
var Yes = ConfirmFunc(func(string) (bool, error) { return true, nil })

type Option func(*Orchestrator)

func WithExtractor(e Extractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.extractor = e
		}
	}
}

func WithVerifier(v verify.Verifier) Option {
	return func(o *Orchestrator) { o.verifier = v }
}

func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) { o.confirmer = c }
}

func WithRunner(r Runner) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.runner = r
		}
	}
}

// WithGuard shares a single-flight guard with other components.
func WithGuard(g *pathlock.Guard) Option {
	return func(o *Orchestrator) {
		if g != nil {
			o.guard = g
		}
	}
}

func WithArchiveExt(ext string) Option {
	return func(o *Orchestrator) {
		if ext != "" {
			o.ext = ext
		}
	}
}

// WithStateFunc is called on every state transition.
func WithStateFunc(fn func(State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

func WithLogger(l hclog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator installs archives into one target directory.
type Orchestrator struct {
	target    string
	scratch   string
	ext       string
	extractor Extractor
	verifier  verify.Verifier
	confirmer Confirmer
	runner    Runner
	guard     *pathlock.Guard
	onState   func(State)
	logger    hclog.Logger
	now       func() time.Time
}

func New(target, scratch string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		target:  target,
		scratch: scratch,
		ext:     ".7z",
		runner:  execRunner{},
		guard:   pathlock.NewGuard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = hclog.L()
	}
	if o.extractor == nil {
		o.extractor = SevenZip{Logger: o.logger.Named("7z")}
	}
	return o
}

func (o *Orchestrator) Target() string  { return o.target }
func (o *Orchestrator) Scratch() string { return o.scratch }

// Request names the archive to install.
type Request struct {
	// Archive is the path of the downloaded archive.
	Archive string
	// Version is the release tag, recorded in the install marker.
	Version string
	// Force reinstalls an archive that is already installed.
	Force bool
}

// Result describes how an attempt ended.
type Result struct {
	State       State
	AttemptID   string
	Decision    update.Decision
	Message     string
	Versions    map[string]string
	Warnings    []string
	Diagnostics *Diagnostics
}

// Diagnostics is collected when an attempt fails.
type Diagnostics struct {
	Archive        string
	ArchiveExists  bool
	ArchiveSize    int64
	ScratchEntries []string
}

func (d Diagnostics) String() string {
	var sb strings.Builder
	if d.ArchiveExists {
		fmt.Fprintf(&sb, "archive %s exists (%s)", d.Archive, verify.FormatSize(d.ArchiveSize))
	} else {
		fmt.Fprintf(&sb, "archive %s does not exist", d.Archive)
	}
	if len(d.ScratchEntries) == 0 {
		sb.WriteString("; scratch directory empty")
	} else {
		fmt.Fprintf(&sb, "; scratch directory contains %s", strings.Join(d.ScratchEntries, ", "))
	}
	return sb.String()
}

// maxScratchEntries bounds the listing kept in Diagnostics.
const maxScratchEntries = 20

type attempt struct {
	o      *Orchestrator
	req    Request
	res    *Result
	logger hclog.Logger
	bar    *progress.Progress
}

func (a *attempt) enter(s State) {
	a.res.State = s
	a.logger.Info("install state", "state", s.String())
	a.bar.On(s.String())
	if a.o.onState != nil {
		a.o.onState(s)
	}
}

func (a *attempt) warn(msg string) {
	a.res.Warnings = append(a.res.Warnings, msg)
	a.logger.Warn(msg)
}

// Install runs one attempt. Errors carry a model kind, model.ErrDeclined or
// model.ErrBusy, and res.State is Aborted whenever err is non-nil.
func (o *Orchestrator) Install(ctx context.Context, req Request) (Result, error) {
	res := Result{
		State:     StateIdle,
		AttemptID: uuid.NewString(),
		Versions:  map[string]string{},
	}
	name := filepath.Base(req.Archive)
	logger := o.logger.With("attempt", res.AttemptID, "file", name)

	release, err := o.guard.TryAcquire(o.target)
	if err != nil {
		logger.Warn("install already running", "target", o.target)
		return res, track(fmt.Errorf("install %s: %w", name, err))
	}
	defer release()

	res.Decision, res.Message = o.decide(logger, req)
	logger.Info(res.Message, "decision", update.DescribeDecision(res.Decision))
	if res.Decision == update.DecisionSkip {
		return res, nil
	}

	bar := progress.Steps(ctx, 5, "install "+name)
	defer bar.Close()

	a := &attempt{o: o, req: req, res: &res, logger: logger, bar: bar}
	if err := a.run(ctx); err != nil {
		if res.Diagnostics == nil {
			res.Diagnostics = a.diagnose()
		}
		a.enter(StateAborted)
		logger.Error("install aborted", "error", err, "diagnostics", res.Diagnostics.String())
		return res, track(err)
	}
	return res, nil
}

// decide compares the request with the marker of the current installation.
func (o *Orchestrator) decide(logger hclog.Logger, req Request) (update.Decision, string) {
	name := filepath.Base(req.Archive)

	m, err := ReadMarker(o.target)
	if err != nil {
		logger.Warn("ignoring unreadable install marker", "error", err)
	}
	if m == nil {
		return update.DecideInstall("", "", req.Version, name, req.Force)
	}
	return update.DecideInstall(m.Version, m.Filename, req.Version, name, req.Force)
}

func (a *attempt) run(ctx context.Context) (err error) {
	o := a.o

	a.enter(StateVerifying)
	if err := a.verify(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Confirm only once the lock is held, so an install that finished while
	// this one waited is seen by the existence check.
	if err := os.MkdirAll(filepath.Dir(o.target), 0o755); err != nil {
		return model.E(model.KindFilesystem, "create install parent directory", err)
	}
	lockPath := o.target + ".lock"
	var told bool
	unlock, err := pathlock.Take(ctx, lockPath, func() {
		if !told {
			told = true
			a.logger.Info("waiting for another install to finish; delete the lock file if none is running", "lock", lockPath)
		}
	})
	if err != nil {
		return fmt.Errorf("lock install directory: %w", err)
	}
	defer unlock()

	if err := a.confirm(); err != nil {
		return err
	}

	defer func() {
		if err != nil {
			a.res.Diagnostics = a.diagnose()
		}
		if rerr := resetDir(o.scratch); rerr != nil {
			a.warn(fmt.Sprintf("could not clear scratch directory: %v", rerr))
		}
	}()

	a.enter(StateExtracting)
	if err := resetDir(o.scratch); err != nil {
		return model.E(model.KindFilesystem, "prepare scratch directory", err)
	}
	if err := o.extractor.Extract(ctx, a.req.Archive, o.scratch); err != nil {
		return err
	}

	a.enter(StateRelocating)
	src, err := extractedRoot(o.scratch)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(o.target); err != nil {
		return model.E(model.KindFilesystem, "remove previous installation", err)
	}
	if err := move(ctx, a.logger, os.Rename, src, o.target); err != nil {
		return err
	}
	a.logger.Info("toolchain moved into place", "target", o.target)

	a.enter(StatePostInstall)
	a.postInstall(ctx)

	a.enter(StateDone)
	return nil
}

func (a *attempt) verify() error {
	path := a.req.Archive
	op := "verify " + filepath.Base(path)

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return model.Errorf(model.KindNotFound, op, "archive %s does not exist", path)
	case err != nil:
		return model.E(model.KindFilesystem, op, err)
	case !info.Mode().IsRegular():
		return model.Errorf(model.KindFormat, op, "%s is not a regular file", path)
	}

	if !strings.EqualFold(filepath.Ext(path), a.o.ext) {
		return model.Errorf(model.KindFormat, op, "expected a %s archive", a.o.ext)
	}

	res, err := a.o.verifier.Verify(path)
	if err != nil {
		return err
	}
	a.logger.Info("archive verified", "size", verify.FormatSize(info.Size()), "checks", res.String())
	return nil
}

// confirm asks before an existing installation is replaced.
func (a *attempt) confirm() error {
	info, err := os.Stat(a.o.target)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return model.E(model.KindFilesystem, "inspect install directory", err)
	}
	if !info.IsDir() {
		return model.Errorf(model.KindFilesystem, "inspect install directory", "%s exists and is not a directory", a.o.target)
	}

	if a.o.confirmer == nil {
		return fmt.Errorf("replace %s: %w", a.o.target, model.ErrDeclined)
	}
	ok, err := a.o.confirmer.Confirm(fmt.Sprintf("%s already exists and will be deleted and replaced. Continue?", a.o.target))
	if err != nil {
		return fmt.Errorf("confirm replacement: %w", err)
	}
	if !ok {
		a.logger.Info("replacement declined", "target", a.o.target)
		return fmt.Errorf("replace %s: %w", a.o.target, model.ErrDeclined)
	}
	return nil
}

func (a *attempt) diagnose() *Diagnostics {
	d := &Diagnostics{Archive: a.req.Archive}
	if info, err := os.Stat(a.req.Archive); err == nil {
		d.ArchiveExists = true
		d.ArchiveSize = info.Size()
	}
	if entries, err := os.ReadDir(a.o.scratch); err == nil {
		for i, e := range entries {
			if i == maxScratchEntries {
				d.ScratchEntries = append(d.ScratchEntries, fmt.Sprintf("(%d more)", len(entries)-i))
				break
			}
			d.ScratchEntries = append(d.ScratchEntries, e.Name())
		}
	}
	return d
}

// resetDir leaves dir existing and empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func track(err error) error {
	return pkgerrors.WithStack(err)
}
