package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/morikuni/aec"
	"github.com/spf13/pflag"

	"github.com/3leaps/mingwup/internal/catalog"
	"github.com/3leaps/mingwup/internal/cli"
	"github.com/3leaps/mingwup/internal/config"
	"github.com/3leaps/mingwup/internal/download"
	"github.com/3leaps/mingwup/internal/events"
	gh "github.com/3leaps/mingwup/internal/host/github"
	"github.com/3leaps/mingwup/internal/hostenv"
	"github.com/3leaps/mingwup/internal/install"
	"github.com/3leaps/mingwup/internal/logging"
	"github.com/3leaps/mingwup/internal/model"
	"github.com/3leaps/mingwup/internal/pathlock"
	"github.com/3leaps/mingwup/internal/reconcile"
	"github.com/3leaps/mingwup/internal/verify"
)

var version = "dev"

type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// globalOpts are accepted by every command.
type globalOpts struct {
	configPath string
	envFile    string
	noProgress bool
	noColor    bool
}

func newFlagSet(name string) (*pflag.FlagSet, *globalOpts) {
	g := &globalOpts{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&g.configPath, "config", "", "config file (JSON or YAML); default "+config.DefaultPath())
	fs.StringVar(&g.envFile, "env-file", "", "dotenv file with MINGWUP_* overrides; default .env if present")
	fs.BoolVar(&g.noProgress, "no-progress", false, "print progress as text instead of bars")
	fs.BoolVar(&g.noColor, "no-color", false, "disable colored output")
	return fs, g
}

func newCommand(s stdio, name, synopsis, usage string, fs *pflag.FlagSet, g *globalOpts, run cli.Func) *cli.Cmd {
	c := cli.New(name, synopsis, usage, fs, run)
	c.Stderr = s.err
	c.Progress = func() bool { return !g.noProgress }
	return c
}

// app holds what one command invocation needs.
type app struct {
	cfg    config.Config
	host   model.HostDescriptor
	logger hclog.InterceptLogger
	closer io.Closer
	queue  *events.Queue
	guard  *pathlock.Guard
	io     stdio
	opts   *globalOpts
	color  bool

	mu      sync.Mutex
	lastPct map[string]int64
}

func newApp(s stdio, g *globalOpts) (*app, error) {
	cfg, err := config.Load(config.Options{Path: g.configPath, EnvFile: g.envFile})
	if err != nil {
		return nil, err
	}

	queue := events.NewQueue()
	logger, closer, err := logging.New(logging.Options{
		Path:  cfg.LogPath(),
		Level: cfg.Level(),
		Queue: queue,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		host:    hostenv.Detect(),
		logger:  logger,
		closer:  closer,
		queue:   queue,
		guard:   pathlock.NewGuard(),
		io:      s,
		opts:    g,
		color:   !g.noColor && os.Getenv("NO_COLOR") == "" && isTerminal(s.out),
		lastPct: map[string]int64{},
	}
	logger.Debug("configuration loaded", "source", cfg.Source, "host", a.host.Architecture, "version", version)
	return a, nil
}

func (a *app) Close() {
	a.queue.Close()
	for _, ev := range a.queue.Take() {
		a.render(ev)
	}
	a.closer.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// work runs fn on a worker goroutine while this goroutine drains the event
// queue, so all console output comes from one place.
func (a *app) work(ctx context.Context, fn func(ctx context.Context) error) error {
	dctx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan error, 1)
	go func() {
		defer stop()
		done <- fn(ctx)
	}()

	a.queue.Drain(dctx, events.DefaultInterval, a.render)
	return <-done
}

func (a *app) paint(style aec.ANSI, s string) string {
	if !a.color {
		return s
	}
	return style.Apply(s)
}

func (a *app) render(ev events.Event) {
	w := a.io.err
	switch ev.Kind {
	case events.KindLog:
		switch {
		case ev.Level >= hclog.Error:
			fmt.Fprintf(w, "%s %s\n", a.paint(aec.RedF, "error:"), ev.Message)
		case ev.Level == hclog.Warn:
			fmt.Fprintf(w, "%s %s\n", a.paint(aec.YellowF, "warning:"), ev.Message)
		default:
			fmt.Fprintf(w, "%s %s\n", a.paint(aec.CyanF, "==>"), ev.Message)
		}
	case events.KindStatus:
		fmt.Fprintf(w, "%s %s: %s\n", a.paint(aec.CyanF, "==>"), ev.Filename, ev.Value)
	case events.KindState:
		fmt.Fprintf(w, "%s install: %s\n", a.paint(aec.CyanF, "==>"), ev.Value)
	case events.KindProgress:
		if !a.opts.noProgress || ev.Total <= 0 {
			return
		}
		pct := ev.Done * 100 / ev.Total
		a.mu.Lock()
		last, seen := a.lastPct[ev.Filename]
		report := !seen || pct/25 > last/25
		if report {
			a.lastPct[ev.Filename] = pct
		}
		a.mu.Unlock()
		if report {
			fmt.Fprintf(w, "    %s %d%% (%s of %s)\n", ev.Filename, pct, verify.FormatSize(ev.Done), verify.FormatSize(ev.Total))
		}
	}
}

func (a *app) reconciler() *reconcile.Reconciler {
	return reconcile.New(a.cfg.DownloadDir, a.host,
		reconcile.WithLogger(a.logger.Named("reconcile")),
		reconcile.WithOnChange(func(c reconcile.Change) {
			a.queue.Status(c.Filename, c.Status.String())
		}),
	)
}

// loadCatalog fetches the release feed and reconciles it with the download
// directory.
func (a *app) loadCatalog(ctx context.Context) (*reconcile.Reconciler, error) {
	f := catalog.NewFetcher(a.host,
		catalog.WithURL(a.cfg.ReleasesURL),
		catalog.WithExtension(a.cfg.ArchiveExt),
		catalog.WithMaxPages(a.cfg.MaxPages),
		catalog.WithUserAgent(gh.UserAgent(version)),
		catalog.WithLogger(a.logger.Named("catalog")),
	)
	cat, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	rec := a.reconciler()
	rec.Replace(cat)
	return rec, nil
}

func (a *app) downloader(notify download.Notifier, filename string) *download.Downloader {
	return download.New(a.cfg.DownloadDir,
		download.WithUserAgent(gh.UserAgent(version)),
		download.WithGuard(a.guard),
		download.WithNotifier(notify),
		download.WithLogger(a.logger.Named("download")),
		download.WithProgressFunc(func(done, total int64) {
			a.queue.Progress(filename, done, total)
		}),
	)
}

func (a *app) orchestrator(assumeYes bool) *install.Orchestrator {
	var confirm install.Confirmer = install.Yes
	if !assumeYes {
		confirm = &prompt{in: bufio.NewReader(a.io.in), out: a.io.err}
	}
	return install.New(a.cfg.InstallDir, a.cfg.ScratchDir,
		install.WithExtractor(install.SevenZip{Path: a.cfg.SevenZip, Logger: a.logger.Named("7z")}),
		install.WithVerifier(verify.Verifier{PublicKeyPath: a.cfg.PublicKey, RequireSignature: a.cfg.RequireSignature}),
		install.WithConfirmer(confirm),
		install.WithGuard(a.guard),
		install.WithArchiveExt(a.cfg.ArchiveExt),
		install.WithStateFunc(func(s install.State) { a.queue.State(s.String()) }),
		install.WithLogger(a.logger.Named("install")),
	)
}

// prompt asks on the terminal. Anything but y or yes declines.
type prompt struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func (p *prompt) Confirm(question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s [y/N] ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
