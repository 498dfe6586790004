package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/morikuni/aec"

	"github.com/3leaps/mingwup/internal/catalog"
	"github.com/3leaps/mingwup/internal/classify"
	"github.com/3leaps/mingwup/internal/cli"
	"github.com/3leaps/mingwup/internal/download"
	"github.com/3leaps/mingwup/internal/envpath"
	"github.com/3leaps/mingwup/internal/hostenv"
	"github.com/3leaps/mingwup/internal/install"
	"github.com/3leaps/mingwup/internal/model"
	"github.com/3leaps/mingwup/internal/reconcile"
	"github.com/3leaps/mingwup/internal/view"
	"github.com/3leaps/mingwup/pkg/update"
)

var errUsage = errors.New("usage")

func usageErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func listCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("list")
	filter := fs.StringP("filter", "f", "", "show entries whose version or file name contains this text")
	sortBy := fs.StringArrayP("sort", "s", nil, "sort column: version, file, status or date; repeat a column to reverse it")
	desc := fs.Bool("desc", false, "sort descending")
	recommended := fs.BoolP("recommended", "r", false, "show only archives compatible with this machine")
	jsonOut := fs.Bool("json", false, "print entries as JSON")

	return newCommand(s, "list", "List available MinGW archives and their local status", "[options]", fs, g,
		func(ctx context.Context, args []string) error {
			v := view.View{Query: *filter, RecommendedOnly: *recommended}
			cols := *sortBy
			if len(cols) == 0 && *desc {
				cols = []string{view.ColumnVersion.String()}
			}
			for _, name := range cols {
				col, err := view.ParseColumn(name)
				if err != nil {
					return usageErr("%v", err)
				}
				v.Sorter.Toggle(col)
			}
			if *desc {
				v.Sorter.Descending = true
			}

			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			var rows []model.CatalogEntry
			err = a.work(ctx, func(ctx context.Context) error {
				rec, err := a.loadCatalog(ctx)
				if err != nil {
					return err
				}
				rows = v.Project(rec.Snapshot())
				return nil
			})
			if err != nil {
				return err
			}

			if *jsonOut {
				enc := json.NewEncoder(s.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			a.printTable(rows)
			return nil
		})
}

func (a *app) printTable(rows []model.CatalogEntry) {
	tw := tabwriter.NewWriter(a.io.out, 0, 4, 2, ' ', 0)
	titles := make([]string, 0, len(view.Columns))
	for _, c := range view.Columns {
		titles = append(titles, c.Title())
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))

	for _, e := range rows {
		cells := make([]string, 0, len(view.Columns))
		for _, c := range view.Columns {
			cells = append(cells, view.DisplayText(e, c))
		}
		line := strings.Join(cells, "\t")
		if e.Recommended {
			line = a.paint(aec.GreenF.With(aec.Bold), line)
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()

	if len(rows) == 0 {
		fmt.Fprintln(a.io.out, "no archives match")
		return
	}
	fmt.Fprintf(a.io.out, "\n%d archives. %s\n", len(rows), classify.Describe(a.host))
}

// resolve picks the entry named by args, or the newest recommended archive.
func resolve(cat *catalog.Catalog, args []string, latest bool) (model.CatalogEntry, error) {
	if latest {
		if len(args) > 0 {
			return model.CatalogEntry{}, usageErr("--latest takes no arguments")
		}
		var versions []string
		for _, e := range cat.Entries() {
			if e.Recommended {
				versions = append(versions, e.Version)
			}
		}
		newest := update.Latest(versions)
		if newest == "" {
			return model.CatalogEntry{}, model.Errorf(model.KindNotFound, "select archive", "no archive is compatible with this machine")
		}
		return cat.Find(newest)
	}
	if len(args) != 1 {
		return model.CatalogEntry{}, usageErr("expected one file name or version")
	}
	return cat.Find(args[0])
}

func downloadCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("download")
	latest := fs.Bool("latest", false, "download the newest recommended archive")

	return newCommand(s, "download", "Download an archive into the download directory", "[options] <file|version>", fs, g,
		func(ctx context.Context, args []string) error {
			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			var path string
			err = a.work(ctx, func(ctx context.Context) error {
				rec, err := a.loadCatalog(ctx)
				if err != nil {
					return err
				}
				entry, err := resolve(rec.Catalog(), args, *latest)
				if err != nil {
					return err
				}
				path, err = a.downloader(rec, entry.Filename).Download(ctx, entry)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, path)
			return nil
		})
}

// versionFromFilename recovers the release tag from an archive name, e.g.
// 13.2.0-rt_v11-rev1 from x86_64-13.2.0-release-posix-seh-ucrt-rt_v11-rev1.7z.
func versionFromFilename(name, ext string) string {
	t, ok := classify.ParseAssetName(name)
	if !ok {
		return ""
	}
	parts := strings.Split(strings.TrimSuffix(name, ext), "-")
	return t.CompilerVersion + "-" + strings.Join(parts[6:], "-")
}

// localArchive returns the path of ref when it names an archive already on
// disk, either as a path or as a file in the download directory.
func (a *app) localArchive(ref string) (string, bool) {
	candidates := []string{filepath.Join(a.cfg.DownloadDir, filepath.Base(ref))}
	if strings.ContainsAny(ref, `/\`) {
		candidates = []string{ref}
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

func installCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("install")
	latest := fs.Bool("latest", false, "install the newest recommended archive")
	yes := fs.BoolP("yes", "y", false, "replace an existing installation without asking")
	fetch := fs.Bool("download", false, "download the archive even if a local copy exists")
	force := fs.Bool("force", false, "reinstall when the same archive is already installed")

	return newCommand(s, "install", "Install an archive into the install directory", "[options] <file|version>", fs, g,
		func(ctx context.Context, args []string) error {
			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			var res install.Result
			err = a.work(ctx, func(ctx context.Context) error {
				req := install.Request{Force: *force}

				if !*latest && !*fetch && len(args) == 1 {
					if path, ok := a.localArchive(args[0]); ok {
						req.Archive = path
						req.Version = versionFromFilename(filepath.Base(path), a.cfg.ArchiveExt)
						a.logger.Info("installing local archive", "path", path)
					}
				}

				if req.Archive == "" {
					rec, err := a.loadCatalog(ctx)
					if err != nil {
						return err
					}
					entry, err := resolve(rec.Catalog(), args, *latest)
					if err != nil {
						return err
					}
					dl := a.downloader(rec, entry.Filename)
					req.Archive, req.Version = dl.Path(entry.Filename), entry.Version
					if *fetch {
						if err := dl.Remove(entry.Filename); err != nil && !errors.Is(err, model.ErrNotFound) {
							return err
						}
					}
					if _, err := dl.Download(ctx, entry); err != nil {
						return err
					}
				}

				r, err := a.orchestrator(*yes).Install(ctx, req)
				res = r
				return err
			})
			a.printInstallResult(res, err)
			return err
		})
}

func (a *app) printInstallResult(res install.Result, err error) {
	w := a.io.out
	if res.Diagnostics != nil && err != nil {
		fmt.Fprintf(w, "diagnostics: %s\n", res.Diagnostics)
	}
	if err != nil {
		return
	}
	if res.Decision == update.DecisionSkip {
		fmt.Fprintln(w, res.Message)
		return
	}

	fmt.Fprintf(w, "installed into %s\n", a.cfg.InstallDir)
	for _, tool := range install.SmokeTools {
		if v, ok := res.Versions[tool]; ok {
			fmt.Fprintf(w, "  %s %s\n", tool, v)
		}
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  %s %s\n", a.paint(aec.YellowF, "warning:"), warning)
	}
	if !envpath.Contains(os.Getenv("PATH"), a.cfg.BinDir(), string(os.PathListSeparator), runtime.GOOS == "windows") {
		fmt.Fprintf(w, "%s is not on PATH; run `mingwup add-path` to add it\n", a.cfg.BinDir())
	}
}

func removeCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("remove")

	return newCommand(s, "remove", "Delete a downloaded archive", "[options] <file>", fs, g,
		func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return usageErr("expected one file name")
			}
			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			rec := a.reconciler()
			return a.work(ctx, func(ctx context.Context) error {
				return download.New(a.cfg.DownloadDir,
					download.WithGuard(a.guard),
					download.WithNotifier(rec),
					download.WithLogger(a.logger.Named("download")),
				).Remove(args[0])
			})
		})
}

func addPathCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("add-path")

	return newCommand(s, "add-path", "Add the installed bin directory to the persistent PATH", "[options]", fs, g,
		func(ctx context.Context, args []string) error {
			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := envpath.Default()
			if err != nil {
				return err
			}
			bin := a.cfg.BinDir()
			if _, err := os.Stat(bin); err != nil {
				a.logger.Warn("bin directory does not exist yet", "path", bin)
			}

			changed, err := envpath.Append(store, bin)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(s.out, "%s is already in %s\n", bin, envpath.Describe(store))
				return nil
			}
			a.logger.Info("added to PATH", "dir", bin, "store", envpath.Describe(store))
			fmt.Fprintf(s.out, "added %s to %s; open a new terminal to use it\n", bin, envpath.Describe(store))
			return nil
		})
}

func watchCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("watch")

	return newCommand(s, "watch", "Report download directory changes until interrupted", "[options]", fs, g,
		func(ctx context.Context, args []string) error {
			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.work(ctx, func(ctx context.Context) error {
				rec, err := a.loadCatalog(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("watching download directory", "dir", rec.Dir(), "downloaded", countDownloaded(rec))
				return rec.Watch(ctx)
			})
		})
}

func countDownloaded(rec *reconcile.Reconciler) int {
	n := 0
	for _, e := range rec.Snapshot() {
		if e.Status == model.Downloaded {
			n++
		}
	}
	return n
}

func hostCommand(s stdio) *cli.Cmd {
	fs, g := newFlagSet("host")

	return newCommand(s, "host", "Show the detected machine and configured paths", "[options]", fs, g,
		func(ctx context.Context, args []string) error {
			a, err := newApp(s, g)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "host\t%s (%s/%s)\n", classify.Describe(a.host), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(tw, "mingwup\t%s\n", version)
			fmt.Fprintf(tw, "config\t%s\n", orNone(cfg.Source))
			fmt.Fprintf(tw, "releases\t%s\n", cfg.ReleasesURL)
			fmt.Fprintf(tw, "downloads\t%s\n", cfg.DownloadDir)
			fmt.Fprintf(tw, "install\t%s\n", cfg.InstallDir)
			fmt.Fprintf(tw, "scratch\t%s\n", cfg.ScratchDir)
			fmt.Fprintf(tw, "log\t%s\n", cfg.LogPath())

			if p, err := exec.LookPath(cfg.SevenZip); err == nil {
				fmt.Fprintf(tw, "7-Zip\t%s\n", p)
			} else {
				fmt.Fprintf(tw, "7-Zip\t%s (not found)\n", cfg.SevenZip)
			}

			if m, err := install.ReadMarker(cfg.InstallDir); err == nil && m != nil {
				fmt.Fprintf(tw, "installed\t%s (%s, %s)\n", m.Version, m.Filename, m.InstalledAt.Format(view.DateLayout))
			} else {
				fmt.Fprintf(tw, "installed\tnone\n")
			}
			if mnt, ok := hostenv.NoExecMount(cfg.InstallDir); ok {
				fmt.Fprintf(tw, "warning\tinstall directory is on noexec mount %s\n", mnt)
			}
			return tw.Flush()
		})
}

func orNone(s string) string {
	if s == "" {
		return "(defaults)"
	}
	return s
}
