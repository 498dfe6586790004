// Package download fetches toolchain archives into the download directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	gh "github.com/3leaps/mingwup/internal/host/github"
	"github.com/3leaps/mingwup/internal/model"
	"github.com/3leaps/mingwup/internal/pathlock"
	"github.com/3leaps/mingwup/internal/progress"
)

// ProgressFunc is called with the bytes written so far and the expected
// total, which is -1 when the server did not send a length.
type ProgressFunc func(done, total int64)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier is told when an archive appears in or leaves the directory.
type Notifier interface {
	OnLocalFileCreated(name string)
	OnLocalFileDeleted(name string)
}

type Option func(*Downloader)

func WithHTTPClient(client HTTPClient) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

func WithProgressFunc(fn ProgressFunc) Option {
	return func(d *Downloader) { d.progress = fn }
}

func WithNotifier(n Notifier) Option {
	return func(d *Downloader) { d.notify = n }
}

func WithUserAgent(ua string) Option {
	return func(d *Downloader) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

// WithGuard shares a single-flight guard with other components.
func WithGuard(g *pathlock.Guard) Option {
	return func(d *Downloader) {
		if g != nil {
			d.guard = g
		}
	}
}

func WithLogger(l hclog.Logger) Option {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

type Downloader struct {
	client    HTTPClient
	dir       string
	userAgent string
	progress  ProgressFunc
	notify    Notifier
	guard     *pathlock.Guard
	logger    hclog.Logger
}

func New(dir string, opts ...Option) *Downloader {
	d := &Downloader{
		client:    gh.DefaultClient,
		dir:       dir,
		userAgent: gh.UserAgent("dev"),
		guard:     pathlock.NewGuard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = hclog.L()
	}
	return d
}

func (d *Downloader) Dir() string { return d.dir }

// Path returns where filename lives in the download directory.
func (d *Downloader) Path(filename string) string {
	return filepath.Join(d.dir, filename)
}

// Download stores the entry's archive under its exact asset name and
// returns the path. An existing file is left alone. On any failure the
// final name is never created.
func (d *Downloader) Download(ctx context.Context, entry model.CatalogEntry) (string, error) {
	name := entry.Filename
	if err := checkName(name); err != nil {
		return "", err
	}
	finalPath := d.Path(name)

	release, err := d.guard.TryAcquire(finalPath)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer release()

	if info, err := os.Stat(finalPath); err == nil && info.Mode().IsRegular() {
		d.logger.Info("file is already downloaded", "file", name)
		d.notifyCreated(name)
		return finalPath, nil
	}

	if entry.DownloadURL == "" {
		return "", model.Errorf(model.KindNotFound, "download "+name, "no download URL")
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", model.E(model.KindFilesystem, "create download dir", err)
	}

	d.logger.Info("starting download", "file", name, "url", entry.DownloadURL)
	bar := progress.Bytes(ctx, entry.Size, name)
	defer bar.Close()

	if err := d.fetch(ctx, entry, finalPath, bar); err != nil {
		bar.Reset()
		if d.progress != nil {
			d.progress(0, -1)
		}
		d.logger.Error("download failed", "file", name, "error", err)
		return "", err
	}

	if info, err := os.Stat(finalPath); err == nil {
		d.logger.Info("download complete", "path", finalPath, "bytes", info.Size())
	}
	d.notifyCreated(name)
	return finalPath, nil
}

func (d *Downloader) fetch(ctx context.Context, entry model.CatalogEntry, finalPath string, bar *progress.Progress) error {
	req, err := gh.NewRequest(ctx, entry.DownloadURL, d.userAgent)
	if err != nil {
		return model.E(model.KindNetwork, "build request", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return model.E(model.KindNetwork, "download "+entry.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Errorf(model.KindNetwork, "download "+entry.Filename, "unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, "."+entry.Filename+".part-*")
	if err != nil {
		return model.E(model.KindFilesystem, "create temp file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		tmp.Close()
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	total := resp.ContentLength
	if total <= 0 {
		total = entry.Size
	}
	if total <= 0 {
		total = -1
	}
	pr := &progressReader{r: resp.Body, total: total, report: d.progress, bar: bar}

	if _, err := io.Copy(tmp, pr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("download %s: %w", entry.Filename, ctxErr)
		}
		return model.E(model.KindNetwork, "download "+entry.Filename, err)
	}
	if resp.ContentLength > 0 && pr.read != resp.ContentLength {
		return model.Errorf(model.KindNetwork, "download "+entry.Filename, "short body: got %d of %d bytes", pr.read, resp.ContentLength)
	}
	if err := tmp.Sync(); err != nil {
		return model.E(model.KindFilesystem, "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return model.E(model.KindFilesystem, "close temp file", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return model.E(model.KindFilesystem, "finalize download", err)
	}
	committed = true
	return nil
}

// Remove deletes a downloaded archive.
func (d *Downloader) Remove(filename string) error {
	if err := checkName(filename); err != nil {
		return err
	}
	path := d.Path(filename)

	release, err := d.guard.TryAcquire(path)
	if err != nil {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	defer release()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Errorf(model.KindNotFound, "remove "+filename, "not downloaded")
		}
		return model.E(model.KindFilesystem, "remove "+filename, err)
	}
	d.logger.Info("removed downloaded file", "path", path)
	if d.notify != nil {
		d.notify.OnLocalFileDeleted(filename)
	}
	return nil
}

func (d *Downloader) notifyCreated(name string) {
	if d.notify != nil {
		d.notify.OnLocalFileCreated(name)
	}
}

// checkName rejects names that would escape the download directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return model.Errorf(model.KindFormat, "check file name", "invalid archive name %q", name)
	}
	return nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
	bar    *progress.Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.bar.Add(int64(n))
		if p.report != nil {
			p.report(p.read, p.total)
		}
	}
	return n, err
}
