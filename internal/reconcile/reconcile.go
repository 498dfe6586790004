// Package reconcile keeps the published catalog in agreement with the
// contents of the download directory.
package reconcile

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/3leaps/mingwup/internal/catalog"
	"github.com/3leaps/mingwup/internal/model"
)

// Change describes a status transition of every entry sharing Filename.
type Change struct {
	Filename string
	Status   model.Status
}

type Option func(*Reconciler)

func WithLogger(l hclog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOnChange registers fn to be called after a notification changed at
// least one entry. fn runs outside the reconciler lock.
func WithOnChange(fn func(Change)) Option {
	return func(r *Reconciler) { r.onChange = fn }
}

// Reconciler is the only writer of the current catalog.
type Reconciler struct {
	mu       sync.Mutex
	dir      string
	host     model.HostDescriptor
	cat      *catalog.Catalog
	onChange func(Change)
	logger   hclog.Logger
}

func New(dir string, host model.HostDescriptor, opts ...Option) *Reconciler {
	r := &Reconciler{
		dir:  dir,
		host: host,
		cat:  catalog.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = hclog.L()
	}
	return r
}

func (r *Reconciler) Dir() string { return r.dir }

// Replace publishes cat after reconciling it against the download directory.
// The caller must not use cat afterwards.
func (r *Reconciler) Replace(cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.New()
	}
	next := cat.Clone()
	next.Recommend(r.host)

	// Statuses are read under the lock so a notification is either seen
	// on disk here or applied to next after the swap.
	r.mu.Lock()
	next.SetStatusFunc(r.statusOf)
	r.cat = next
	r.mu.Unlock()
	r.logger.Debug("catalog published", "entries", next.Len())
}

// Reconcile recomputes every status from the download directory.
func (r *Reconciler) Reconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cat.SetStatusFunc(r.statusOf)
	r.cat.Recommend(r.host)
}

func (r *Reconciler) OnLocalFileCreated(name string) {
	r.set(name, model.Downloaded)
}

func (r *Reconciler) OnLocalFileDeleted(name string) {
	r.set(name, model.NotDownloaded)
}

func (r *Reconciler) set(name string, status model.Status) {
	name = filepath.Base(name)
	r.mu.Lock()
	n := r.cat.SetStatus(name, status)
	r.mu.Unlock()

	if n == 0 {
		return
	}
	r.logger.Debug("status changed", "file", name, "status", status.String(), "entries", n)
	if r.onChange != nil {
		r.onChange(Change{Filename: name, Status: status})
	}
}

// Snapshot returns a copy of the current entries.
func (r *Reconciler) Snapshot() []model.CatalogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cat.Entries()
}

// Catalog returns a copy of the current catalog.
func (r *Reconciler) Catalog() *catalog.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cat.Clone()
}

func (r *Reconciler) statusOf(e model.CatalogEntry) model.Status {
	info, err := os.Stat(filepath.Join(r.dir, e.Filename))
	if err != nil || !info.Mode().IsRegular() {
		return model.NotDownloaded
	}
	return model.Downloaded
}
