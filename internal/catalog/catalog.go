// Package catalog holds the set of remote toolchain archives and builds it
// from the release feed.
package catalog

import (
	"fmt"
	"strings"

	"github.com/3leaps/mingwup/internal/classify"
	"github.com/3leaps/mingwup/internal/model"
)

// Catalog is an ordered set of entries keyed by (version, filename).
// Only the reconciler mutates a published catalog; everyone else works on
// copies returned by Entries or Clone.
type Catalog struct {
	entries []model.CatalogEntry
	index   map[model.Key]int
}

func New() *Catalog {
	return &Catalog{index: make(map[model.Key]int)}
}

// Add appends an asset as a NotDownloaded entry. It returns false and leaves
// the catalog unchanged if the key is already present.
func (c *Catalog) Add(asset model.ReleaseAsset) bool {
	key := asset.Key()
	if _, ok := c.index[key]; ok {
		return false
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, model.CatalogEntry{ReleaseAsset: asset})
	return true
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []model.CatalogEntry {
	if c == nil {
		return nil
	}
	out := make([]model.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Get(key model.Key) (model.CatalogEntry, bool) {
	if c == nil {
		return model.CatalogEntry{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return model.CatalogEntry{}, false
	}
	return c.entries[i], true
}

func (c *Catalog) Clone() *Catalog {
	out := New()
	if c == nil {
		return out
	}
	out.entries = c.Entries()
	for k, v := range c.index {
		out.index[k] = v
	}
	return out
}

// SetStatus sets the status of every entry named filename and reports how
// many entries matched.
func (c *Catalog) SetStatus(filename string, status model.Status) int {
	n := 0
	for i := range c.entries {
		if c.entries[i].Filename == filename {
			c.entries[i].Status = status
			n++
		}
	}
	return n
}

// SetStatusFunc assigns each entry the status returned by fn.
func (c *Catalog) SetStatusFunc(fn func(model.CatalogEntry) model.Status) {
	for i := range c.entries {
		c.entries[i].Status = fn(c.entries[i])
	}
}

// Recommend recomputes the recommended flag of every entry for host.
func (c *Catalog) Recommend(host model.HostDescriptor) {
	for i := range c.entries {
		c.entries[i].Recommended = classify.Compatible(c.entries[i].Filename, host)
	}
}

// Find resolves a user reference to one entry. An exact filename wins; a
// version tag resolves to the recommended entry of that release.
func (c *Catalog) Find(ref string) (model.CatalogEntry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.CatalogEntry{}, fmt.Errorf("empty selection")
	}
	var byVersion []model.CatalogEntry
	for _, e := range c.Entries() {
		if e.Filename == ref {
			return e, nil
		}
		if e.Version == ref && e.Recommended {
			byVersion = append(byVersion, e)
		}
	}
	switch len(byVersion) {
	case 0:
		return model.CatalogEntry{}, model.Errorf(model.KindNotFound, "select archive", "no archive matches %q", ref)
	case 1:
		return byVersion[0], nil
	default:
		return model.CatalogEntry{}, fmt.Errorf("select archive: %d recommended archives in %s, pass a file name", len(byVersion), ref)
	}
}
