// Package view projects catalog snapshots for display. Nothing here mutates
// the entries it is given.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/3leaps/mingwup/internal/model"
)

// DateLayout is how publication dates are displayed and sorted.
const DateLayout = "2006-01-02"

type Column int

const (
	ColumnVersion Column = iota
	ColumnFile
	ColumnStatus
	ColumnDate
)

var columnNames = map[Column]string{
	ColumnVersion: "version",
	ColumnFile:    "file",
	ColumnStatus:  "status",
	ColumnDate:    "date",
}

// Columns lists the columns in display order.
var Columns = []Column{ColumnVersion, ColumnFile, ColumnStatus, ColumnDate}

func (c Column) String() string {
	if name, ok := columnNames[c]; ok {
		return name
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// Title is the table header text for c.
func (c Column) Title() string {
	name := c.String()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseColumn accepts a column name case-insensitively.
func ParseColumn(s string) (Column, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range columnNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown column %q (want version, file, status or date)", s)
}

// DisplayText is the text shown in column c for e.
func DisplayText(e model.CatalogEntry, c Column) string {
	switch c {
	case ColumnVersion:
		return e.Version
	case ColumnFile:
		return e.Filename
	case ColumnStatus:
		return e.Status.String()
	case ColumnDate:
		if e.PublishedAt.IsZero() {
			return ""
		}
		return e.PublishedAt.Format(DateLayout)
	default:
		return ""
	}
}

// ApplyFilter returns the entries whose version or filename contains query,
// ignoring case. An empty query returns every entry in order; whitespace is
// matched literally.
func ApplyFilter(entries []model.CatalogEntry, query string) []model.CatalogEntry {
	q := strings.ToLower(query)
	out := make([]model.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if q == "" ||
			strings.Contains(strings.ToLower(e.Version), q) ||
			strings.Contains(strings.ToLower(e.Filename), q) {
			out = append(out, e)
		}
	}
	return out
}

// SortBy returns a stably sorted copy of entries ordered by the display text
// of column.
func SortBy(entries []model.CatalogEntry, column Column, descending bool) []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := DisplayText(out[i], column), DisplayText(out[j], column)
		if descending {
			return a > b
		}
		return a < b
	})
	return out
}

// Sorter remembers the active sort column. The zero value means unsorted.
type Sorter struct {
	Column     Column
	Descending bool
	Active     bool
}

// Toggle selects column, flipping the direction if it is already selected.
func (s *Sorter) Toggle(column Column) {
	if s.Active && s.Column == column {
		s.Descending = !s.Descending
		return
	}
	s.Column = column
	s.Descending = false
	s.Active = true
}

func (s Sorter) Apply(entries []model.CatalogEntry) []model.CatalogEntry {
	if !s.Active {
		return entries
	}
	return SortBy(entries, s.Column, s.Descending)
}

// View is the user's current filter and sort. Project is re-run on every
// snapshot so status changes show up without re-filtering.
type View struct {
	Query           string
	Sorter          Sorter
	RecommendedOnly bool
}

func (v View) Project(snapshot []model.CatalogEntry) []model.CatalogEntry {
	rows := ApplyFilter(snapshot, v.Query)
	if v.RecommendedOnly {
		kept := rows[:0:0]
		for _, e := range rows {
			if e.Recommended {
				kept = append(kept, e)
			}
		}
		rows = kept
	}
	return v.Sorter.Apply(rows)
}
