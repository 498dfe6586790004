// Package envpath adds directories to the user's persistent PATH.
package envpath

import (
	"runtime"
	"strings"
)

// Store is a persistent PATH-like list.
type Store interface {
	// ReadPath returns the stored list, empty when nothing is stored.
	ReadPath() (string, error)
	WritePath(value string) error
	// Notify tells running processes that the value changed.
	Notify() error
	Separator() string
}

// foldCase makes entry comparison case-insensitive, as Windows paths are.
var foldCase = runtime.GOOS == "windows"

// Append adds dir to the end of the store's list unless an equivalent entry
// is already there, and reports whether the store was changed.
func Append(store Store, dir string) (bool, error) {
	current, err := store.ReadPath()
	if err != nil {
		return false, err
	}

	updated, changed := appendEntry(current, dir, store.Separator(), foldCase)
	if !changed {
		return false, nil
	}
	if err := store.WritePath(updated); err != nil {
		return false, err
	}
	return true, store.Notify()
}

func appendEntry(current, dir, sep string, fold bool) (string, bool) {
	if Contains(current, dir, sep, fold) {
		return current, false
	}
	current = strings.TrimRight(current, sep)
	if current == "" {
		return dir, true
	}
	return current + sep + dir, true
}

// Contains reports whether list has an entry naming dir.
func Contains(list, dir, sep string, fold bool) bool {
	want := normalize(dir)
	for _, entry := range strings.Split(list, sep) {
		got := normalize(entry)
		if got == "" {
			continue
		}
		if got == want || (fold && strings.EqualFold(got, want)) {
			return true
		}
	}
	return false
}

func normalize(entry string) string {
	entry = strings.TrimSpace(entry)
	entry = strings.Trim(entry, `"`)
	if len(entry) > 1 {
		entry = strings.TrimRight(entry, `/\`)
	}
	return entry
}
