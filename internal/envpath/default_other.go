//go:build !windows

package envpath

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/3leaps/mingwup/internal/model"
)

// Default returns the store for this platform: the ~/.profile block.
func Default() (Store, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, model.E(model.KindFilesystem, "locate home directory", err)
	}
	return &Profile{Path: filepath.Join(home, ".profile")}, nil
}

// Describe names where Default stores the list.
func Describe(s Store) string {
	if p, ok := s.(*Profile); ok {
		return p.Path
	}
	return "PATH"
}
