package install

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/3leaps/mingwup/internal/model"
)

// MarkerName is written into the install directory after a successful install.
const MarkerName = ".mingwup.json"

// Marker records which archive produced an installation.
type Marker struct {
	Version     string    `json:"version"`
	Filename    string    `json:"filename"`
	InstalledAt time.Time `json:"installedAt"`
	AttemptID   string    `json:"attemptId"`
}

// ReadMarker loads the marker from dir. It returns nil when there is none.
func ReadMarker(dir string) (*Marker, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, model.E(model.KindFilesystem, "read install marker", err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, model.E(model.KindParse, "read install marker", err)
	}
	return &m, nil
}

func writeMarker(dir string, m Marker) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MarkerName), append(data, '\n'), 0o644)
}
