package envpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/3leaps/mingwup/internal/model"
)

const (
	blockStart = "# >>> mingwup initialize >>>"
	blockEnd   = "# <<< mingwup initialize <<<"
)

// Profile keeps the managed directories in a marked block of a shell
// profile. ReadPath and WritePath see only the block's directories.
type Profile struct {
	Path string
}

func (p *Profile) Separator() string { return ":" }

func (p *Profile) ReadPath() (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", model.E(model.KindFilesystem, "read profile", err)
	}

	inBlock := false
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == blockStart:
			inBlock = true
		case trimmed == blockEnd:
			inBlock = false
		case inBlock && strings.HasPrefix(trimmed, `export PATH="`):
			value := strings.TrimPrefix(trimmed, `export PATH="`)
			value = strings.TrimSuffix(value, `"`)
			value = strings.TrimSuffix(value, "$PATH")
			return strings.TrimRight(value, ":"), nil
		}
	}
	return "", nil
}

func (p *Profile) WritePath(value string) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return model.E(model.KindFilesystem, "create profile directory", err)
	}

	var existing []byte
	if data, err := os.ReadFile(p.Path); err == nil {
		existing = data
	} else if !errors.Is(err, os.ErrNotExist) {
		return model.E(model.KindFilesystem, "read profile", err)
	}

	merged := removeBlock(string(existing))
	if value != "" {
		block := strings.Join([]string{
			blockStart,
			fmt.Sprintf(`export PATH="%s:$PATH"`, value),
			blockEnd,
		}, "\n")
		if strings.TrimSpace(merged) == "" {
			merged = block + "\n"
		} else {
			merged = merged + "\n\n" + block + "\n"
		}
	} else if merged != "" {
		merged += "\n"
	}

	if err := os.WriteFile(p.Path, []byte(merged), 0o644); err != nil {
		return model.E(model.KindFilesystem, "write profile", err)
	}
	return nil
}

// Notify is a no-op: shells read the profile when they start.
func (p *Profile) Notify() error { return nil }

func removeBlock(content string) string {
	var builder strings.Builder
	skipping := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == blockStart {
			skipping = true
			continue
		}
		if trimmed == blockEnd {
			skipping = false
			continue
		}
		if skipping {
			continue
		}
		if line == "" && builder.Len() == 0 {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(line)
	}
	return strings.Trim(builder.String(), "\n")
}
