// Command generate-checksums writes <archive>.sha256 (or .sha512) sidecars
// next to toolchain archives so mingwup can verify them before installing.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/3leaps/mingwup/internal/verify"
)

func main() {
	dir := pflag.String("dir", ".", "directory containing archives")
	ext := pflag.String("ext", ".7z", "archive extension")
	algos := pflag.String("algos", "sha256", "comma-separated hash algorithms (sha256, sha512)")
	pflag.Parse()

	if err := run(*dir, *ext, *algos); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(dir, ext, algoList string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("directory is required")
	}
	if err := ensureDir(dir); err != nil {
		return err
	}

	algos, err := parseAlgos(algoList)
	if err != nil {
		return err
	}
	if len(algos) == 0 {
		return errors.New("no hash algorithms specified")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	files := archives(entries, ext)
	if len(files) == 0 {
		return fmt.Errorf("no %s archives found in %s", ext, dir)
	}
	sort.Strings(files)

	for _, name := range files {
		for _, algo := range algos {
			out, err := writeSidecar(dir, name, algo)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
		}
	}
	return nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory %s not found", dir)
		}
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func parseAlgos(list string) ([]string, error) {
	var algos []string
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(list, ",") {
		algo := strings.ToLower(strings.TrimSpace(raw))
		if algo == "" {
			continue
		}
		if _, ok := seen[algo]; ok {
			continue
		}
		if algo != "sha256" && algo != "sha512" {
			return nil, fmt.Errorf("unsupported hash algorithm %q", algo)
		}
		seen[algo] = struct{}{}
		algos = append(algos, algo)
	}
	return algos, nil
}

func archives(entries []os.DirEntry, ext string) []string {
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), ext) {
			files = append(files, name)
		}
	}
	return files
}

// writeSidecar uses the "<digest>  <name>" layout that sha256sum prints.
func writeSidecar(dir, name, algo string) (string, error) {
	sum, err := verify.FileDigest(filepath.Join(dir, name), algo)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", name, err)
	}
	out := filepath.Join(dir, name+"."+algo)
	if err := os.WriteFile(out, []byte(fmt.Sprintf("%s  %s\n", sum, name)), 0o644); err != nil { // #nosec G306 -- public checksum
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}
