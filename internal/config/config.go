// Package config resolves mingwup settings from defaults, an optional
// JSON or YAML file, an optional .env file and MINGWUP_* variables, in
// increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-homedir"

	gh "github.com/3leaps/mingwup/internal/host/github"
)

// Config is the resolved configuration.
type Config struct {
	DownloadDir      string `json:"downloadDir,omitempty"`
	InstallDir       string `json:"installDir,omitempty"`
	ScratchDir       string `json:"scratchDir,omitempty"`
	SevenZip         string `json:"sevenZip,omitempty"`
	ReleasesURL      string `json:"releasesUrl,omitempty"`
	ArchiveExt       string `json:"archiveExt,omitempty"`
	MaxPages         int    `json:"maxPages,omitempty"`
	LogFile          string `json:"logFile,omitempty"`
	LogLevel         string `json:"logLevel,omitempty"`
	PublicKey        string `json:"publicKey,omitempty"`
	RequireSignature bool   `json:"requireSignature,omitempty"`

	// Source is the config file that was loaded, if any.
	Source string `json:"-"`
}

// LogFileName is the default log file name inside the download directory.
const LogFileName = "mingwup.log"

// Default returns the built-in settings for the running OS.
func Default() Config {
	c := Config{
		DownloadDir: ExecutableDir(),
		ReleasesURL: gh.DefaultReleasesURL,
		ArchiveExt:  ".7z",
		MaxPages:    10,
		LogLevel:    "debug",
	}
	if runtime.GOOS == "windows" {
		c.InstallDir = `C:\mingw64`
		c.ScratchDir = `C:\mingw_temp`
		c.SevenZip = `C:\Program Files\7-Zip\7z.exe`
	} else {
		c.InstallDir = "~/mingw64"
		c.ScratchDir = filepath.Join(os.TempDir(), "mingwup-scratch")
		c.SevenZip = "7z"
	}
	return c
}

// ExecutableDir is the directory holding the running binary, with symlinks
// resolved. It falls back to the working directory.
func ExecutableDir() string {
	exePath, err := os.Executable()
	if err != nil {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exePath); err == nil {
		exePath = resolved
	}
	return filepath.Dir(exePath)
}

// BinDir is where the installed toolchain keeps its executables.
func (c Config) BinDir() string {
	return filepath.Join(c.InstallDir, "bin")
}

// LogPath is the resolved log file location.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DownloadDir, LogFileName)
}

// Level parses LogLevel.
func (c Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

func (c *Config) expand() error {
	for _, p := range []*string{&c.DownloadDir, &c.InstallDir, &c.ScratchDir, &c.SevenZip, &c.LogFile, &c.PublicKey} {
		if *p == "" {
			continue
		}
		v, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %q: %w", *p, err)
		}
		*p = v
	}
	return nil
}

func (c Config) validate() error {
	if c.DownloadDir == "" || c.InstallDir == "" || c.ScratchDir == "" {
		return fmt.Errorf("downloadDir, installDir and scratchDir must be set")
	}
	if filepath.Clean(c.ScratchDir) == filepath.Clean(c.InstallDir) {
		return fmt.Errorf("scratchDir must differ from installDir")
	}
	if c.Level() == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("maxPages must be at least 1")
	}
	return nil
}
