package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{}`)
	envFile := writeFile(t, dir, "empty.env", "")

	cfg, err := Load(Options{Path: path, EnvFile: envFile, Getenv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, ExecutableDir(), cfg.DownloadDir)
	assert.Equal(t, ".7z", cfg.ArchiveExt)
	assert.Equal(t, 10, cfg.MaxPages)
	assert.Equal(t, hclog.Debug, cfg.Level())
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, filepath.Join(cfg.DownloadDir, LogFileName), cfg.LogPath())
	assert.Equal(t, filepath.Join(cfg.InstallDir, "bin"), cfg.BinDir())
	assert.NotContains(t, cfg.InstallDir, "~")
}

func TestLoadJSONAndYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := writeFile(t, dir, "empty.env", "")

	jsonPath := writeFile(t, dir, "config.json", `{
  "installDir": "`+filepath.ToSlash(filepath.Join(dir, "mingw64"))+`",
  "scratchDir": "`+filepath.ToSlash(filepath.Join(dir, "scratch"))+`",
  "maxPages": 3,
  "logLevel": "info"
}`)
	cfg, err := Load(Options{Path: jsonPath, EnvFile: envFile, Getenv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mingw64"), filepath.Clean(cfg.InstallDir))
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, hclog.Info, cfg.Level())

	yamlPath := writeFile(t, dir, "config.yaml", "sevenZip: /opt/7zz\nrequireSignature: true\npublicKey: ~/keys/mingw.pub\n")
	cfg, err = Load(Options{Path: yamlPath, EnvFile: envFile, Getenv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, "/opt/7zz", cfg.SevenZip)
	assert.True(t, cfg.RequireSignature)
	assert.NotContains(t, cfg.PublicKey, "~")
	assert.Equal(t, "mingw.pub", filepath.Base(cfg.PublicKey))
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := writeFile(t, dir, "empty.env", "")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown key", "a.json", `{"installdir": "x"}`},
		{"wrong type", "b.json", `{"maxPages": "ten"}`},
		{"bad level", "c.yaml", "logLevel: loud\n"},
		{"bad url", "d.json", `{"releasesUrl": "ftp://example"}`},
		{"malformed yaml", "e.yml", "installDir: [\n"},
		{"malformed json", "f.json", `{`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, dir, tc.file, tc.content)
			_, err := Load(Options{Path: path, EnvFile: envFile, Getenv: noEnv})
			assert.Error(t, err)
		})
	}
}

func TestExplicitMissingFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := writeFile(t, dir, "empty.env", "")

	_, err := Load(Options{Path: filepath.Join(dir, "missing.json"), EnvFile: envFile, Getenv: noEnv})
	assert.Error(t, err)

	_, err = Load(Options{
		EnvFile: envFile,
		Getenv:  envMap(map[string]string{"MINGWUP_CONFIG": filepath.Join(dir, "missing.json")}),
	})
	assert.Error(t, err)

	_, err = Load(Options{Path: writeFile(t, dir, "ok.json", "{}"), EnvFile: filepath.Join(dir, "missing.env"), Getenv: noEnv})
	assert.Error(t, err)
}

func TestEnvOverridesFileAndDotEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"sevenZip": "from-file", "maxPages": 2}`)
	envFile := writeFile(t, dir, "mingwup.env", "MINGWUP_SEVENZIP=from-dotenv\nMINGWUP_LOG_LEVEL=warn\nMINGWUP_MAX_PAGES=4\n")

	cfg, err := Load(Options{Path: path, EnvFile: envFile, Getenv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.SevenZip)
	assert.Equal(t, hclog.Warn, cfg.Level())
	assert.Equal(t, 4, cfg.MaxPages)

	cfg, err = Load(Options{
		Path:    path,
		EnvFile: envFile,
		Getenv: envMap(map[string]string{
			"MINGWUP_SEVENZIP":          "from-env",
			"MINGWUP_REQUIRE_SIGNATURE": "true",
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SevenZip)
	assert.True(t, cfg.RequireSignature)

	_, err = Load(Options{Path: path, EnvFile: envFile, Getenv: envMap(map[string]string{"MINGWUP_MAX_PAGES": "many"})})
	assert.Error(t, err)
}

func TestScratchMustDifferFromInstall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := writeFile(t, dir, "empty.env", "")
	path := writeFile(t, dir, "config.yaml", "installDir: /opt/mingw64\nscratchDir: /opt/mingw64/\n")

	_, err := Load(Options{Path: path, EnvFile: envFile, Getenv: noEnv})
	assert.ErrorContains(t, err, "scratchDir")
}
