package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/3leaps/mingwup/schemas/config.schema.json"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MINGWUP_"

// Options controls where Load looks.
type Options struct {
	// Path is an explicit config file; it must exist.
	Path string
	// EnvFile is an explicit .env file; it must exist. When empty, .env in
	// the working directory is read if present.
	EnvFile string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join("~", ".config", "mingwup", "config.json")
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	dotenv, err := readDotEnv(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	cfg := Default()

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		path = lookup(EnvPrefix + "CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}
	if path, err = homedir.Expand(path); err != nil {
		return Config{}, fmt.Errorf("expand config path: %w", err)
	}

	if err := mergeFile(&cfg, path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return Config{}, err
		}
	} else {
		cfg.Source = path
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.expand(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readDotEnv(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

// mergeFile validates the file against the schema and overlays it on cfg.
func mergeFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-supplied config path
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	data := raw
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(raw); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := Validate(data); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return json.Marshal(doc)
}

// Validate checks a JSON document against the config schema.
func Validate(data []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, schemaDoc); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	strs := map[string]*string{
		"DOWNLOAD_DIR": &cfg.DownloadDir,
		"INSTALL_DIR":  &cfg.InstallDir,
		"SCRATCH_DIR":  &cfg.ScratchDir,
		"SEVENZIP":     &cfg.SevenZip,
		"RELEASES_URL": &cfg.ReleasesURL,
		"ARCHIVE_EXT":  &cfg.ArchiveExt,
		"LOG_FILE":     &cfg.LogFile,
		"LOG_LEVEL":    &cfg.LogLevel,
		"PUBLIC_KEY":   &cfg.PublicKey,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(lookup(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(lookup(EnvPrefix + "MAX_PAGES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_PAGES: %w", EnvPrefix, err)
		}
		cfg.MaxPages = n
	}
	if v := strings.TrimSpace(lookup(EnvPrefix + "REQUIRE_SIGNATURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREQUIRE_SIGNATURE: %w", EnvPrefix, err)
		}
		cfg.RequireSignature = b
	}
	return nil
}
