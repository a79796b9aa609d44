package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root       string   `yaml:"root"`
		Extensions []string `yaml:"extensions"`
		Ignore     []string `yaml:"ignore"`
	} `yaml:"project"`
	Scan struct {
		Workers int `yaml:"workers"`
	} `yaml:"scan"`
	Resolve struct {
		// Heuristic binds still-unresolved bases by unique unqualified name.
		Heuristic bool `yaml:"heuristic"`
	} `yaml:"resolve"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Storage.Path = ".classgraph.db"
	cfg.Log.Level = "info"
	return &cfg
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error. Environment variables (optionally from .env) override both.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("CLASSGRAPH_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if db := os.Getenv("CLASSGRAPH_DB"); db != "" {
		cfg.Storage.Path = db
	}
	if level := os.Getenv("CLASSGRAPH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if workers := os.Getenv("CLASSGRAPH_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("CLASSGRAPH_WORKERS: %w", err)
		}
		cfg.Scan.Workers = n
	}

	for i, ext := range cfg.Project.Extensions {
		if !strings.HasPrefix(ext, ".") {
			cfg.Project.Extensions[i] = "." + ext
		}
	}
	return cfg, nil
}
