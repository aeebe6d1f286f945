package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// A missing file is not an error: the defaults run with a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return loadDefaults(path)
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	return Loaded{Path: path, Config: cfg, Warnings: warnings, Exists: true}, nil
}

func loadDefaults(path string) (Loaded, error) {
	cfg := Default()
	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, err
	}

	missing := Warning{Message: fmt.Sprintf("config file %q not found; using defaults", path)}
	return Loaded{
		Path:     path,
		Config:   cfg,
		Warnings: append([]Warning{missing}, warnings...),
	}, nil
}
