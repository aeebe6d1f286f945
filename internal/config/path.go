package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath overrides config discovery entirely when set, sitting
// between the --config flag and the XDG lookup.
const EnvConfigPath = "GREENROOM_CONFIG"

// ResolvePath picks the config.json location: the explicit flag value wins,
// then the GREENROOM_CONFIG environment variable, then the XDG config home,
// then ~/.config.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	if fromEnv := strings.TrimSpace(os.Getenv(EnvConfigPath)); fromEnv != "" {
		return fromEnv, nil
	}

	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("unable to resolve user home for config fallback")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "greenroom", "config.json"), nil
}
