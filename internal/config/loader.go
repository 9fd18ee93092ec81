package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SettingsPath returns the settings document location for a project root.
func SettingsPath(root string) string {
	return filepath.Join(root, ".claude", "prp-settings.json")
}

// SecretsPath returns the secrets env file location for a project root.
func SecretsPath(root string) string {
	return filepath.Join(root, ".claude", "prp-secrets.env")
}

// Load reads the settings document under root, merged over defaults. A
// missing file yields the defaults; a malformed file is an error so the
// caller can surface it instead of silently clobbering on the next save.
func Load(root string) (*Settings, error) {
	return LoadFrom(SettingsPath(root))
}

// LoadFrom reads a settings document from an explicit path.
func LoadFrom(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Unmarshal over the defaults: present keys override, absent keys
	// keep their default values.
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// PlaneAPIKey resolves the Plane API token for a project. Resolution
// order: PLANE_API_KEY in the environment, then the secrets env file.
// Empty string when neither is set.
func PlaneAPIKey(root string) string {
	if v := os.Getenv("PLANE_API_KEY"); v != "" {
		return v
	}
	return readEnvFile(SecretsPath(root), "PLANE_API_KEY")
}

// readEnvFile extracts a single KEY=value from an env file. Quoted values
// are unquoted; comments and malformed lines are skipped.
func readEnvFile(path, key string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) != key {
			continue
		}
		v = strings.TrimSpace(v)
		if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
			v = v[1 : len(v)-1]
		}
		return v
	}
	return ""
}
