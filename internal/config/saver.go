package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// managedKeys are the top-level keys this package owns. Everything else in
// the document belongs to other tools and is preserved verbatim on save.
var managedKeys = []string{"project", "plane", "coverage", "ci", "qa", "claude_secure_path"}

// Save writes the settings document under root, preserving unknown keys
// from the existing file. The write is atomic: the full document is
// serialized to a temp file and renamed into place.
func Save(root string, s *Settings) error {
	return SaveTo(SettingsPath(root), s)
}

// SaveTo writes a settings document to an explicit path.
func SaveTo(path string, s *Settings) error {
	raw := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		// A corrupt existing file is ignored rather than propagated:
		// the save still produces a valid document.
		_ = json.Unmarshal(data, &raw)
	}

	managed, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	var managedMap map[string]json.RawMessage
	if err := json.Unmarshal(managed, &managedMap); err != nil {
		return fmt.Errorf("remarshal settings: %w", err)
	}
	for _, k := range managedKeys {
		raw[k] = managedMap[k]
	}

	scrubPlaneSecrets(raw)

	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	out = append(out, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// scrubPlaneSecrets drops credential-shaped keys that somehow ended up
// inside the plane section. The API key must never be persisted here.
func scrubPlaneSecrets(raw map[string]json.RawMessage) {
	data, ok := raw["plane"]
	if !ok {
		return
	}
	var plane map[string]json.RawMessage
	if err := json.Unmarshal(data, &plane); err != nil {
		return
	}
	changed := false
	for _, k := range []string{"api_key", "apiKey", "token", "api_token"} {
		if _, found := plane[k]; found {
			delete(plane, k)
			changed = true
		}
	}
	if !changed {
		return
	}
	if cleaned, err := json.Marshal(plane); err == nil {
		raw["plane"] = cleaned
	}
}
