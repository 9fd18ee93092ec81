package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, "backend", s.Project.BackendDir)
	assert.Equal(t, DefaultPlaneAPIURL, s.Plane.APIURL)
	assert.Equal(t, 80, s.Coverage.Targets.Overall)
	assert.Equal(t, 90, s.Coverage.Targets.Critical)
	assert.True(t, s.CI.UseNpmCI)
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{
		"project": {"name": "demo"},
		"plane": {"workspace_slug": "acme", "project_id": "p-1"},
		"coverage": {"targets": {"overall": 70}}
	}`)

	s, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "demo", s.Project.Name)
	assert.Equal(t, "acme", s.Plane.WorkspaceSlug)
	assert.Equal(t, 70, s.Coverage.Targets.Overall)
	// Absent keys keep their defaults.
	assert.Equal(t, 90, s.Coverage.Targets.Critical)
	assert.Equal(t, DefaultPlaneAPIURL, s.Plane.APIURL)
	assert.Equal(t, "backend", s.Project.BackendDir)
}

func TestLoad_MalformedJSON(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{broken`)

	_, err := Load(root)
	assert.Error(t, err)
}

func TestSave_PreservesUnknownKeys(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{
  "hooks": {"notify": "afplay done.wav"},
  "customKey": "should survive"
}`)

	s := Default()
	s.Project.Name = "demo"
	require.NoError(t, Save(root, s))

	data, err := os.ReadFile(SettingsPath(root))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "hooks", "unmanaged key dropped by Save")
	assert.Contains(t, raw, "customKey")
	assert.Contains(t, raw, "project")
	assert.Contains(t, raw, "plane")
}

func TestSave_RoundTrips(t *testing.T) {
	root := t.TempDir()

	s := Default()
	s.Plane.ProjectID = "p-42"
	s.QA.QualityGates.MinCoverage = 75
	require.NoError(t, Save(root, s))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "p-42", loaded.Plane.ProjectID)
	assert.Equal(t, 75, loaded.QA.QualityGates.MinCoverage)
}

func TestSave_ScrubsPlaneCredentials(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, `{"plane": {"workspace_slug": "acme", "api_key": "sek"}}`)

	require.NoError(t, Save(root, Default()))

	data, err := os.ReadFile(SettingsPath(root))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sek")
	assert.NotContains(t, string(data), "api_key")
}

func TestPlaneAPIKey_EnvWinsOverSecretsFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".claude"), 0o755))
	require.NoError(t, os.WriteFile(SecretsPath(root),
		[]byte("# secrets\nPLANE_API_KEY=\"from-file\"\n"), 0o600))

	t.Setenv("PLANE_API_KEY", "from-env")
	assert.Equal(t, "from-env", PlaneAPIKey(root))

	t.Setenv("PLANE_API_KEY", "")
	assert.Equal(t, "from-file", PlaneAPIKey(root))
}

func TestPlaneAPIKey_Missing(t *testing.T) {
	t.Setenv("PLANE_API_KEY", "")
	assert.Equal(t, "", PlaneAPIKey(t.TempDir()))
}

func TestFields_TypedEdit(t *testing.T) {
	s := Default()

	f, ok := FieldByPath("coverage.targets.overall")
	require.True(t, ok)
	assert.Equal(t, "80", f.Get(s))

	require.NoError(t, f.Set(s, "85"))
	assert.Equal(t, 85, s.Coverage.Targets.Overall)

	err := f.Set(s, "ninety")
	assert.Error(t, err, "non-numeric input must be rejected")
	assert.Equal(t, 85, s.Coverage.Targets.Overall, "rejected edit must not mutate")
}

func TestFields_BoolEdit(t *testing.T) {
	s := Default()
	f, ok := FieldByPath("ci.use_npm_ci")
	require.True(t, ok)

	require.NoError(t, f.Set(s, "false"))
	assert.False(t, s.CI.UseNpmCI)
	assert.Error(t, f.Set(s, "yep"))
}

func TestFields_NoCredentialPaths(t *testing.T) {
	for _, f := range Fields() {
		assert.NotContains(t, f.Path, "api_key")
		assert.NotContains(t, f.Path, "token")
	}
}

func writeSettings(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, ".claude")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(SettingsPath(root), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
