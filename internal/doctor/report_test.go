package doctor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `{
	"project_name": "demo",
	"generated_at": "2026-08-29T10:00:00Z",
	"score": {"percentage": 83, "passed": 10, "warns": 1, "fails": 1, "skips": 2, "infos": 1, "total": 12},
	"groups": [
		{"name": "Structure", "checks": [
			{"name": "CLAUDE.md present", "status": "PASS", "detail": "found", "fix": ""},
			{"name": "Hooks configured", "status": "FAIL", "detail": "missing settings.json", "fix": "run installer"}
		]},
		{"name": "Tooling", "checks": [
			{"name": "Coverage gate", "status": "WARN", "detail": "below target", "fix": "add tests"},
			{"name": "Docker daemon", "status": "SKIP", "detail": "not installed", "fix": ""}
		]}
	]
}`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, "demo", r.ProjectName)
	assert.Equal(t, 83, r.Score.Percentage)
	assert.Equal(t, 12, r.Score.Total)
	require.Len(t, r.Groups, 2)
	assert.Equal(t, "Structure", r.Groups[0].Name)
	require.Len(t, r.Groups[0].Checks, 2)
	assert.Equal(t, StatusFail, r.Groups[0].Checks[1].Status)
	assert.Equal(t, "run installer", r.Groups[0].Checks[1].Fix)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestParseEmptyGroups(t *testing.T) {
	_, err := Parse([]byte(`{"project_name": "demo", "groups": []}`))
	assert.Error(t, err)
}

func TestParseTranscript(t *testing.T) {
	lines := []string{
		"Running checks...",
		"Checking hooks...",
		sampleReport,
	}
	r, err := ParseTranscript(lines)
	require.NoError(t, err)
	assert.Equal(t, "demo", r.ProjectName)
}

func TestParseTranscriptNoJSON(t *testing.T) {
	_, err := ParseTranscript([]string{"Running checks...", "done"})
	assert.Error(t, err)
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "✓", StatusPass.Icon())
	assert.Equal(t, "✗", StatusFail.Icon())
	assert.Equal(t, "!", StatusWarn.Icon())
	assert.Equal(t, "-", StatusSkip.Icon())
	assert.Equal(t, "i", StatusInfo.Icon())
}
