// Package config reads and writes the project settings document at
// .claude/prp-settings.json. The document is shared with the shell and
// Python tooling, so Save must round-trip keys this package does not
// manage.
package config

// Settings is the root settings document.
type Settings struct {
	Project          ProjectSettings  `json:"project"`
	Plane            PlaneSettings    `json:"plane"`
	Coverage         CoverageSettings `json:"coverage"`
	CI               CISettings       `json:"ci"`
	QA               QASettings       `json:"qa"`
	ClaudeSecurePath string           `json:"claude_secure_path"`
}

// ProjectSettings names the project and its top-level layout.
type ProjectSettings struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	BackendDir  string `json:"backend_dir"`
	FrontendDir string `json:"frontend_dir"`
}

// PlaneSettings configures the Plane tracker integration. The API key is
// deliberately absent: it lives in the environment or the secrets env
// file, never in this document.
type PlaneSettings struct {
	WorkspaceSlug  string `json:"workspace_slug"`
	ProjectID      string `json:"project_id"`
	BacklogStateID string `json:"backlog_state_id"`
	APIURL         string `json:"api_url"`
}

// CoverageSettings holds coverage targets.
type CoverageSettings struct {
	Targets CoverageTargets `json:"targets"`
}

// CoverageTargets are percentage thresholds.
type CoverageTargets struct {
	Overall  int `json:"overall"`
	Critical int `json:"critical"`
}

// CISettings pins toolchain versions for the CI templates.
type CISettings struct {
	UseNpmCI      bool   `json:"use_npm_ci"`
	NodeVersion   string `json:"node_version"`
	PythonVersion string `json:"python_version"`
}

// QASettings configures the QA tracking infrastructure.
type QASettings struct {
	TrackingCSV  string       `json:"tracking_csv"`
	QualityGates QualityGates `json:"quality_gates"`
}

// QualityGates are the merge-blocking thresholds.
type QualityGates struct {
	MinCoverage int `json:"min_coverage"`
}

// DefaultPlaneAPIURL is the hosted Plane endpoint.
const DefaultPlaneAPIURL = "https://api.plane.so/api/v1"

// Default returns the settings used when no document exists. Values match
// what the installer scaffolds.
func Default() *Settings {
	return &Settings{
		Project: ProjectSettings{
			BackendDir:  "backend",
			FrontendDir: "frontend",
		},
		Plane: PlaneSettings{
			APIURL: DefaultPlaneAPIURL,
		},
		Coverage: CoverageSettings{
			Targets: CoverageTargets{Overall: 80, Critical: 90},
		},
		CI: CISettings{
			UseNpmCI:      true,
			NodeVersion:   "20",
			PythonVersion: "3.12",
		},
		QA: QASettings{
			TrackingCSV: ".claude/PRPs/qa/test-results.csv",
		},
	}
}

// Validate corrects out-of-range values in place.
func (s *Settings) Validate() error {
	if s.Plane.APIURL == "" {
		s.Plane.APIURL = DefaultPlaneAPIURL
	}
	if s.Coverage.Targets.Overall < 0 || s.Coverage.Targets.Overall > 100 {
		s.Coverage.Targets.Overall = 80
	}
	if s.Coverage.Targets.Critical < 0 || s.Coverage.Targets.Critical > 100 {
		s.Coverage.Targets.Critical = 90
	}
	return nil
}
