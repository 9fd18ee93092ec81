package config

import (
	"fmt"
	"strconv"
)

// FieldType is the editable type of a settings field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeBool
)

// String returns a display label for the type.
func (t FieldType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	default:
		return "string"
	}
}

// Field describes one editable settings field by its dotted key path. The
// Settings view edits through this registry only, so the set of writable
// keys is fixed and credential keys can never be introduced.
type Field struct {
	Path  string
	Label string
	Type  FieldType
	Get   func(*Settings) string
	Set   func(*Settings, string) error
}

// Fields returns the editable field registry in display order.
func Fields() []Field {
	return []Field{
		str("project.name", "Project name",
			func(s *Settings) *string { return &s.Project.Name }),
		str("project.type", "Project type",
			func(s *Settings) *string { return &s.Project.Type }),
		str("project.backend_dir", "Backend directory",
			func(s *Settings) *string { return &s.Project.BackendDir }),
		str("project.frontend_dir", "Frontend directory",
			func(s *Settings) *string { return &s.Project.FrontendDir }),
		str("plane.workspace_slug", "Plane workspace slug",
			func(s *Settings) *string { return &s.Plane.WorkspaceSlug }),
		str("plane.project_id", "Plane project ID",
			func(s *Settings) *string { return &s.Plane.ProjectID }),
		str("plane.backlog_state_id", "Plane backlog state ID",
			func(s *Settings) *string { return &s.Plane.BacklogStateID }),
		str("plane.api_url", "Plane API URL",
			func(s *Settings) *string { return &s.Plane.APIURL }),
		num("coverage.targets.overall", "Coverage target (overall %)",
			func(s *Settings) *int { return &s.Coverage.Targets.Overall }),
		num("coverage.targets.critical", "Coverage target (critical %)",
			func(s *Settings) *int { return &s.Coverage.Targets.Critical }),
		boolean("ci.use_npm_ci", "CI uses npm ci",
			func(s *Settings) *bool { return &s.CI.UseNpmCI }),
		str("ci.node_version", "CI Node version",
			func(s *Settings) *string { return &s.CI.NodeVersion }),
		str("ci.python_version", "CI Python version",
			func(s *Settings) *string { return &s.CI.PythonVersion }),
		str("qa.tracking_csv", "QA tracking CSV",
			func(s *Settings) *string { return &s.QA.TrackingCSV }),
		num("qa.quality_gates.min_coverage", "QA gate min coverage (%)",
			func(s *Settings) *int { return &s.QA.QualityGates.MinCoverage }),
		str("claude_secure_path", "Security scanner path",
			func(s *Settings) *string { return &s.ClaudeSecurePath }),
	}
}

// FieldByPath looks up a field in the registry.
func FieldByPath(path string) (Field, bool) {
	for _, f := range Fields() {
		if f.Path == path {
			return f, true
		}
	}
	return Field{}, false
}

func str(path, label string, ptr func(*Settings) *string) Field {
	return Field{
		Path:  path,
		Label: label,
		Type:  TypeString,
		Get:   func(s *Settings) string { return *ptr(s) },
		Set: func(s *Settings, v string) error {
			*ptr(s) = v
			return nil
		},
	}
}

func num(path, label string, ptr func(*Settings) *int) Field {
	return Field{
		Path:  path,
		Label: label,
		Type:  TypeNumber,
		Get:   func(s *Settings) string { return strconv.Itoa(*ptr(s)) },
		Set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s expects a number, got %q", path, v)
			}
			*ptr(s) = n
			return nil
		},
	}
}

func boolean(path, label string, ptr func(*Settings) *bool) Field {
	return Field{
		Path:  path,
		Label: label,
		Type:  TypeBool,
		Get:   func(s *Settings) string { return strconv.FormatBool(*ptr(s)) },
		Set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s expects true or false, got %q", path, v)
			}
			*ptr(s) = b
			return nil
		},
	}
}
