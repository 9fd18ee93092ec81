package scanner

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterFence = "---"

// ParseFrontMatter extracts a leading YAML front-matter block from a
// markdown document. It returns the block's scalar key/values flattened
// to strings plus a description: the block's "description" key when
// present, otherwise the first heading of the body.
//
// A document without a front-matter fence yields an empty metadata map
// and the first-heading description. A malformed block is treated as
// absent rather than failing the scan.
func ParseFrontMatter(content string) (map[string]string, string) {
	meta := map[string]string{}
	body := content

	if block, rest, ok := splitFrontMatter(content); ok {
		var raw map[string]any
		if err := yaml.Unmarshal([]byte(block), &raw); err == nil {
			for k, v := range raw {
				meta[k] = scalarString(v)
			}
			body = rest
		}
	}

	desc := meta["description"]
	if desc == "" {
		desc = firstHeading(body)
	}
	return meta, desc
}

// splitFrontMatter separates a leading fenced block from the body.
func splitFrontMatter(content string) (block, rest string, ok bool) {
	lines := strings.SplitAfter(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterFence {
		return "", "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterFence {
			return strings.Join(lines[1:i], ""), strings.Join(lines[i+1:], ""), true
		}
	}
	return "", "", false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = scalarString(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// firstHeading returns the text of the first markdown heading, if any.
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
		if trimmed != "" {
			// Body starts with prose, not a heading.
			return ""
		}
	}
	return ""
}

// LeadingComment extracts the leading comment block of a script as its
// description: contiguous '#' lines after an optional shebang and
// encoding line, joined with spaces. Docstring-style descriptions in
// Python files (a leading triple-quoted block) are handled too.
func LeadingComment(content string) string {
	lines := strings.Split(content, "\n")
	i := 0
	for i < len(lines) && (strings.HasPrefix(lines[i], "#!") || isCodingLine(lines[i]) || strings.TrimSpace(lines[i]) == "") {
		i++
	}

	if i < len(lines) {
		if doc, ok := pythonDocstring(lines[i:]); ok {
			return doc
		}
	}

	var parts []string
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		if text == "" || strings.Trim(text, "-─=") == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func isCodingLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "# -*-")
}

// pythonDocstring extracts the first line(s) of a leading """...""" block.
func pythonDocstring(lines []string) (string, bool) {
	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, `"""`) && !strings.HasPrefix(first, "'''") {
		return "", false
	}
	quote := first[:3]
	inner := strings.TrimPrefix(first, quote)
	if strings.HasSuffix(inner, quote) && inner != "" {
		return strings.TrimSpace(strings.TrimSuffix(inner, quote)), true
	}

	var parts []string
	if trimmed := strings.TrimSpace(inner); trimmed != "" {
		parts = append(parts, trimmed)
	}
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(trimmed, quote); idx >= 0 {
			if head := strings.TrimSpace(trimmed[:idx]); head != "" {
				parts = append(parts, head)
			}
			break
		}
		if trimmed == "" {
			// First paragraph only.
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Join(parts, " "), true
}
