package secreport

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightSnippet renders a finding's code snippet with terminal colors,
// picking the lexer from the finding's file extension. Highlighting is
// cosmetic: any failure falls back to the plain snippet.
func HighlightSnippet(snippet, filePath string) string {
	lang := lexerFor(filePath)
	var sb strings.Builder
	if err := quick.Highlight(&sb, snippet, lang, "terminal256", "monokai"); err != nil {
		return snippet
	}
	return strings.TrimRight(sb.String(), "\n")
}

func lexerFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".py"):
		return "python"
	case strings.HasSuffix(path, ".sh"), strings.HasSuffix(path, ".bash"):
		return "bash"
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"):
		return "javascript"
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".tsx"):
		return "typescript"
	case strings.HasSuffix(path, ".go"):
		return "go"
	case strings.HasSuffix(path, ".json"):
		return "json"
	case strings.HasSuffix(path, ".yml"), strings.HasSuffix(path, ".yaml"):
		return "yaml"
	default:
		return "text"
	}
}
