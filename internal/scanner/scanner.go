// Package scanner discovers a project's automation assets. It walks a
// fixed set of categorized directories under .claude/ and produces
// metadata-enriched item records for the Browser view.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Item is a single discovered file plus extracted metadata. Items are
// immutable once a scan pass completes and are identified by RelPath
// within their category.
type Item struct {
	Name        string
	AbsPath     string
	RelPath     string
	ContentType string
	Category    string
	Metadata    map[string]string
	Description string
}

// Category groups the items sourced from one configured directory.
type Category struct {
	Name        string
	Icon        string
	Description string
	Items       []Item
}

// Spec configures one category: where to look and what to match.
type Spec struct {
	Name        string
	Icon        string
	Description string
	Subdir      string
	Patterns    []string
}

// DefaultSpecs is the fixed category table for a .claude/ asset tree.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "Commands", Icon: "⌘", Description: "Slash command definitions", Subdir: "commands", Patterns: []string{"*.md"}},
		{Name: "Agents", Icon: "◆", Description: "Subagent definitions", Subdir: "agents", Patterns: []string{"*.md"}},
		{Name: "Skills", Icon: "✦", Description: "Skill packages", Subdir: "skills", Patterns: []string{"*.md"}},
		{Name: "Hooks", Icon: "⚓", Description: "Lifecycle hook scripts", Subdir: "hooks", Patterns: []string{"*.py", "*.sh"}},
		{Name: "Scripts", Icon: "$", Description: "Guard and utility scripts", Subdir: "scripts", Patterns: []string{"*.py", "*.sh"}},
		{Name: "Templates", Icon: "▤", Description: "CI and config templates", Subdir: "templates", Patterns: []string{"*.template", "*.yml", "*.yaml"}},
	}
}

// excludedSegments are path components that are never scanned.
var excludedSegments = map[string]bool{
	"logs":         true,
	"node_modules": true,
	"__pycache__":  true,
	".git":         true,
}

// Scan walks the categorized directories under root and returns one
// Category per spec, in spec order, with name-sorted items. Unreadable
// files and missing directories are skipped, never fatal.
func Scan(root string, specs []Spec) []Category {
	cats := make([]Category, 0, len(specs))
	for _, spec := range specs {
		cats = append(cats, scanCategory(root, spec))
	}
	return cats
}

func scanCategory(root string, spec Spec) Category {
	cat := Category{Name: spec.Name, Icon: spec.Icon, Description: spec.Description}
	base := filepath.Join(root, spec.Subdir)

	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == base {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != base && (excludedSegments[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesAny(d.Name(), spec.Patterns) {
			return nil
		}
		item, ok := readItem(base, path, spec.Name)
		if !ok {
			return nil
		}
		cat.Items = append(cat.Items, item)
		return nil
	})

	sort.Slice(cat.Items, func(i, j int) bool {
		return cat.Items[i].Name < cat.Items[j].Name
	})
	return cat
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func readItem(base, path, category string) (Item, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Item{}, false
	}

	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	item := Item{
		Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		AbsPath:     abs,
		RelPath:     rel,
		ContentType: contentType(path),
		Category:    category,
		Metadata:    map[string]string{},
	}

	if item.ContentType == "markdown" {
		meta, desc := ParseFrontMatter(string(data))
		item.Metadata = meta
		item.Description = desc
	} else {
		item.Description = LeadingComment(string(data))
	}
	return item, true
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "markdown"
	case ".py":
		return "python"
	case ".sh", ".bash":
		return "shell"
	case ".json":
		return "json"
	case ".yml", ".yaml":
		return "yaml"
	case ".template":
		return "template"
	default:
		return "text"
	}
}
