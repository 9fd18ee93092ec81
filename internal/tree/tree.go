// Package tree models the Browser view's two-level category/item
// hierarchy: expand/collapse, flattening to a display order, and
// non-destructive substring filtering.
package tree

import (
	"strings"

	"github.com/prpkit/panel/internal/scanner"
)

// Node is either a *Category or a Leaf. The hierarchy is strictly two
// levels deep: categories never nest.
type Node interface {
	isNode()
}

// Category is an expandable grouping of leaves.
type Category struct {
	Name        string
	Icon        string
	Description string
	Expanded    bool
	Children    []Node
}

// Leaf wraps a single scanned item.
type Leaf struct {
	Item scanner.Item
}

func (*Category) isNode() {}
func (Leaf) isNode()      {}

// Toggle flips the category's expanded state.
func (c *Category) Toggle() { c.Expanded = !c.Expanded }

// Build constructs the tree from scan output. Categories start expanded
// when they have items, mirroring the first paint of the Browser view.
func Build(cats []scanner.Category) []Node {
	nodes := make([]Node, 0, len(cats))
	for _, cat := range cats {
		children := make([]Node, 0, len(cat.Items))
		for _, item := range cat.Items {
			children = append(children, Leaf{Item: item})
		}
		nodes = append(nodes, &Category{
			Name:        cat.Name,
			Icon:        cat.Icon,
			Description: cat.Description,
			Expanded:    len(children) > 0,
			Children:    children,
		})
	}
	return nodes
}

// Flatten returns the display order: depth-first, descending only into
// expanded categories.
func Flatten(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		out = append(out, n)
		if c, ok := n.(*Category); ok && c.Expanded {
			out = append(out, c.Children...)
		}
	}
	return out
}

// Filter returns a reduced copy of the tree containing only items whose
// name or description contains query (case-insensitive). Categories with
// no matching children are dropped; retained ones are force-expanded.
// The original tree is never mutated, so clearing the filter restores the
// full tree without a re-scan.
func Filter(nodes []Node, query string) []Node {
	if query == "" {
		return nodes
	}
	q := strings.ToLower(query)

	var out []Node
	for _, n := range nodes {
		c, ok := n.(*Category)
		if !ok {
			continue
		}
		var kept []Node
		for _, child := range c.Children {
			leaf, ok := child.(Leaf)
			if !ok {
				continue
			}
			if matches(leaf.Item, q) {
				kept = append(kept, leaf)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, &Category{
			Name:        c.Name,
			Icon:        c.Icon,
			Description: c.Description,
			Expanded:    true,
			Children:    kept,
		})
	}
	return out
}

func matches(item scanner.Item, q string) bool {
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.Description), q)
}

// CountLeaves returns the number of leaf items reachable in the tree
// regardless of expansion state.
func CountLeaves(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		switch t := node.(type) {
		case *Category:
			n += len(t.Children)
		case Leaf:
			n++
		}
	}
	return n
}
