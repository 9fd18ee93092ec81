package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpkit/panel/internal/scanner"
)

func fixture() []scanner.Category {
	return []scanner.Category{
		{
			Name: "Commands", Icon: "⌘",
			Items: []scanner.Item{
				{Name: "prp-build", Description: "Build a PRP"},
				{Name: "prp-review", Description: "Review an open PRP"},
			},
		},
		{
			Name: "Hooks", Icon: "⚓",
			Items: []scanner.Item{
				{Name: "secret-guard", Description: "Blocks secret-printing commands"},
			},
		},
		{Name: "Templates", Icon: "▤"},
	}
}

func TestFlatten_AllExpanded(t *testing.T) {
	nodes := Build(fixture())
	flat := Flatten(nodes)

	// 3 categories + 3 leaves, category-then-item order.
	require.Len(t, flat, 6)
	var names []string
	for _, n := range flat {
		switch v := n.(type) {
		case *Category:
			names = append(names, "cat:"+v.Name)
		case Leaf:
			names = append(names, v.Item.Name)
		}
	}
	assert.Equal(t, []string{
		"cat:Commands", "prp-build", "prp-review",
		"cat:Hooks", "secret-guard",
		"cat:Templates",
	}, names)
}

func TestFlatten_CollapsedHidesChildren(t *testing.T) {
	nodes := Build(fixture())
	nodes[0].(*Category).Toggle()

	flat := Flatten(nodes)
	require.Len(t, flat, 4)
	assert.IsType(t, &Category{}, flat[0])
	assert.IsType(t, &Category{}, flat[1])
}

func TestToggle_Parity(t *testing.T) {
	c := Build(fixture())[0].(*Category)
	initial := c.Expanded
	for i := 1; i <= 5; i++ {
		c.Toggle()
		want := initial != (i%2 == 1)
		assert.Equal(t, want, c.Expanded, "after %d toggles", i)
	}
}

func TestFilter_EmptyQueryReturnsOriginal(t *testing.T) {
	nodes := Build(fixture())
	got := Filter(nodes, "")
	assert.Equal(t, len(nodes), len(got))
	// Same underlying nodes, not a copy.
	assert.Same(t, nodes[0], got[0])
}

func TestFilter_MatchesNameAndDescription(t *testing.T) {
	nodes := Build(fixture())

	byName := Filter(nodes, "REVIEW")
	require.Len(t, byName, 1)
	cat := byName[0].(*Category)
	assert.Equal(t, "Commands", cat.Name)
	require.Len(t, cat.Children, 1)
	assert.Equal(t, "prp-review", cat.Children[0].(Leaf).Item.Name)

	byDesc := Filter(nodes, "secret-printing")
	require.Len(t, byDesc, 1)
	assert.Equal(t, "Hooks", byDesc[0].(*Category).Name)
}

func TestFilter_NeverReturnsEmptyCategory(t *testing.T) {
	nodes := Build(fixture())
	got := Filter(nodes, "prp")
	for _, n := range got {
		c := n.(*Category)
		assert.NotEmpty(t, c.Children, "category %s retained with no matches", c.Name)
		assert.True(t, c.Expanded, "filtered categories must be force-expanded")
	}
}

func TestFilter_DoesNotMutateOriginal(t *testing.T) {
	nodes := Build(fixture())
	nodes[0].(*Category).Expanded = false

	filtered := Filter(nodes, "prp")
	require.NotEmpty(t, filtered)
	assert.True(t, filtered[0].(*Category).Expanded)
	assert.False(t, nodes[0].(*Category).Expanded, "filter mutated the original tree")

	// Clearing the filter restores everything without a re-scan.
	restored := Filter(nodes, "")
	assert.Equal(t, CountLeaves(nodes), CountLeaves(restored))
}

func TestFilter_NoMatches(t *testing.T) {
	assert.Empty(t, Filter(Build(fixture()), "zzz-nothing"))
}

func TestCountLeaves(t *testing.T) {
	assert.Equal(t, 3, CountLeaves(Build(fixture())))
}
