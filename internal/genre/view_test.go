package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass-server/internal/domain"
)

func viewFixture() *Tree {
	return Build([]*domain.Genre{
		g("1", "Electronic", ""),
		g("2", "House", "1"),
		g("3", "Tech House", "2"),
		g("4", "Techno", "1"),
		g("5", "Électro", "1"),
		g("6", "Jazz", ""),
	})
}

func TestFlatten(t *testing.T) {
	opts := viewFixture().Flatten()

	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	assert.Equal(t, []string{
		"Electronic",
		"  Électro",
		"  House",
		"    Tech House",
		"  Techno",
		"Jazz",
	}, labels)

	assert.Equal(t, Option{
		ID:    "3",
		Name:  "Tech House",
		Label: "    Tech House",
		Path:  "Electronic > House > Tech House",
		Level: 2,
	}, opts[3])
}

func TestWalk_SkipSubtree(t *testing.T) {
	tree := viewFixture()

	var visited []string
	tree.Walk(func(n *Node) bool {
		visited = append(visited, n.Name)
		return n.Name != "House"
	})

	assert.NotContains(t, visited, "Tech House")
	assert.Contains(t, visited, "Techno")
}

func TestSearch(t *testing.T) {
	tree := viewFixture()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"name substring", "tech", []string{"Tech House", "Techno"}},
		{"ignores diacritics", "electro", []string{"Electronic", "Électro", "House", "Tech House", "Techno"}},
		{"accented query", "ÉLECTRO", []string{"Electronic", "Électro", "House", "Tech House", "Techno"}},
		{"path match", "house > tech", []string{"Tech House"}},
		{"no match", "polka", nil},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tree.Search(tt.query)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestDescendants(t *testing.T) {
	tree := viewFixture()

	assert.Equal(t, []string{"1", "5", "2", "3", "4"}, tree.Descendants("1"))
	assert.Equal(t, []string{"3"}, tree.Descendants("3"))
	assert.Nil(t, tree.Descendants("nope"))
}

func TestAncestors(t *testing.T) {
	tree := viewFixture()

	chain := tree.Ancestors("3")
	require.Len(t, chain, 2)
	assert.Equal(t, []string{"Electronic", "House"}, names(chain))

	assert.Empty(t, tree.Ancestors("1"))
	assert.Nil(t, tree.Ancestors("nope"))
}

func TestExpand(t *testing.T) {
	tree := viewFixture()

	got := tree.Expand([]string{"2", "1", "6", "missing"})

	assert.Equal(t, []string{"2", "3", "1", "5", "4", "6"}, got)
}
