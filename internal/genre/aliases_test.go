package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeToSlugs(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"DnB", []string{"drum-and-bass"}},
		{"Drum n Bass", []string{"drum-and-bass"}},
		{"hiphop", []string{"hip-hop"}},
		{"Hip Hop", []string{"hip-hop"}},
		{"RnB", []string{"r-and-b"}},
		{"R&B", []string{"r-and-b"}},
		{"Indie Electronic", []string{"indie", "electronic"}},
		{"Afro House", []string{"afro-house"}},
		{"", nil},
		{"???", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeToSlugs(tt.raw))
		})
	}
}

func TestCanonicalAliasesPointAtDefaultTaxonomy(t *testing.T) {
	known := make(map[string]bool)
	var collect func(seeds []Seed)
	collect = func(seeds []Seed) {
		for _, s := range seeds {
			known[Slugify(s.Name)] = true
			collect(s.Children)
		}
	}
	collect(DefaultGenres)

	for alias, targets := range CanonicalAliases {
		for _, target := range targets {
			assert.True(t, known[target], "alias %q targets unknown slug %q", alias, target)
		}
	}
}
