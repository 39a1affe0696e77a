package genre

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass-server/internal/domain"
)

func TestCache_HitAndMiss(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	first := c.Get(electronicFixture())
	second := c.Get(electronicFixture())

	assert.Same(t, first, second)
	assert.Equal(t, CacheStats{Hits: 1, Misses: 1, Size: 1}, c.Stats())
}

func TestCache_ChangedSnapshotRebuilds(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	input := electronicFixture()
	before := c.Get(input)

	changed := electronicFixture()
	changed[3].Color = "#ff0000"
	after := c.Get(changed)

	assert.NotSame(t, before, after)
	assert.Equal(t, "#ff0000", after.ByID["4"].Color)
	assert.Equal(t, uint64(2), c.Stats().Misses)
}

func TestCache_Purge(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	c.Get(electronicFixture())
	c.Purge()

	assert.Equal(t, 0, c.Stats().Size)
}

func TestCache_InvalidSize(t *testing.T) {
	_, err := NewCache(0)
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	base := electronicFixture()

	assert.Equal(t, Fingerprint(base), Fingerprint(electronicFixture()))

	reordered := []*domain.Genre{base[1], base[0], base[2], base[3]}
	assert.NotEqual(t, Fingerprint(base), Fingerprint(reordered))

	reparented := electronicFixture()
	reparented[2].ParentID = "1"
	assert.NotEqual(t, Fingerprint(base), Fingerprint(reparented))

	touched := electronicFixture()
	touched[0].UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.NotEqual(t, Fingerprint(base), Fingerprint(touched))

	// Field boundaries are part of the hash.
	a := []*domain.Genre{g("ab", "c", "")}
	b := []*domain.Genre{g("a", "bc", "")}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestCache_OnBuildRunsOnMissOnly(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	var builds []int
	c.OnBuild(func(nodes int, took time.Duration) {
		assert.GreaterOrEqual(t, took, time.Duration(0))
		builds = append(builds, nodes)
	})

	c.Get(electronicFixture())
	c.Get(electronicFixture())

	assert.Equal(t, []int{4}, builds)
}
