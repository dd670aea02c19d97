package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event_hoarder/internal/domain"
)

func TestTopK_TiesBrokenByInsertionOrder(t *testing.T) {
	a := New()
	a.Add("a")
	a.Add("b")
	a.Add("c")
	a.Add("a")
	a.Add("b")

	top := a.TopK(2)

	require.Len(t, top, 2)
	assert.Equal(t, domain.TagCount{Tag: "a", Count: 2}, top[0])
	assert.Equal(t, domain.TagCount{Tag: "b", Count: 2}, top[1])
}

func TestTopK_LargerThanDistinctTags(t *testing.T) {
	a := New()
	a.Add("music")

	top := a.TopK(10)

	require.Len(t, top, 1)
	assert.Equal(t, "music", top[0].Tag)
}

func TestMerge_AccumulatesAndKeepsFirstSeenOrder(t *testing.T) {
	a := New()
	a.Add("jazz")

	a.Merge([]domain.TagCount{{Tag: "blues", Count: 2}, {Tag: "jazz", Count: 3}})

	snap := a.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, domain.TagCount{Tag: "jazz", Count: 4}, snap[0])
	assert.Equal(t, domain.TagCount{Tag: "blues", Count: 2}, snap[1])
	assert.Equal(t, 2, a.Len())
}

func TestAddN_IgnoresNonPositive(t *testing.T) {
	a := New()
	a.AddN("x", 0)
	a.AddN("y", -1)

	assert.Equal(t, 0, a.Len())
}
