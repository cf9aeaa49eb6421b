package comments

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

func comment(id string, parent string) models.Comment {
	c := models.Comment{ID: id, Content: "comment " + id}
	if parent != "" {
		c.ParentCommentID = &parent
	}
	return c
}

func TestBuildTree_Chain(t *testing.T) {
	roots := BuildTree([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "2")})

	require.Len(t, roots, 1)
	assert.Equal(t, "1", roots[0].ID)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, "2", roots[0].Replies[0].ID)
	require.Len(t, roots[0].Replies[0].Replies, 1)
	assert.Equal(t, "3", roots[0].Replies[0].Replies[0].ID)
	assert.Equal(t, 2, roots[0].Replies[0].Replies[0].Depth)
}

func TestBuildTree_DisplayDepthCapped(t *testing.T) {
	flat := []models.Comment{comment("0", "")}
	for i, parent := range []string{"0", "1", "2", "3", "4"} {
		flat = append(flat, comment(string(rune('1'+i)), parent))
	}

	roots := BuildTree(flat)
	require.Len(t, roots, 1)

	n := roots[0]
	for n.Depth < 5 {
		require.Len(t, n.Replies, 1)
		n = n.Replies[0]
	}
	assert.Equal(t, 5, n.Depth)
	assert.Equal(t, MaxDisplayDepth, n.DisplayDepth)
	assert.Equal(t, 6, Count(roots))
}

func TestBuildTree_OrphansBecomeRoots(t *testing.T) {
	roots := BuildTree([]models.Comment{comment("a", "missing"), comment("b", "")})

	require.Len(t, roots, 2)
	assert.Equal(t, "a", roots[0].ID)
	assert.Equal(t, "b", roots[1].ID)
	assert.Zero(t, roots[0].Depth)
}

func TestBuildTree_ReplyBeforeParent(t *testing.T) {
	roots := BuildTree([]models.Comment{comment("2", "1"), comment("1", "")})

	require.Len(t, roots, 1)
	assert.Equal(t, "1", roots[0].ID)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, 1, roots[0].Replies[0].DisplayDepth)
}

func TestBuildTree_CyclesTerminate(t *testing.T) {
	roots := BuildTree([]models.Comment{
		comment("a", "b"),
		comment("b", "a"),
		comment("c", "a"),
		comment("self", "self"),
	})

	ids := make([]string, 0, len(roots))
	for _, r := range roots {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "self"}, ids)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, "c", roots[0].Replies[0].ID)
	assert.Equal(t, 4, Count(roots))
}

func TestBuildTree_LongChainIntoCycle(t *testing.T) {
	const n = 5000
	flat := []models.Comment{comment("x", "y"), comment("y", "x")}
	parent := "x"
	for i := range n {
		id := fmt.Sprintf("c%d", i)
		flat = append(flat, comment(id, parent))
		parent = id
	}

	roots := BuildTree(flat)

	require.Len(t, roots, 2)
	assert.Equal(t, "x", roots[0].ID)
	assert.Equal(t, "y", roots[1].ID)
	assert.Equal(t, n+2, Count(roots))

	leaf := roots[0]
	for len(leaf.Replies) > 0 {
		leaf = leaf.Replies[0]
	}
	assert.Equal(t, fmt.Sprintf("c%d", n-1), leaf.ID)
	assert.Equal(t, n, leaf.Depth)
	assert.Equal(t, MaxDisplayDepth, leaf.DisplayDepth)
}

func TestBuildTree_SiblingOrderKept(t *testing.T) {
	roots := BuildTree([]models.Comment{comment("p", ""), comment("z", "p"), comment("a", "p"), comment("m", "p")})

	require.Len(t, roots, 1)
	var got []string
	for _, r := range roots[0].Replies {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, got)
}

func TestBuildTree_Empty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
}
