package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNodeSet_RoutesByName(t *testing.T) {
	n := NewNode(NodeTypeWiki)

	n.Set("published", "0")
	n.Set("deleted", 1)
	n.Set("title", "Hello")
	n.Set("id", int64(12))

	assert.False(t, n.Published)
	assert.True(t, n.Deleted)
	assert.Equal(t, uint64(12), n.ID)
	assert.Equal(t, "Hello", n.Attrs["title"])
	_, leaked := n.Attrs["published"]
	assert.False(t, leaked)
}

func TestNodeSet_NilRemovesAttribute(t *testing.T) {
	n := NewNode(NodeTypeWiki)
	n.Set("title", "x")
	n.Set("title", nil)

	assert.NotContains(t, n.Attrs, "title")
}

func TestNodeRecord_RoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := &Node{
		ID: 3, Parent: 1, LB: 5, RB: 6, Type: NodeTypeFile,
		Created: now, Updated: now, Key: "abc", Published: true,
		Attrs: Attributes{"name": "a.png", "width": int64(10)},
	}

	got := NodeFromRecord(n.Record())
	assert.Equal(t, n, got)
}

func TestNodeFromRecord_UnknownTypeIsDefault(t *testing.T) {
	n := NodeFromRecord(map[string]interface{}{"type": "gallery"})
	assert.Equal(t, NodeTypeDefault, n.Type)
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(int64(1)))
	assert.False(t, ToBool("0"))
	assert.False(t, ToBool("yes"))
	assert.False(t, ToBool(nil))
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, ContentKey(NodeTypeWiki, "Main Page"), ContentKey(NodeTypeWiki, "  main page "))
	assert.NotEqual(t, ContentKey(NodeTypeWiki, "alice"), ContentKey(NodeTypeUser, "alice"))
	assert.Len(t, ContentKey(NodeTypeWiki, "x"), 40)
}

func TestVariants(t *testing.T) {
	page := NewWikiPage("Home")
	_, ok := AsUser(page.Node)
	assert.False(t, ok)

	view, ok := AsWikiPage(page.Node)
	assert.True(t, ok)
	assert.Equal(t, "Home", view.DisplayTitle())

	f := NewFile("cat.jpg", "image/jpeg", 800, 600)
	assert.Equal(t, int64(800), f.Width())

	u := NewUser("alice", "a@example.com", "editor")
	assert.Equal(t, &Identity{ID: "alice", Role: "editor"}, u.Identity())
}

func TestIndexSpecEntry(t *testing.T) {
	spec, ok := IndexFor(NodeTypeWiki)
	assert.True(t, ok)

	page := NewWikiPage("Home")
	page.ID = 9
	entry := spec.Entry(page.Node)

	assert.Equal(t, uint64(9), entry["id"])
	assert.Equal(t, "Home", entry["name"])
	assert.Nil(t, entry["title"])

	_, ok = IndexFor(NodeTypeDefault)
	assert.False(t, ok)
}
