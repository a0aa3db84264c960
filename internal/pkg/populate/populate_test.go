package populate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDisjointKeepsBothSides(t *testing.T) {
	caller := Of("comments")
	required := Tree{"author": Nested(Of("profilePicture")), "tags": Leaf()}

	got := Merge(caller, required)

	assert.Equal(t, []string{"author", "comments", "tags"}, got.Keys())
	assert.True(t, Equal(got["author"].Populate, Of("profilePicture")))
}

func TestMergeRequiredWinsOnCollision(t *testing.T) {
	caller := Tree{"author": Leaf(), "seo": Nested(Of("metaImage"))}
	required := Tree{"author": Nested(Of("profilePicture", "socialLinks")), "seo": Leaf()}

	got := Merge(caller, required)

	assert.True(t, Equal(got["author"].Populate, Of("profilePicture", "socialLinks")))
	assert.True(t, got["seo"].Leaf(), "required leaf replaces the caller's nested branch")
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	caller := Tree{"author": Nested(Of("avatar"))}
	required := Tree{"author": Nested(Of("profilePicture"))}
	callerBefore, requiredBefore := caller.Clone(), required.Clone()

	got := Merge(caller, required)
	got["author"].Populate["extra"] = Leaf()
	got["new"] = Leaf()

	assert.True(t, Equal(caller, callerBefore))
	assert.True(t, Equal(required, requiredBefore))
}

func TestMergeNilCaller(t *testing.T) {
	required := Of("featuredImage")
	assert.True(t, Equal(Merge(nil, required), required))
	assert.Empty(t, Merge(nil, nil))
}

func TestMergeKeepsWildcard(t *testing.T) {
	got := Merge(All(), Of("seo"))
	assert.True(t, got.Has(Wildcard))
	assert.True(t, got.Has("seo"))
}

func TestFromPaths(t *testing.T) {
	got := FromPaths("author.profilePicture", "author.socialLinks", " tags ", "", "seo.")
	want := Tree{
		"author": Nested(Of("profilePicture", "socialLinks")),
		"tags":   Leaf(),
		"seo":    Leaf(),
	}
	assert.True(t, Equal(got, want), "got %v", got.Paths())
}

func TestPaths(t *testing.T) {
	tree := Tree{
		"sections": Nested(Of("media", "callToAction")),
		"author":   Leaf(),
	}
	assert.Equal(t, []string{"author", "sections", "sections.callToAction", "sections.media"}, tree.Paths())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, Tree{}))
	assert.False(t, Equal(Of("a"), Of("b")))
	assert.False(t, Equal(Tree{"a": Leaf()}, Tree{"a": Nested(Of("b"))}))
}
