package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webapp-skeleton/cms/internal/pkg/populate"
)

func mustParseQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestDecodeNestedAndArrays(t *testing.T) {
	got, err := Decode(mustParseQuery(t, "populate[author][populate][0]=profilePicture&populate[author][populate][1]=socialLinks&filters[slug][$eq]=hello&sort[]=a&sort[]=b"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"populate": map[string]any{
			"author": map[string]any{"populate": []any{"profilePicture", "socialLinks"}},
		},
		"filters": map[string]any{"slug": map[string]any{"$eq": "hello"}},
		"sort":    []any{"a", "b"},
	}, got)
}

func TestDecodeOrdersArraysByIndex(t *testing.T) {
	got, err := Decode(mustParseQuery(t, "sort[10]=c&sort[2]=b&sort[0]=a"))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, got["sort"])
}

func TestDecodeConflict(t *testing.T) {
	_, err := Decode(mustParseQuery(t, "populate=*&populate[author]=true"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseFullSpec(t *testing.T) {
	spec, err := Parse(mustParseQuery(t, "filters[slug][$eq]=hello-world&filters[featured]=true&pagination[page]=2&pagination[pageSize]=10&sort[0]=publishDate:desc&sort[1]=title&populate[author][populate][0]=profilePicture&populate[seo]=true&locale=en"))
	require.NoError(t, err)

	assert.Equal(t, []Condition{
		{Field: "featured", Op: OpEq, Values: []string{"true"}},
		{Field: "slug", Op: OpEq, Values: []string{"hello-world"}},
	}, spec.Filters)
	assert.Equal(t, Pagination{Page: 2, PageSize: 10}, spec.Pagination)
	assert.Equal(t, []Sort{{Field: "publishDate", Desc: true}, {Field: "title"}}, spec.Sort)
	assert.True(t, populate.Equal(spec.Populate, populate.Tree{
		"author": populate.Nested(populate.Of("profilePicture")),
		"seo":    populate.Leaf(),
	}))
}

func TestParsePopulateForms(t *testing.T) {
	cases := []struct {
		raw  string
		want populate.Tree
	}{
		{"populate=*", populate.All()},
		{"populate=author,tags", populate.Of("author", "tags")},
		{"populate[0]=author&populate[1]=seo", populate.Of("author", "seo")},
		{"populate[author]=true&populate[tags]=false", populate.Of("author")},
		{"populate[author][populate]=*", populate.Tree{"author": populate.Nested(populate.All())}},
		{"populate[author][populate][avatar]=true", populate.Tree{"author": populate.Nested(populate.Of("avatar"))}},
		{"populate[author][fields][0]=name", populate.Of("author")},
		{"populate=author.profilePicture", populate.Tree{"author": populate.Nested(populate.Of("profilePicture"))}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			spec, err := Parse(mustParseQuery(t, tc.raw))
			require.NoError(t, err)
			assert.True(t, populate.Equal(spec.Populate, tc.want), "got %v", spec.Populate.Paths())
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"pagination[page]=0",
		"pagination[pageSize]=ten",
		"pagination[page]=922337203685477580&pagination[pageSize]=100",
		"pagination=5",
		"filters[slug][$regex]=x",
		"filters[$or][0][slug]=x",
		"filters[slug][$eq][0]=a&filters[slug][$eq][1]=b",
		"sort=title:sideways",
		"populate[author]=maybe",
		"populate[author][where]=x",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(mustParseQuery(t, raw))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestParseIn(t *testing.T) {
	spec, err := Parse(mustParseQuery(t, "filters[slug][$in][0]=a&filters[slug][$in][1]=b"))
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Field: "slug", Op: OpIn, Values: []string{"a", "b"}}}, spec.Filters)
}

func TestSpecValuesRoundTrip(t *testing.T) {
	spec := Spec{
		Filters:    []Condition{Eq("slug", "hello-world")},
		Pagination: Pagination{Page: 1, PageSize: 25},
		Sort:       []Sort{{Field: "publishDate", Desc: true}},
		Populate: populate.Tree{
			"author": populate.Nested(populate.Of("profilePicture", "socialLinks")),
			"seo":    populate.Leaf(),
		},
	}

	values := spec.Values()
	assert.Equal(t, "hello-world", values.Get("filters[slug][$eq]"))
	assert.Equal(t, "publishDate:desc", values.Get("sort[0]"))
	assert.Equal(t, "true", values.Get("populate[seo]"))
	assert.Equal(t, "true", values.Get("populate[author][populate][profilePicture]"))

	back, err := Parse(values)
	require.NoError(t, err)
	assert.Equal(t, spec.Filters, back.Filters)
	assert.Equal(t, spec.Pagination, back.Pagination)
	assert.Equal(t, spec.Sort, back.Sort)
	assert.True(t, populate.Equal(spec.Populate, back.Populate))
}

func TestSpecValuesWildcard(t *testing.T) {
	values := Spec{Populate: populate.All()}.Values()
	assert.Equal(t, "populate=%2A", values.Encode())
}

func TestSpecBuildersCopy(t *testing.T) {
	base := Spec{Filters: []Condition{Eq("featured", "true")}}
	withSlug := base.WithFilter(Eq("slug", "x"))
	assert.Len(t, base.Filters, 1)
	assert.Len(t, withSlug.Filters, 2)

	withPop := base.WithPopulate(populate.Of("author"))
	assert.Nil(t, base.Populate)
	assert.True(t, withPop.Populate.Has("author"))
}
