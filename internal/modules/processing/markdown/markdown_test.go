package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainTextStripsSyntax(t *testing.T) {
	got := PlainText("# Title\n\nSome **bold** and [a link](https://example.com).\n\n```go\nfmt.Println(1)\n```\n")
	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "Some bold and a link.")
	assert.Contains(t, got, "fmt.Println(1)")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "https://example.com")
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, ReadingTime(""))
	assert.Equal(t, 0, ReadingTime("   \n"))
	assert.Equal(t, 1, ReadingTime("one word"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 201)))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", Excerpt("short *text*", 50))
	assert.Equal(t, "the quick brown…", Excerpt("the quick brown fox jumps", 17))
}

func TestRenderResolvesRelativeImages(t *testing.T) {
	html := Render("![](/uploads/a.png)\n\n![!A caption](https://cdn.example/b.png)", RenderOptions{MediaBaseURL: "https://cms.example/"})
	assert.Contains(t, html, `src="https://cms.example/uploads/a.png"`)
	assert.Contains(t, html, `<figure><img src="https://cdn.example/b.png"`)
	assert.Contains(t, html, "<figcaption>A caption</figcaption>")
	assert.NotContains(t, html, "<p><figure>")
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render("  ", RenderOptions{}))
}
