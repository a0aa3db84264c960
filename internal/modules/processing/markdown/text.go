package markdown

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// WordsPerMinute is the reading speed used for reading-time estimates.
const WordsPerMinute = 200

// PlainText strips markdown syntax, keeping the readable text including code.
func PlainText(markdownText string) string {
	src := []byte(markdownText)
	doc := markdownEngine.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(src))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// WordCount counts whitespace-separated words of the rendered text.
func WordCount(markdownText string) int {
	return len(strings.Fields(PlainText(markdownText)))
}

// ReadingTime estimates minutes to read. Any non-empty content takes at least
// one minute.
func ReadingTime(markdownText string) int {
	words := WordCount(markdownText)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// Excerpt returns the first max runes of the plain text, cut at a word
// boundary and suffixed with an ellipsis when shortened.
func Excerpt(markdownText string, max int) string {
	plain := strings.Join(strings.Fields(PlainText(markdownText)), " ")
	if max <= 0 || utf8.RuneCountInString(plain) <= max {
		return plain
	}
	runes := []rune(plain)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
