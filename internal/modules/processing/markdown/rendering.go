package markdown

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(mediaTransformer{}, 100)),
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithXHTML(),
		renderer.WithNodeRenderers(util.Prioritized(mediaRenderer{}, 100)),
	),
)

var mediaBaseKey = parser.NewContextKey()

// RenderOptions tunes HTML rendering.
type RenderOptions struct {
	// MediaBaseURL is prefixed to relative image sources such as /uploads/x.png.
	MediaBaseURL string
}

// Render converts article markdown to HTML. An image that stands alone in its
// paragraph and whose alt text starts with `!` becomes a captioned figure.
func Render(markdownText string, opts RenderOptions) string {
	src := strings.TrimSpace(markdownText)
	if src == "" {
		return ""
	}

	pc := parser.NewContext()
	pc.Set(mediaBaseKey, strings.TrimRight(opts.MediaBaseURL, "/"))
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(src), &out, parser.WithContext(pc)); err != nil {
		return template.HTMLEscapeString(src)
	}
	return out.String()
}

var kindFigure = ast.NewNodeKind("Figure")

type figure struct {
	ast.BaseBlock
	caption string
}

func (n *figure) Kind() ast.NodeKind { return kindFigure }

func (n *figure) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Caption": n.caption}, nil)
}

// mediaTransformer resolves relative image sources against the media base
// and lifts captioned images out of their paragraph.
type mediaTransformer struct{}

func (mediaTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	base, _ := pc.Get(mediaBaseKey).(string)
	src := reader.Source()

	var captioned []*ast.Image
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		img, ok := n.(*ast.Image)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		dest := string(img.Destination)
		if base != "" && strings.HasPrefix(dest, "/") && !strings.HasPrefix(dest, "//") {
			img.Destination = []byte(base + dest)
		}
		if p, ok := img.Parent().(*ast.Paragraph); ok && p.ChildCount() == 1 && strings.HasPrefix(altText(img, src), "!") {
			captioned = append(captioned, img)
		}
		return ast.WalkSkipChildren, nil
	})

	for _, img := range captioned {
		p := img.Parent()
		caption := strings.TrimSpace(strings.TrimPrefix(altText(img, src), "!"))
		if caption == "" {
			caption = strings.TrimSpace(string(img.Title))
		}
		f := &figure{caption: caption}
		p.RemoveChild(p, img)
		f.AppendChild(f, img)
		p.Parent().ReplaceChild(p.Parent(), p, f)
	}
}

type mediaRenderer struct{}

func (mediaRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, renderImage)
	reg.Register(kindFigure, renderFigure)
}

func renderImage(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	img := n.(*ast.Image)
	alt := altText(img, source)
	if f, ok := img.Parent().(*figure); ok {
		alt = f.caption
	}
	_, _ = w.WriteString(`<img src="`)
	if !htmlrenderer.IsDangerousURL(img.Destination) {
		_, _ = w.WriteString(template.HTMLEscapeString(string(img.Destination)))
	}
	_, _ = w.WriteString(`" alt="` + template.HTMLEscapeString(alt) + `"`)
	if len(img.Title) > 0 {
		_, _ = w.WriteString(` title="` + template.HTMLEscapeString(string(img.Title)) + `"`)
	}
	_, _ = w.WriteString(` loading="lazy" />`)
	return ast.WalkSkipChildren, nil
}

func renderFigure(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<figure>")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("<figcaption>" + template.HTMLEscapeString(n.(*figure).caption) + "</figcaption></figure>\n")
	return ast.WalkContinue, nil
}

func altText(img *ast.Image, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(img, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
