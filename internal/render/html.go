package render

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// HTML renders markdown to an HTML fragment.
// Raw HTML in the source is omitted. Links open in a new browsing
// context without a referrer. Code blocks carry CSS classes; see CodeCSS.
func HTML(source string, opts ...Option) (string, error) {
	o := newOptions(opts)

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(o.codeStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
				highlighting.WithWrapperRenderer(codeWrapper),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkTargets{}, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// CodeCSS returns the stylesheet for highlighted code in HTML output.
func CodeCSS(style string) (string, error) {
	if style == "" {
		style = DefaultCodeStyle
	}
	var b strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&b, chromastyles.Get(style)); err != nil {
		return "", fmt.Errorf("write code css: %w", err)
	}
	return b.String(), nil
}

// codeWrapper wraps every fenced block in a div naming its language.
// Blocks chroma could not highlight get their own pre/code pair.
func codeWrapper(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	lang := "text"
	if l, ok := c.Language(); ok && len(l) > 0 {
		lang = string(l)
	}
	if entering {
		_, _ = w.WriteString(`<div class="code-block" data-language="`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`">`)
		if !c.Highlighted() {
			_, _ = w.WriteString(`<pre class="chroma"><code>`)
		}
		return
	}
	if !c.Highlighted() {
		_, _ = w.WriteString(`</code></pre>`)
	}
	_, _ = w.WriteString("</div>\n")
}

// linkTargets marks every link to open in a new context.
type linkTargets struct{}

func (linkTargets) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Link, *ast.AutoLink:
			n.SetAttributeString("target", []byte("_blank"))
			n.SetAttributeString("rel", []byte("noreferrer"))
		}
		return ast.WalkContinue, nil
	})
}
