package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, md string) *goquery.Document {
	t.Helper()
	out, err := HTML(md)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	return doc
}

func TestHTML_LinksOpenInNewContext(t *testing.T) {
	t.Parallel()

	doc := parseHTML(t, "[docs](https://example.com/docs) and https://example.org")

	links := doc.Find("a")
	require.Equal(t, 2, links.Length())
	links.Each(func(_ int, a *goquery.Selection) {
		target, _ := a.Attr("target")
		rel, _ := a.Attr("rel")
		assert.Equal(t, "_blank", target)
		assert.Equal(t, "noreferrer", rel)
	})

	href, _ := links.First().Attr("href")
	assert.Equal(t, "https://example.com/docs", href)
}

func TestHTML_HighlightedCodeBlock(t *testing.T) {
	t.Parallel()

	doc := parseHTML(t, "```go\nfunc main() {}\n```")

	block := doc.Find("div.code-block")
	require.Equal(t, 1, block.Length())
	lang, _ := block.Attr("data-language")
	assert.Equal(t, "go", lang)
	assert.Equal(t, 1, block.Find("pre.chroma").Length())
	assert.NotZero(t, block.Find("span").Length(), "expected highlighted tokens")
	assert.Contains(t, block.Text(), "func main() {}")
}

func TestHTML_PlainCodeBlockFallback(t *testing.T) {
	t.Parallel()

	doc := parseHTML(t, "```\n<b>not bold</b>\n```")

	block := doc.Find("div.code-block")
	require.Equal(t, 1, block.Length())
	lang, _ := block.Attr("data-language")
	assert.Equal(t, "text", lang)
	assert.Equal(t, 0, block.Find("b").Length(), "code must be escaped")
	assert.Contains(t, block.Find("pre code").Text(), "<b>not bold</b>")
}

func TestHTML_UnknownLanguageKeepsName(t *testing.T) {
	t.Parallel()

	doc := parseHTML(t, "```nosuchlang\nx\n```")

	lang, _ := doc.Find("div.code-block").Attr("data-language")
	assert.Equal(t, "nosuchlang", lang)
}

func TestHTML_OmitsRawHTML(t *testing.T) {
	t.Parallel()

	out, err := HTML("hello\n\n<script>alert(1)</script>\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestHTML_HeadingIDsAndTables(t *testing.T) {
	t.Parallel()

	doc := parseHTML(t, "# Hello World\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")

	assert.Equal(t, 1, doc.Find("h1#hello-world").Length())
	assert.Equal(t, 2, doc.Find("table th").Length())
	assert.Equal(t, "2", doc.Find("table td").Last().Text())
}

func TestCodeCSS(t *testing.T) {
	t.Parallel()

	css, err := CodeCSS("")
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")

	css, err = CodeCSS("dracula")
	require.NoError(t, err)
	assert.NotEmpty(t, css)
}
