package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"
	"github.com/raphi011/wu/internal/ui/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Terminal renders markdown as styled text wrapped to width.
// A width of 0 or less disables wrapping.
func Terminal(source string, width int, opts ...Option) string {
	o := newOptions(opts)
	src := []byte(source)

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	r := &termRenderer{
		src:       src,
		style:     chromastyles.Get(o.codeStyle),
		formatter: terminalFormatter(o.profile),
	}
	lines := r.blocks(doc, width)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// terminalFormatter picks the chroma formatter matching the profile.
// Returns nil when the terminal cannot show colors.
func terminalFormatter(p colorprofile.Profile) chroma.Formatter {
	switch p {
	case colorprofile.TrueColor:
		return formatters.TTY16m
	case colorprofile.ANSI256:
		return formatters.TTY256
	case colorprofile.ANSI:
		return formatters.TTY16
	default:
		return nil
	}
}

type termRenderer struct {
	src       []byte
	style     *chroma.Style
	formatter chroma.Formatter
}

// blocks renders the block children of n separated by blank lines.
func (r *termRenderer) blocks(n ast.Node, width int) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		lines := r.block(c, width)
		if len(lines) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, lines...)
	}
	return out
}

func (r *termRenderer) block(n ast.Node, width int) []string {
	switch n := n.(type) {
	case *ast.Heading:
		return r.heading(n, width)
	case *ast.Paragraph, *ast.TextBlock:
		return wrapLines(r.inline(n), width)
	case *ast.ThematicBreak:
		w := width
		if w <= 0 {
			w = DefaultWidth
		}
		return []string{styles.MutedStyle.Render(strings.Repeat("─", w))}
	case *ast.Blockquote:
		bar := styles.MutedStyle.Render("│ ")
		inner := r.blocks(n, width-2)
		for i, line := range inner {
			inner[i] = bar + line
		}
		return inner
	case *ast.List:
		return r.list(n, width)
	case *ast.FencedCodeBlock:
		return r.code(string(n.Lines().Value(r.src)), string(n.Language(r.src)))
	case *ast.CodeBlock:
		return r.code(string(n.Lines().Value(r.src)), "")
	case *ast.HTMLBlock:
		raw := strings.TrimRight(string(n.Lines().Value(r.src)), "\n")
		if raw == "" {
			return nil
		}
		lines := strings.Split(raw, "\n")
		for i, line := range lines {
			lines[i] = styles.MutedStyle.Render(line)
		}
		return lines
	case *east.Table:
		return r.table(n)
	default:
		if n.HasChildren() {
			return r.blocks(n, width)
		}
		return nil
	}
}

func (r *termRenderer) heading(n *ast.Heading, width int) []string {
	title := ansi.Strip(r.inline(n))
	label := strings.Repeat("#", n.Level) + " " + title

	style := lipgloss.NewStyle().Bold(true)
	switch n.Level {
	case 1:
		style = style.Foreground(styles.Accent).Underline(true)
	case 2:
		style = style.Foreground(styles.Primary)
	}

	lines := wrapLines(label, width)
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return lines
}

func (r *termRenderer) list(n *ast.List, width int) []string {
	var out []string
	num := n.Start
	if num == 0 {
		num = 1
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "•"
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d.", num)
			num++
		}
		indent := ansi.StringWidth(marker) + 1

		var body []string
		if n.IsTight {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				body = append(body, r.block(c, width-indent)...)
			}
		} else {
			body = r.blocks(item, width-indent)
			if len(out) > 0 {
				out = append(out, "")
			}
		}
		if len(body) == 0 {
			body = []string{""}
		}

		pad := strings.Repeat(" ", indent)
		for i, line := range body {
			if i == 0 {
				out = append(out, styles.PrimaryStyle.Render(marker)+" "+line)
				continue
			}
			if line == "" {
				out = append(out, "")
				continue
			}
			out = append(out, pad+line)
		}
	}
	return out
}

func (r *termRenderer) table(n *east.Table) []string {
	var headers []string
	var rows [][]string
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell))
		}
		if _, ok := row.(*east.TableHeader); ok {
			headers = cells
			continue
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.MutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	return strings.Split(t.String(), "\n")
}

// code highlights a code block. Lines are indented and never wrapped.
func (r *termRenderer) code(source, lang string) []string {
	source = strings.TrimRight(source, "\n")
	if source == "" {
		return nil
	}

	highlighted := r.highlight(source, lang)
	lines := strings.Split(highlighted, "\n")
	if last := len(lines) - 1; last > 0 && ansi.Strip(lines[last]) == "" {
		lines = lines[:last]
	}
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return lines
}

func (r *termRenderer) highlight(source, lang string) string {
	if r.formatter == nil {
		return source
	}
	iterator, err := chroma.Coalesce(lexerFor(lang)).Tokenise(nil, source)
	if err != nil {
		return source
	}
	var b strings.Builder
	if err := r.formatter.Format(&b, r.style, iterator); err != nil {
		return source
	}
	return b.String()
}

// lexerFor returns the lexer for a fence language, or plain text.
func lexerFor(lang string) chroma.Lexer {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return lexers.Fallback
	}
	if l := lexers.Get(lang); l != nil {
		return l
	}
	return lexers.Fallback
}

// inline renders the inline children of n as a single styled string.
func (r *termRenderer) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.inlineNode(&b, c)
	}
	return b.String()
}

func (r *termRenderer) inlineNode(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(r.src))
		switch {
		case n.HardLineBreak():
			b.WriteString("\n")
		case n.SoftLineBreak():
			b.WriteString(" ")
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.CodeSpan:
		code := lipgloss.NewStyle().Foreground(styles.Warning)
		b.WriteString(code.Render(r.plain(n)))
	case *ast.Emphasis:
		style := lipgloss.NewStyle().Italic(true)
		if n.Level >= 2 {
			style = lipgloss.NewStyle().Bold(true)
		}
		b.WriteString(style.Render(ansi.Strip(r.inline(n))))
	case *east.Strikethrough:
		b.WriteString(lipgloss.NewStyle().Strikethrough(true).Render(ansi.Strip(r.inline(n))))
	case *ast.Link:
		dest := string(n.Destination)
		label := ansi.Strip(r.inline(n))
		b.WriteString(link(dest, label))
		if label != dest && dest != "" {
			b.WriteString(styles.MutedStyle.Render(" (" + dest + ")"))
		}
	case *ast.AutoLink:
		dest := string(n.URL(r.src))
		b.WriteString(link(dest, string(n.Label(r.src))))
	case *ast.Image:
		alt := r.plain(n)
		if alt == "" {
			alt = "image"
		}
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("[%s] (%s)", alt, n.Destination)))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.WriteString(styles.MutedStyle.Render(string(seg.Value(r.src))))
		}
	case *east.TaskCheckBox:
		if n.IsChecked {
			b.WriteString(styles.SuccessStyle.Render("[x]") + " ")
		} else {
			b.WriteString("[ ] ")
		}
	default:
		b.WriteString(r.inline(n))
	}
}

// plain returns the unstyled text of n's inline children.
func (r *termRenderer) plain(n ast.Node) string {
	return ansi.Strip(r.inline(n))
}

func link(dest, label string) string {
	style := lipgloss.NewStyle().Foreground(styles.Info).Underline(true)
	if dest == "" {
		return style.Render(label)
	}
	return ansi.SetHyperlink(dest) + style.Render(label) + ansi.ResetHyperlink()
}

func wrapLines(s string, width int) []string {
	if width > 0 {
		s = ansi.Wrap(s, width, "")
	}
	return strings.Split(s, "\n")
}
