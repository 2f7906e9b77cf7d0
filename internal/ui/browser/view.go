package browser

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/raphi011/wu/internal/session"
	"github.com/raphi011/wu/internal/ui/styles"
	"github.com/raphi011/wu/internal/writeup"
)

func (m *Model) View() tea.View {
	v := tea.NewView(m.screen())
	v.AltScreen = true
	return v
}

func (m *Model) screen() string {
	if m.viewer.IsOpen() {
		return m.viewerView()
	}
	return m.listView()
}

func (m *Model) header() string {
	var b strings.Builder
	b.WriteString(styles.PrimaryStyle.Bold(true).Render("Writeups"))
	if m.cfg.Repo != "" {
		b.WriteString(" " + styles.MutedStyle.Render(m.cfg.Repo))
	}

	counts := writeup.Counts(m.state.Items)
	for _, badge := range writeup.Badges {
		if n := counts[badge]; n > 0 {
			b.WriteString("  " + styles.FormatBadgeCount(badge, n))
		}
	}

	b.WriteString("  ")
	switch {
	case m.state.Loading:
		b.WriteString(m.spinner.View() + " Syncing...")
	case m.state.Refreshing:
		b.WriteString(fmt.Sprintf("%s Refreshing... %s", m.spinner.View(),
			styles.MutedStyle.Render(fmt.Sprintf("%d files", len(m.state.Items)))))
	default:
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("%d files", len(m.state.Items))))
	}
	if m.badge != "" {
		b.WriteString("  " + styles.InfoStyle.Render("only "+string(m.badge)))
	}
	return b.String()
}

func (m *Model) listView() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(styles.AccentStyle.Render("/") + " " + m.filter.View() + "\n")
	}

	switch {
	case m.state.Err != nil && len(m.state.Items) == 0:
		b.WriteString(styles.ErrorStyle.Render("Failed to load writeups: " + m.state.Err.Error()))
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render("press r to retry"))
		b.WriteString("\n")
	case m.state.Loading:
		b.WriteString(styles.MutedStyle.Render("Fetching the writeup index..."))
		b.WriteString("\n")
	case len(m.state.Items) == 0:
		b.WriteString(styles.MutedStyle.Render("No writeups found."))
		b.WriteString("\n")
	case len(m.visible) == 0:
		b.WriteString(styles.MutedStyle.Render("No writeups match."))
		b.WriteString("\n")
	default:
		end := min(len(m.visible), m.offset+m.listHeight())
		for i := m.offset; i < end; i++ {
			b.WriteString(m.row(i))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.InfoStyle.Render(m.status) + "  ")
	}
	b.WriteString(m.listHelp())
	return b.String()
}

func (m *Model) row(i int) string {
	it := m.visible[i]

	prefix := "  "
	if i == m.cursor {
		prefix = styles.AccentStyle.Render("> ")
	}

	symbol := styles.BadgeSymbol(it.Badge)
	switch it.Badge {
	case writeup.BadgeWeb:
		symbol = styles.BadgeWebStyle.Render(symbol)
	case writeup.BadgeHTB:
		symbol = styles.BadgeHTBStyle.Render(symbol)
	default:
		symbol = styles.MutedStyle.Render(styles.CurrentSymbols().Document)
	}

	title := m.title(i, it)
	if i == m.cursor {
		title = styles.Bold.Render(title)
	}
	meta := styles.MutedStyle.Render(fmt.Sprintf("%s · %s", it.Category, writeup.FormatSize(it.Size)))

	line := fmt.Sprintf("%s%s %s  %s", prefix, symbol, title, meta)
	return ansi.Truncate(line, max(10, m.width), "…")
}

// title highlights the characters matched by the fuzzy filter.
func (m *Model) title(i int, it writeup.Item) string {
	if m.matches == nil || i >= len(m.matches) {
		return it.Title
	}
	matched := make(map[int]bool, len(m.matches[i].MatchedIndexes))
	for _, idx := range m.matches[i].MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder
	for idx, r := range it.Title {
		if matched[idx] {
			b.WriteString(styles.HighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (m *Model) listHelp() string {
	if m.filtering {
		return styles.MutedStyle.Render("type to filter • enter keep • esc clear")
	}
	help := "↑/↓ move • enter open • / filter • b badge • y copy url • R refresh • q quit"
	if m.state.Err != nil {
		help = "r retry • " + help
	}
	return styles.MutedStyle.Render(help)
}

func (m *Model) viewerView() string {
	it := m.viewer.Item()

	var b strings.Builder
	b.WriteString(styles.FormatBadge(it.Badge))
	if it.Badge != "" {
		b.WriteString(" ")
	}
	b.WriteString(styles.Hyperlink(it.HTMLURL, styles.PrimaryStyle.Bold(true).Render(it.Title)))
	b.WriteString(" " + styles.MutedStyle.Render(it.Category))
	b.WriteString("\n\n")

	switch m.viewer.State() {
	case session.ViewerLoading:
		b.WriteString(m.spinner.View() + " Loading " + it.Path + "...")
		b.WriteString(strings.Repeat("\n", max(1, m.viewport.Height())))
	case session.ViewerError:
		b.WriteString(styles.ErrorStyle.Render("Failed to load document: " + m.viewer.Err().Error()))
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render("press r to retry"))
		b.WriteString(strings.Repeat("\n", max(1, m.viewport.Height()-1)))
	default:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("%s  %3.f%%", it.RawURL, m.viewport.ScrollPercent()*100)
	if m.status != "" {
		footer = m.status + "  " + footer
	}
	b.WriteString(styles.MutedStyle.Render(ansi.Truncate(footer, max(10, m.width), "…")))
	b.WriteString("\n")
	help := "↑/↓ scroll • g/G top/bottom • y copy url • esc close"
	if m.viewer.State() == session.ViewerError {
		help = "r retry • " + help
	}
	b.WriteString(styles.MutedStyle.Render(help))
	return b.String()
}
