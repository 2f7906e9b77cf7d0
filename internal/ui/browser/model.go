// Package browser is the interactive writeup browser behind `wu browse`.
//
// The list shows every known writeup with badge counts and a fuzzy filter.
// Selecting an item opens the document viewer, a modal that takes over
// the screen until it is closed with esc or q. Crawls run in the
// background and report through messages tagged with their generation.
package browser

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/colorprofile"
	"github.com/sahilm/fuzzy"

	"github.com/raphi011/wu/internal/content"
	"github.com/raphi011/wu/internal/render"
	"github.com/raphi011/wu/internal/session"
	"github.com/raphi011/wu/internal/ui/styles"
	"github.com/raphi011/wu/internal/writeup"
)

// Config wires the browser to its data sources.
type Config struct {
	Session *session.Session
	Crawler session.Crawler
	Cache   session.Cache
	Loader  *content.Loader

	// Repo is shown in the header, e.g. "Is-Ammar/writeups".
	Repo string
	// CodeStyle is the chroma style for code blocks.
	CodeStyle string
	// Width fixes the document wrap width; 0 follows the terminal.
	Width int
	// Profile selects code highlighting colors.
	Profile colorprofile.Profile
	// Copy writes to the clipboard. Defaults to the system clipboard.
	Copy func(string) error

	// LastOpened places the cursor on this path once it is listed.
	LastOpened string
	// OnOpen is called off the UI loop whenever a document is opened.
	OnOpen func(writeup.Item)
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx context.Context
	cfg Config

	state   session.State
	visible []writeup.Item
	matches []fuzzy.Match
	badge   writeup.Badge // "" shows all badges

	cursor int
	offset int

	filter    textinput.Model
	filtering bool

	viewer   session.Viewer
	viewport viewport.Model
	spinner  spinner.Model

	status  string
	width   int
	height  int
	restore string // path to select once it appears
}

// New creates a browser model. The session may already be seeded with
// cached items; Init starts a crawl either way.
func New(ctx context.Context, cfg Config) *Model {
	if cfg.Copy == nil {
		cfg.Copy = clipboard.WriteAll
	}
	if cfg.CodeStyle == "" {
		cfg.CodeStyle = render.DefaultCodeStyle
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type to filter"
	ti.CharLimit = 100

	m := &Model{
		ctx:      ctx,
		cfg:      cfg,
		filter:   ti,
		viewport: viewport.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.AccentStyle)),
		width:    80,
		height:   24,
		restore:  cfg.LastOpened,
	}
	m.sync()
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// Close cancels any crawl still running.
func (m *Model) Close() {
	m.cfg.Session.Cancel()
}

// Selected returns the item under the cursor.
func (m *Model) Selected() (writeup.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return writeup.Item{}, false
	}
	return m.visible[m.cursor], true
}

// sync copies session state into the model and recomputes the visible
// list, keeping the selection on the same path when it is still shown.
func (m *Model) sync() {
	prev, hadPrev := m.Selected()
	m.state = m.cfg.Session.Snapshot()
	m.applyFilter()

	if m.restore != "" {
		if i := m.indexOf(m.restore); i >= 0 {
			m.cursor = i
			m.restore = ""
		}
	} else if hadPrev {
		if i := m.indexOf(prev.Path); i >= 0 {
			m.cursor = i
		}
	}
	m.clampCursor()
}

func (m *Model) indexOf(path string) int {
	for i, it := range m.visible {
		if it.Path == path {
			return i
		}
	}
	return -1
}

func (m *Model) applyFilter() {
	items := writeup.Filter(m.state.Items, m.badge, "")
	query := m.filter.Value()
	if query == "" {
		m.visible = items
		m.matches = nil
		return
	}

	m.matches = fuzzy.FindFrom(query, itemSource(items))
	m.visible = make([]writeup.Item, len(m.matches))
	for i, match := range m.matches {
		m.visible[i] = items[match.Index]
	}
}

// itemSource implements fuzzy.Source over titles.
type itemSource []writeup.Item

func (s itemSource) String(i int) string { return s[i].Title }
func (s itemSource) Len() int            { return len(s) }

func (m *Model) listHeight() int {
	h := m.height - 4 // header, blank, blank, help
	if m.filtering || m.filter.Value() != "" {
		h--
	}
	return max(1, h)
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if maxOffset := max(0, len(m.visible)-h); m.offset > maxOffset {
		m.offset = maxOffset
	}
}

func (m *Model) move(delta int) {
	m.restore = ""
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) cycleBadge() {
	switch m.badge {
	case "":
		m.badge = writeup.BadgeHTB
	case writeup.BadgeHTB:
		m.badge = writeup.BadgeWeb
	default:
		m.badge = ""
	}
	m.cursor, m.offset = 0, 0
	m.restore = ""
	m.applyFilter()
	m.clampCursor()
}

func (m *Model) renderWidth() int {
	if m.cfg.Width > 0 {
		return m.cfg.Width
	}
	return max(20, m.width-2)
}

func (m *Model) resizeViewport() {
	m.viewport.SetWidth(m.width)
	m.viewport.SetHeight(max(1, m.height-4))
}

func (m *Model) showDocument(text string) {
	doc := render.Terminal(text, m.renderWidth(),
		render.WithCodeStyle(m.cfg.CodeStyle),
		render.WithProfile(m.cfg.Profile),
	)
	m.viewport.SetContent(doc)
}

func (m *Model) String() string {
	return fmt.Sprintf("browser.Model{items=%d, visible=%d, cursor=%d, viewer=%s}",
		len(m.state.Items), len(m.visible), m.cursor, m.viewer.State())
}
