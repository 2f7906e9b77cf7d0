package browser

import (
	"context"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/wu/internal/collector"
	"github.com/raphi011/wu/internal/session"
	"github.com/raphi011/wu/internal/writeup"
)

// batchMsg carries one resolved subtree of generation gen.
type batchMsg struct {
	gen   uint64
	items []writeup.Item
	next  <-chan tea.Msg
}

// doneMsg ends generation gen.
type doneMsg struct {
	gen    uint64
	result *collector.Result
	err    error
}

// contentMsg delivers a document load for viewer request id.
type contentMsg struct {
	id   uint64
	text string
	err  error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	err error
}

// refresh starts a new generation and returns the command that streams
// its events back into Update.
func (m *Model) refresh() tea.Cmd {
	ctx, gen := m.cfg.Session.Begin(m.ctx)
	m.sync()

	events := make(chan tea.Msg, 16)
	go func() {
		defer close(events)
		res, err := m.cfg.Crawler.Run(ctx, func(ev collector.Event) {
			if ev.Kind != collector.Batch {
				return
			}
			select {
			case events <- batchMsg{gen: gen, items: ev.Items, next: events}:
			case <-ctx.Done():
			}
		})
		select {
		case events <- doneMsg{gen: gen, result: res, err: err}:
		case <-ctx.Done():
		}
	}()

	return tea.Batch(listen(events), m.spinner.Tick)
}

// listen waits for the next event of one crawl.
func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) writeCache() tea.Cmd {
	if m.cfg.Cache == nil {
		return nil
	}
	items := m.cfg.Session.Items()
	ctx := context.WithoutCancel(m.ctx)
	return func() tea.Msg {
		m.cfg.Cache.Write(ctx, items)
		return nil
	}
}

// open shows item in the viewer. Cached content is shown without a fetch.
func (m *Model) open(item writeup.Item) tea.Cmd {
	id := m.viewer.Open(item, session.ScrollPos{Cursor: m.cursor, Offset: m.offset})
	m.status = ""
	m.viewport.SetYOffset(0)
	m.viewport.SetContent("")

	m.restore = ""

	if text, ok := m.cfg.Loader.Cached(item.Path); ok {
		m.viewer.Loaded(id, text)
		m.showDocument(text)
		return m.opened(item)
	}
	return tea.Batch(m.load(id, item), m.spinner.Tick, m.opened(item))
}

func (m *Model) opened(item writeup.Item) tea.Cmd {
	if m.cfg.OnOpen == nil {
		return nil
	}
	return func() tea.Msg {
		m.cfg.OnOpen(item)
		return nil
	}
}

func (m *Model) load(id uint64, item writeup.Item) tea.Cmd {
	ctx := m.ctx
	loader := m.cfg.Loader
	return func() tea.Msg {
		text, err := loader.Load(ctx, item)
		return contentMsg{id: id, text: text, err: err}
	}
}

func (m *Model) close() {
	pos, ok := m.viewer.Close()
	if !ok {
		return
	}
	m.cursor, m.offset = pos.Cursor, pos.Offset
	m.clampCursor()
}

func (m *Model) copyRaw(item writeup.Item) tea.Cmd {
	if item.RawURL == "" {
		return nil
	}
	write := m.cfg.Copy
	url := item.RawURL
	return func() tea.Msg {
		return copiedMsg{err: write(url)}
	}
}

func (m *Model) busy() bool {
	return m.state.Busy() || m.viewer.State() == session.ViewerLoading
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeViewport()
		m.clampCursor()
		if m.viewer.State() == session.ViewerReady {
			m.showDocument(m.viewer.Content())
		}
		return m, nil

	case batchMsg:
		if m.cfg.Session.ApplyBatch(msg.gen, msg.items) {
			m.sync()
		}
		return m, listen(msg.next)

	case doneMsg:
		var (
			items  []writeup.Item
			failed []string
		)
		if msg.result != nil {
			items, failed = msg.result.Items, msg.result.Failed
		}
		if !m.cfg.Session.Finish(msg.gen, items, failed, msg.err) {
			return m, nil
		}
		m.sync()
		if msg.err == nil {
			return m, m.writeCache()
		}
		return m, nil

	case contentMsg:
		if msg.err != nil {
			m.viewer.Failed(msg.id, msg.err)
			return m, nil
		}
		if m.viewer.Loaded(msg.id, msg.text) {
			m.showDocument(msg.text)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied raw URL"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if m.viewer.IsOpen() {
			return m.updateViewer(msg)
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}

	// cursor blink
	if m.filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q":
		m.Close()
		return m, tea.Quit
	case "esc":
		if m.filter.Value() != "" {
			m.filter.Reset()
			m.applyFilter()
			m.clampCursor()
		}
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.listHeight())
	case "pgdown":
		m.move(m.listHeight())
	case "home", "g":
		m.move(-len(m.visible))
	case "end", "G":
		m.move(len(m.visible))
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "b":
		m.cycleBadge()
	case "enter":
		if it, ok := m.Selected(); ok {
			return m, m.open(it)
		}
	case "y":
		if it, ok := m.Selected(); ok {
			return m, m.copyRaw(it)
		}
	case "R":
		return m, m.refresh()
	case "r":
		if m.state.Err != nil && !m.state.Busy() {
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.Reset()
		m.filter.Blur()
		m.filtering = false
		m.applyFilter()
		m.clampCursor()
		return m, nil
	case "enter":
		m.filter.Blur()
		m.filtering = false
		m.clampCursor()
		return m, nil
	case "up":
		m.move(-1)
		return m, nil
	case "down":
		m.move(1)
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.cursor, m.offset = 0, 0
		m.restore = ""
		m.applyFilter()
		m.clampCursor()
	}
	return m, cmd
}

func (m *Model) updateViewer(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.close()
		return m, nil
	case "r":
		if id, ok := m.viewer.Retry(); ok {
			return m, tea.Batch(m.load(id, m.viewer.Item()), m.spinner.Tick)
		}
		return m, nil
	case "y":
		return m, m.copyRaw(m.viewer.Item())
	case "g", "home":
		m.viewport.GotoTop()
		return m, nil
	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
