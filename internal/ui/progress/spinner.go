// Package progress shows crawl progress on stderr for non-interactive
// commands such as `wu list` and `wu show`.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-isatty"

	"github.com/raphi011/wu/internal/collector"
	"github.com/raphi011/wu/internal/ui/styles"
)

// messageUpdate is sent to update the spinner message
type messageUpdate string

// Spinner wraps a Bubbletea spinner for simple non-interactive use.
type Spinner struct {
	program   *tea.Program
	out       io.Writer
	enabled   bool
	msgChan   chan string
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
	lastMsg   string

	label string
	files int
}

// spinnerModel is the internal Bubbletea model
type spinnerModel struct {
	spinner spinner.Model
	message string
	msgChan chan string
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForMessage())
}

func (m spinnerModel) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgChan
		if !ok {
			return tea.Quit()
		}
		return messageUpdate(msg)
	}
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messageUpdate:
		m.message = string(msg)
		return m, m.waitForMessage()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() tea.View {
	if m.message == "" {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s %s", m.spinner.View(), m.message))
}

// NewSpinner creates a spinner for crawling label (e.g. "Is-Ammar/writeups").
// It only draws when stderr is a terminal.
func NewSpinner(label string) *Spinner {
	fd := os.Stderr.Fd()
	return newSpinner(label, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func newSpinner(label string, out io.Writer, enabled bool) *Spinner {
	return &Spinner{
		out:     out,
		enabled: enabled,
		msgChan: make(chan string, 10),
		done:    make(chan struct{}),
		label:   label,
		lastMsg: crawlMessage(label, 0),
	}
}

func crawlMessage(label string, files int) string {
	if files == 0 {
		return fmt.Sprintf("Crawling %s...", label)
	}
	return fmt.Sprintf("Crawling %s... %s", label, styles.MutedStyle.Render(fmt.Sprintf("%d files", files)))
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning || !s.enabled {
		return
	}

	model := spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.AccentStyle)),
		message: s.lastMsg,
		msgChan: s.msgChan,
	}

	// No input: the crawl is cancelled through the command's context.
	s.program = tea.NewProgram(model,
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(s.out),
	)
	s.isRunning = true

	go func() {
		_, _ = s.program.Run()
		close(s.done)
	}()
}

// Observe counts the files of a crawl event. It has the signature of a
// collector emit callback.
func (s *Spinner) Observe(ev collector.Event) {
	if ev.Kind != collector.Batch {
		return
	}
	s.mu.Lock()
	s.files += len(ev.Items)
	files := s.files
	s.mu.Unlock()
	s.UpdateMessage(crawlMessage(s.label, files))
}

// Files returns the number of files observed so far.
func (s *Spinner) Files() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files
}

// UpdateMessage changes the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		s.lastMsg = message
		return
	}

	// Drop the update if the channel is full; the next one catches up.
	select {
	case s.msgChan <- message:
	default:
	}
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	// Close channel inside mutex to prevent race with UpdateMessage
	close(s.msgChan)
	s.mu.Unlock()

	if s.program != nil {
		s.program.Quit()
	}

	select {
	case <-s.done:
	case <-time.After(500 * time.Millisecond):
	}

	fmt.Fprint(s.out, "\r\033[K")
}
