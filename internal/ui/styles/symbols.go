package styles

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
	"github.com/raphi011/wu/internal/writeup"
)

// Symbols holds the icon/symbol set based on nerdfont configuration
type Symbols struct {
	Document string
	Folder   string
	Web      string
	HTB      string
	Loading  string
	Failed   string
}

// Default symbols (ASCII-safe)
var defaultSymbols = Symbols{
	Document: "•",
	Folder:   "▸",
	Web:      "◆",
	HTB:      "■",
	Loading:  "…",
	Failed:   "✕",
}

// Nerd font symbols
var nerdfontSymbols = Symbols{
	Document: "\ueb1d", // nf-cod-markdown
	Folder:   "\uf07b", // nf-fa-folder
	Web:      "\uf0ac", // nf-fa-globe
	HTB:      "\uf1b2", // nf-fa-cube
	Loading:  "\uf110", // nf-fa-spinner
	Failed:   "\uea87", // nf-cod-error
}

// useNerdfont tracks whether nerd font symbols are enabled
var useNerdfont bool

// currentSymbols holds the active symbol set
var currentSymbols = defaultSymbols

// SetNerdfont enables or disables nerd font symbols
func SetNerdfont(enabled bool) {
	useNerdfont = enabled
	if enabled {
		currentSymbols = nerdfontSymbols
	} else {
		currentSymbols = defaultSymbols
	}
}

// NerdfontEnabled returns whether nerd font symbols are enabled
func NerdfontEnabled() bool {
	return useNerdfont
}

// CurrentSymbols returns the current symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}

// BadgeSymbol returns the glyph for a badge, or "" for unknown badges.
func BadgeSymbol(b writeup.Badge) string {
	switch b {
	case writeup.BadgeWeb:
		return currentSymbols.Web
	case writeup.BadgeHTB:
		return currentSymbols.HTB
	default:
		return ""
	}
}

// FormatBadge renders a colored badge label like "◆ Web".
func FormatBadge(b writeup.Badge) string {
	symbol := BadgeSymbol(b)
	if symbol == "" {
		return ""
	}
	label := fmt.Sprintf("%s %s", symbol, b)
	if b == writeup.BadgeWeb {
		return BadgeWebStyle.Render(label)
	}
	return BadgeHTBStyle.Render(label)
}

// FormatBadgeCount renders a badge with its item count, e.g. "■ HTB 12".
func FormatBadgeCount(b writeup.Badge, n int) string {
	badge := FormatBadge(b)
	if badge == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", badge, MutedStyle.Render(fmt.Sprintf("%d", n)))
}

// Hyperlink wraps text in an OSC 8 hyperlink and underlines it.
// Without a URL the text is returned unchanged.
func Hyperlink(url, text string) string {
	if url == "" {
		return text
	}
	return ansi.SetHyperlink(url) + Underline.Render(text) + ansi.ResetHyperlink()
}
