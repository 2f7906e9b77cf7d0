// Package render turns writeup markdown into terminal text or HTML.
//
// Both renderers parse with goldmark and the GFM extension and highlight
// fenced code with chroma. Terminal output is styled with lipgloss using
// the active ui theme; HTML output is a fragment meant to be embedded in
// the page served by `wu serve`.
package render

import (
	"github.com/charmbracelet/colorprofile"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// DefaultWidth is used for rules and wrapping when no width is known.
const DefaultWidth = 80

type options struct {
	codeStyle string
	profile   colorprofile.Profile
}

// Option configures a renderer.
type Option func(*options)

// WithCodeStyle sets the chroma style name for code blocks.
// Unknown names fall back to chroma's default style.
func WithCodeStyle(name string) Option {
	return func(o *options) {
		if name != "" {
			o.codeStyle = name
		}
	}
}

// WithProfile sets the terminal color profile for code highlighting.
// ASCII and NoTTY profiles disable highlighting.
func WithProfile(p colorprofile.Profile) Option {
	return func(o *options) {
		o.profile = p
	}
}

func newOptions(opts []Option) options {
	o := options{
		codeStyle: DefaultCodeStyle,
		profile:   colorprofile.TrueColor,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
