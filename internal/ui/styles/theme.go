package styles

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/raphi011/wu/internal/config"
)

// Theme is the resolved color palette plus the code style that suits it.
type Theme struct {
	Primary color.Color // headers, borders
	Accent  color.Color // cursor, fuzzy matches
	Success color.Color // Web badge, fresh cache
	Error   color.Color
	Muted   color.Color // categories, sizes, help
	Normal  color.Color
	Info    color.Color
	Warning color.Color // HTB badge, expired cache, inline code

	// CodeStyle is the chroma style used for fenced code blocks when
	// render.code_style is not set.
	CodeStyle string
}

// swatch is a palette written as lipgloss color strings: ANSI256 indexes or
// hex. An empty field means "keep the base value" when merging.
type swatch struct {
	primary, accent, success, errorc, muted, normal, info, warning string
	code                                                           string
}

// over returns s with every non-empty field of o applied on top.
func (s swatch) over(o swatch) swatch {
	pick := func(base, v string) string {
		if v != "" {
			return v
		}
		return base
	}
	return swatch{
		primary: pick(s.primary, o.primary),
		accent:  pick(s.accent, o.accent),
		success: pick(s.success, o.success),
		errorc:  pick(s.errorc, o.errorc),
		muted:   pick(s.muted, o.muted),
		normal:  pick(s.normal, o.normal),
		info:    pick(s.info, o.info),
		warning: pick(s.warning, o.warning),
		code:    pick(s.code, o.code),
	}
}

func (s swatch) theme() Theme {
	c := func(v string) color.Color {
		if v == "" {
			return lipgloss.NoColor{}
		}
		return lipgloss.Color(v)
	}
	return Theme{
		Primary:   c(s.primary),
		Accent:    c(s.accent),
		Success:   c(s.success),
		Error:     c(s.errorc),
		Muted:     c(s.muted),
		Normal:    c(s.normal),
		Info:      c(s.info),
		Warning:   c(s.warning),
		CodeStyle: s.code,
	}
}

var (
	defaultDark = swatch{"62", "212", "82", "196", "240", "252", "244", "214", "monokai"}

	draculaDark = swatch{"#bd93f9", "#ff79c6", "#50fa7b", "#ff5555", "#6272a4", "#f8f8f2", "#8be9fd", "#ffb86c", "dracula"}

	nordDark  = swatch{"#88c0d0", "#b48ead", "#a3be8c", "#bf616a", "#4c566a", "#eceff4", "#81a1c1", "#ebcb8b", "nord"}
	nordLight = swatch{"#5e81ac", "#b48ead", "#a3be8c", "#bf616a", "#9a9a9a", "#2e3440", "#81a1c1", "#d08770", "github"}

	gruvboxDark  = swatch{"#83a598", "#d3869b", "#b8bb26", "#fb4934", "#665c54", "#ebdbb2", "#8ec07c", "#fabd2f", "gruvbox"}
	gruvboxLight = swatch{"#076678", "#8f3f71", "#79740e", "#9d0006", "#928374", "#3c3836", "#427b58", "#b57614", "gruvbox-light"}

	mocha = swatch{"#89b4fa", "#f5c2e7", "#a6e3a1", "#f38ba8", "#6c7086", "#cdd6f4", "#94e2d5", "#fab387", "catppuccin-mocha"}
	latte = swatch{"#1e66f5", "#ea76cb", "#40a02b", "#d20f39", "#9ca0b0", "#4c4f69", "#179299", "#fe640b", "catppuccin-latte"}

	// none keeps terminal colors; bold and underline still apply
	none = swatch{code: "bw"}
)

// family holds the variants of one preset. A nil variant does not exist.
type family struct {
	light, dark *swatch
}

var families = map[string]family{
	"none":       {light: &none, dark: &none},
	"default":    {dark: &defaultDark},
	"dracula":    {dark: &draculaDark},
	"nord":       {light: &nordLight, dark: &nordDark},
	"gruvbox":    {light: &gruvboxLight, dark: &gruvboxDark},
	"catppuccin": {light: &latte, dark: &mocha},
}

var currentTheme = defaultDark.theme()

// Current returns the active theme.
func Current() Theme {
	return currentTheme
}

// CodeStyle returns configured, or the active theme's code style when
// configured is empty.
func CodeStyle(configured string) string {
	if configured != "" {
		return configured
	}
	return currentTheme.CodeStyle
}

// Init resolves the theme from config and updates the package styles.
// Call it after loading config and before printing anything styled.
func Init(cfg config.ThemeConfig) {
	base := selectVariant(cfg)
	s := base.over(swatch{
		primary: cfg.Primary,
		accent:  cfg.Accent,
		success: cfg.Success,
		errorc:  cfg.Error,
		muted:   cfg.Muted,
		normal:  cfg.Normal,
		info:    cfg.Info,
		warning: cfg.Warning,
	})

	currentTheme = s.theme()
	applyTheme(currentTheme)
	SetNerdfont(cfg.Nerdfont)
}

func selectVariant(cfg config.ThemeConfig) swatch {
	fam, ok := families[cfg.Name]
	if !ok {
		if cfg.Name != "" {
			fmt.Fprintf(os.Stderr, "Warning: unknown theme %q, using default (available: %s)\n",
				cfg.Name, strings.Join(config.ValidThemeNames, ", "))
		}
		fam = families["default"]
	}

	var v *swatch
	switch cfg.Mode {
	case "light":
		v = fam.light
	case "dark":
		v = fam.dark
	case "", "auto":
		v = fam.detect()
	default:
		fmt.Fprintf(os.Stderr, "Warning: unknown theme mode %q, using auto (available: %s)\n",
			cfg.Mode, strings.Join(config.ValidThemeModes, ", "))
		v = fam.detect()
	}

	switch {
	case v != nil:
		return *v
	case fam.dark != nil:
		return *fam.dark
	default:
		return *fam.light
	}
}

// detect queries the terminal background, but only when the family has
// two different variants to choose from.
func (f family) detect() *swatch {
	if f.light == nil || f.dark == nil {
		return nil
	}
	if f.light == f.dark {
		return f.dark
	}
	if lipgloss.HasDarkBackground(os.Stdin, os.Stderr) {
		return f.dark
	}
	return f.light
}

// applyTheme rebuilds the package colors and styles from t.
func applyTheme(t Theme) {
	Primary, Accent, Success, Error = t.Primary, t.Accent, t.Success, t.Error
	Muted, Normal, Info, Warning = t.Muted, t.Normal, t.Info, t.Warning

	PrimaryStyle = lipgloss.NewStyle().Foreground(t.Primary)
	AccentStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(t.Success)
	ErrorStyle = lipgloss.NewStyle().Foreground(t.Error)
	MutedStyle = lipgloss.NewStyle().Foreground(t.Muted)
	NormalStyle = lipgloss.NewStyle().Foreground(t.Normal)
	InfoStyle = lipgloss.NewStyle().Foreground(t.Info).Italic(true)
	WarningStyle = lipgloss.NewStyle().Foreground(t.Warning)

	RoundedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)

	HighlightStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true).
		Underline(true)

	applyBadgeStyles(t)
}

// GetPreset returns the dark variant of a preset (the light one if there is
// no dark variant), or nil for an unknown name.
func GetPreset(name string) *Theme {
	fam, ok := families[name]
	if !ok {
		return nil
	}
	v := fam.dark
	if v == nil {
		v = fam.light
	}
	t := v.theme()
	return &t
}

// PresetNames lists the preset names in display order.
func PresetNames() []string {
	return config.ValidThemeNames
}
