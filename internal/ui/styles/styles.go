// Package styles provides shared lipgloss styles for UI components.
//
// This package centralizes color definitions and styling to ensure
// visual consistency across the browser, list output and the terminal
// document renderer.
package styles

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Primary colors used throughout the UI
var (
	// Primary is the main accent color (cyan/teal)
	Primary color.Color = lipgloss.Color("62")

	// Accent is the highlight color for selected/active items (pink)
	Accent color.Color = lipgloss.Color("212")

	// Success is used for the Web badge and positive outcomes (green)
	Success color.Color = lipgloss.Color("82")

	// Error is used for error messages (red)
	Error color.Color = lipgloss.Color("196")

	// Muted is used for disabled/inactive text (gray)
	Muted color.Color = lipgloss.Color("240")

	// Normal is the standard text color (light gray)
	Normal color.Color = lipgloss.Color("252")

	// Info is used for informational text (gray)
	Info color.Color = lipgloss.Color("244")

	// Warning is used for the HTB badge and stale data (orange)
	Warning color.Color = lipgloss.Color("214")
)

// Common styles
var (
	// Bold applies bold formatting
	Bold = lipgloss.NewStyle().Bold(true)

	// Italic applies italic formatting
	Italic = lipgloss.NewStyle().Italic(true)

	// Underline applies underline formatting
	Underline = lipgloss.NewStyle().Underline(true)

	PrimaryStyle = lipgloss.NewStyle().Foreground(Primary)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(Success)

	ErrorStyle = lipgloss.NewStyle().Foreground(Error)

	MutedStyle = lipgloss.NewStyle().Foreground(Muted)

	NormalStyle = lipgloss.NewStyle().Foreground(Normal)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Info).
			Italic(true)

	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
)

// Border styles
var (
	// RoundedBorder creates a rounded border with primary color
	RoundedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)
)

// Text highlighting styles
var (
	// HighlightStyle for fuzzy-matched characters (pink, bold, underline)
	HighlightStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			Underline(true)
)

// Badge styles
var (
	// BadgeWebStyle labels writeups from web challenge directories
	BadgeWebStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	// BadgeHTBStyle labels all other writeups
	BadgeHTBStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)
)

func applyBadgeStyles(t Theme) {
	BadgeWebStyle = lipgloss.NewStyle().Foreground(t.Success).Bold(true)
	BadgeHTBStyle = lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
}
