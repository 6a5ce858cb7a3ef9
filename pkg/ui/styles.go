package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired with semantic workspace colors
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors
	ColorBg          = lipgloss.Color("#282A36")
	ColorBgDark      = lipgloss.Color("#1E1F29")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	// Accent colors
	ColorPrimary = lipgloss.Color("#BD93F9")
	ColorInfo    = lipgloss.Color("#8BE9FD")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorDanger  = lipgloss.Color("#FF5555")

	// Linking group colors, indexed by model.LinkingColor
	ColorLinkRed    = lipgloss.Color("#FF5555")
	ColorLinkGreen  = lipgloss.Color("#50FA7B")
	ColorLinkBlue   = lipgloss.Color("#8BE9FD")
	ColorLinkYellow = lipgloss.Color("#F1FA8C")
)

// LinkColor maps a linking group to its terminal color.
func LinkColor(c model.LinkingColor) lipgloss.Color {
	switch c {
	case model.ColorRed:
		return ColorLinkRed
	case model.ColorGreen:
		return ColorLinkGreen
	case model.ColorBlue:
		return ColorLinkBlue
	case model.ColorYellow:
		return ColorLinkYellow
	default:
		return ColorMuted
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WINDOW CHROME - Floating window borders and title bars
// ══════════════════════════════════════════════════════════════════════════════

var (
	// WindowStyle is the border for unfocused windows
	WindowStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedWindowStyle is the border for the topmost window
	FocusedWindowStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	TitleDimStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext)

	RoleBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorBgDark).
			Bold(true)
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL CONTENT - Lists, fields, footers
// ══════════════════════════════════════════════════════════════════════════════

var (
	SelectedRowStyle = lipgloss.NewStyle().
				Background(ColorBgHighlight).
				Foreground(ColorText).
				Bold(true)

	RowStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(12)

	UnsavedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	VersionStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS BAR AND OVERLAYS
// ══════════════════════════════════════════════════════════════════════════════

var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgDark).
			Foreground(ColorSubtext)

	StatusKeyStyle = lipgloss.NewStyle().
			Background(ColorBgDark).
			Foreground(ColorPrimary).
			Bold(true)

	MinimizedChipStyle = lipgloss.NewStyle().
				Background(ColorBgHighlight).
				Foreground(ColorText).
				Padding(0, 1)

	SidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorBgHighlight)

	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)
