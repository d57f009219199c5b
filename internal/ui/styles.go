package ui

import "github.com/charmbracelet/lipgloss"

const (
	accent    = lipgloss.Color("#12A37F")
	accentAlt = lipgloss.Color("#5ED3B4")
	muted     = lipgloss.Color("#6B7280")
	danger    = lipgloss.Color("#FF4757")
	warning   = lipgloss.Color("#F5B041")
	info      = lipgloss.Color("#4A90E2")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	MappedStyle = lipgloss.NewStyle().
			Foreground(accentAlt)

	MutedStyle = lipgloss.NewStyle().
			Foreground(muted)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(info)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(accentAlt).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
)
