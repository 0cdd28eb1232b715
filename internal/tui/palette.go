package tui

import "github.com/charmbracelet/lipgloss"

// Colors pick the light variant on light terminal backgrounds.
var (
	ColorInk       = lipgloss.AdaptiveColor{Light: "#2E3440", Dark: "#E5E9F0"}
	ColorDim       = lipgloss.AdaptiveColor{Light: "#6B7385", Dark: "#7A8291"}
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#2B6F86", Dark: "#88C0D0"}
	ColorAccentAlt = lipgloss.AdaptiveColor{Light: "#3D5F8F", Dark: "#81A1C1"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#4C7A34", Dark: "#A3BE8C"}
	ColorWarn      = lipgloss.AdaptiveColor{Light: "#9A6B00", Dark: "#EBCB8B"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#A3313B", Dark: "#BF616A"}
)
