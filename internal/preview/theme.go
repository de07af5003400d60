package preview

import "github.com/charmbracelet/lipgloss"

// Theme is the ANSI-256 palette for terminal ticket previews.
type Theme struct {
	Text    lipgloss.Color
	Faint   lipgloss.Color
	Heading lipgloss.Color
	Border  lipgloss.Color
	Link    lipgloss.Color
	Mention lipgloss.Color
	Done    lipgloss.Color
	Date    lipgloss.Color

	// Panel accents, keyed by ADF panel type.
	PanelInfo    lipgloss.Color
	PanelNote    lipgloss.Color
	PanelSuccess lipgloss.Color
	PanelWarning lipgloss.Color
	PanelError   lipgloss.Color

	// Status chip accents, keyed by the single-letter color code.
	StatusColors map[byte]lipgloss.Color
}

// DefaultTheme targets dark terminals.
var DefaultTheme = Theme{
	Text:    lipgloss.Color("252"),
	Faint:   lipgloss.Color("245"),
	Heading: lipgloss.Color("255"),
	Border:  lipgloss.Color("240"),
	Link:    lipgloss.Color("75"),
	Mention: lipgloss.Color("141"),
	Done:    lipgloss.Color("114"),
	Date:    lipgloss.Color("180"),

	PanelInfo:    lipgloss.Color("75"),  // blue
	PanelNote:    lipgloss.Color("141"), // purple
	PanelSuccess: lipgloss.Color("114"), // green
	PanelWarning: lipgloss.Color("214"), // orange
	PanelError:   lipgloss.Color("203"), // red

	StatusColors: map[byte]lipgloss.Color{
		'n': lipgloss.Color("245"),
		'r': lipgloss.Color("203"),
		'b': lipgloss.Color("75"),
		'g': lipgloss.Color("114"),
		'y': lipgloss.Color("221"),
		'p': lipgloss.Color("141"),
		't': lipgloss.Color("80"),
	},
}

func (t Theme) panelColor(panelType string) lipgloss.Color {
	switch panelType {
	case "info":
		return t.PanelInfo
	case "note":
		return t.PanelNote
	case "success":
		return t.PanelSuccess
	case "warning":
		return t.PanelWarning
	case "error":
		return t.PanelError
	}
	return t.Border
}

func (t Theme) statusColor(code byte) lipgloss.Color {
	if c, ok := t.StatusColors[code]; ok {
		return c
	}
	return t.Faint
}
