package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme
type Theme struct {
	Name      string
	HeaderBG  string
	HeaderTxt string
	ItemTxt   string
	SelBG     string
	SelTxt    string
	Accent    string
	Dim       string
	Error     string
}

// Available themes
var (
	ThemeClassic = Theme{
		Name:      "Classic iPod",
		HeaderBG:  "#A0A0A0",
		HeaderTxt: "#000000",
		ItemTxt:   "#D0D0D0",
		SelBG:     "#4A90E2",
		SelTxt:    "#FFFFFF",
		Accent:    "#4A90E2",
		Dim:       "#808080",
		Error:     "#FF5555",
	}

	ThemeDark = Theme{
		Name:      "Dark",
		HeaderBG:  "#0A0A0A",
		HeaderTxt: "#FFFFFF",
		ItemTxt:   "#FFFFFF",
		SelBG:     "#333333",
		SelTxt:    "#FFFFFF",
		Accent:    "#FFFFFF",
		Dim:       "#777777",
		Error:     "#FF5555",
	}

	ThemeGreen = Theme{
		Name:      "Matrix Green",
		HeaderBG:  "#001100",
		HeaderTxt: "#00FF41",
		ItemTxt:   "#00FF41",
		SelBG:     "#003300",
		SelTxt:    "#00FF41",
		Accent:    "#00FF41",
		Dim:       "#006600",
		Error:     "#FF5555",
	}

	ThemeRetro = Theme{
		Name:      "Retro Amber",
		HeaderBG:  "#0F0800",
		HeaderTxt: "#FFAA00",
		ItemTxt:   "#FFAA00",
		SelBG:     "#332200",
		SelTxt:    "#FFAA00",
		Accent:    "#FFAA00",
		Dim:       "#885500",
		Error:     "#FF5555",
	}

	ThemeNord = Theme{
		Name:      "Nord",
		HeaderBG:  "#3B4252",
		HeaderTxt: "#ECEFF4",
		ItemTxt:   "#ECEFF4",
		SelBG:     "#5E81AC",
		SelTxt:    "#ECEFF4",
		Accent:    "#88C0D0",
		Dim:       "#4C566A",
		Error:     "#BF616A",
	}
)

// AllThemes returns all available themes in order
func AllThemes() []Theme {
	return []Theme{
		ThemeClassic,
		ThemeDark,
		ThemeGreen,
		ThemeRetro,
		ThemeNord,
	}
}

// ThemeByName finds a theme case-insensitively, falling back to Classic.
func ThemeByName(name string) Theme {
	for _, t := range AllThemes() {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return ThemeClassic
}

type styles struct {
	tab       lipgloss.Style
	activeTab lipgloss.Style
	item      lipgloss.Style
	selected  lipgloss.Style
	playing   lipgloss.Style
	dim       lipgloss.Style
	title     lipgloss.Style
	panel     lipgloss.Style
	message   lipgloss.Style
	errorMsg  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Dim)).
			Padding(0, 1),
		activeTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.HeaderTxt)).
			Background(lipgloss.Color(t.HeaderBG)).
			Bold(true).
			Padding(0, 1),
		item: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.ItemTxt)),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.SelTxt)).
			Background(lipgloss.Color(t.SelBG)),
		playing: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Dim)),
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Dim)).
			Padding(0, 1),
		message: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),
		errorMsg: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)).
			Bold(true),
	}
}
