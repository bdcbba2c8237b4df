package styles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	AccentColor    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	UpColor      = lipgloss.Color("#10B981") // Green
	DownColor    = lipgloss.Color("#EF4444") // Red
	NeutralColor = lipgloss.Color("#6B7280") // Gray

	// Background colors
	BackgroundColor      = lipgloss.Color("#1F2937")
	PanelBackgroundColor = lipgloss.Color("#111827")
	BorderColor          = lipgloss.Color("#374151")
	FocusBorderColor     = lipgloss.Color("#7C3AED")
	ErrorBackgroundColor = lipgloss.Color("#7F1D1D")

	// Text colors
	TextColor          = lipgloss.Color("#F9FAFB")
	TextSecondaryColor = lipgloss.Color("#9CA3AF")
	TextMutedColor     = lipgloss.Color("#6B7280")
)

// Panel styles
var (
	// Base panel style
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// Focused panel style
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(FocusBorderColor).
				Padding(0, 1)

	// Modal style
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	// Panel title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	// Section heading inside the modal
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// Header row style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextSecondaryColor)

	ActiveHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)

	// Row styles
	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(lipgloss.Color("#374151"))
)

// Text styles
var (
	// Price styles
	PriceStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	PriceUpStyle = lipgloss.NewStyle().
			Foreground(UpColor)

	PriceDownStyle = lipgloss.NewStyle().
			Foreground(DownColor)

	PriceFlatStyle = lipgloss.NewStyle().
			Foreground(NeutralColor)

	// Timestamp style
	TimeStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	// News severity styles
	NewsNormalStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	NewsMediumStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	NewsImportantStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(DownColor)

	// Error banner
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(ErrorBackgroundColor).
			Padding(0, 1)

	// Active persona tab
	TabStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 1)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(BackgroundColor).
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	StatusBarDescStyle = lipgloss.NewStyle().
				Foreground(TextSecondaryColor)
)

// Helper function to render a title bar for a panel
func RenderTitle(title string, focused bool) string {
	style := TitleStyle
	if focused {
		style = style.Foreground(FocusBorderColor)
	}
	return style.Render(title)
}

// ChangeStyle picks the up, down or flat style for a signed value.
func ChangeStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return PriceUpStyle
	case v < 0:
		return PriceDownStyle
	default:
		return PriceFlatStyle
	}
}

// FormatPrice formats a price with two decimals and thousands separators.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatChange formats a signed change, e.g. "+1.25".
func FormatChange(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if v > 0 {
		return "+" + FormatPrice(v)
	}
	return FormatPrice(v)
}

// FormatPercent formats a signed percent, e.g. "-0.51%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

// Truncate shortens s to width cells, adding an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
