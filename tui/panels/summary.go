package panels

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	feedview "github.com/zappabad/marketpulse/internal/feed/view"
	"github.com/zappabad/marketpulse/internal/market"
	"github.com/zappabad/marketpulse/tui/styles"
)

// SummaryPanel is the one-line counts bar above the table.
type SummaryPanel struct {
	summary market.Summary
	state   feedview.State
	width   int
}

// NewSummaryPanel creates a new summary panel.
func NewSummaryPanel() *SummaryPanel {
	return &SummaryPanel{}
}

// SetSize sets the panel width.
func (p *SummaryPanel) SetSize(width int) {
	p.width = width
}

// SetData replaces the counts and the feed state.
func (p *SummaryPanel) SetData(summary market.Summary, state feedview.State) {
	p.summary = summary
	p.state = state
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

// View renders the bar and, in the error state, the banner below it.
func (p *SummaryPanel) View() string {
	cell := func(label string, value int, style lipgloss.Style) string {
		return styles.HeaderStyle.Render(label+" ") + style.Render(fmt.Sprintf("%d", value))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		cell("Assets", p.summary.Total, styles.PriceStyle), "  ",
		cell("▲ Gainers", p.summary.Gainers, styles.PriceUpStyle), "  ",
		cell("▼ Losers", p.summary.Losers, styles.PriceDownStyle), "  ",
		cell("● Unchanged", p.summary.Unchanged, styles.PriceFlatStyle), "  ",
		styles.TimeStyle.Render(fmt.Sprintf("Updated %s", formatClock(p.state.LastSuccess))),
	)
	if p.state.Snapshot.Source != "" {
		bar += styles.TimeStyle.Render(" · " + p.state.Snapshot.Source)
	}
	if p.state.Status == feedview.StatusLoading {
		bar += styles.TimeStyle.Render(" · refreshing")
	}

	out := styles.StatusBarStyle.Width(p.width).MaxHeight(1).Render(bar)
	if banner := p.Banner(); banner != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, styles.BannerStyle.Width(p.width).Render(styles.Truncate(banner, p.width-2)))
	}
	return out
}

// Banner returns the error banner text, or "" outside the error state.
func (p *SummaryPanel) Banner() string {
	if p.state.Status != feedview.StatusError {
		return ""
	}
	msg := p.state.Message
	if msg == "" {
		msg = feedview.DefaultErrorMessage
	}
	if p.state.HasData() {
		return fmt.Sprintf("⚠ %s · showing data from %s · press r to retry", msg, formatClock(p.state.LastSuccess))
	}
	return fmt.Sprintf("⚠ %s · press r to retry", msg)
}

// Height returns the rendered height.
func (p *SummaryPanel) Height() int {
	if p.Banner() != "" {
		return 2
	}
	return 1
}
