package panels

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/marketpulse/internal/news"
	"github.com/zappabad/marketpulse/tui/styles"
)

// NewsPanel displays the latest news across markets.
type NewsPanel struct {
	news          []news.Item
	selectedIndex int
	scrollOffset  int
	focused       bool
	width         int
	height        int
	now           func() time.Time
}

// NewNewsPanel creates a new news panel.
func NewNewsPanel() *NewsPanel {
	return &NewsPanel{now: time.Now}
}

// Init initializes the panel.
func (p *NewsPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *NewsPanel) Update(msg tea.Msg) (*NewsPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
				// Adjust scroll to keep selection in view
				if p.selectedIndex < p.scrollOffset {
					p.scrollOffset = p.selectedIndex
				}
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.news)-1 {
				p.selectedIndex++
				// Adjust scroll to keep selection in view
				visibleItems := p.visibleItems()
				if p.selectedIndex >= p.scrollOffset+visibleItems {
					p.scrollOffset = p.selectedIndex - visibleItems + 1
				}
			}
		}
	}
	return p, nil
}

// Each item takes a headline line and a meta line.
func (p *NewsPanel) visibleItems() int {
	if v := (p.height - 4) / 2; v > 0 {
		return v
	}
	return 1
}

func severityStyle(score float64) lipgloss.Style {
	switch news.SeverityOf(score) {
	case news.SeverityHigh:
		return styles.NewsImportantStyle
	case news.SeverityMedium:
		return styles.NewsMediumStyle
	default:
		return styles.NewsNormalStyle
	}
}

// View renders the panel.
func (p *NewsPanel) View() string {
	var content strings.Builder

	if len(p.news) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No news available"))
	} else {
		visibleItems := p.visibleItems()
		start := p.scrollOffset
		end := min(start+visibleItems, len(p.news))
		now := p.now()

		for i := start; i < end; i++ {
			item := p.news[i]

			headline := styles.Truncate(item.Title, p.width-6)
			line := severityStyle(item.MaxScore()).Render(headline)
			if i == p.selectedIndex && p.focused {
				line = styles.SelectedRowStyle.Render(headline)
			}

			age := item.Published
			if t, ok := item.PublishedTime(); ok {
				age = news.FormatAge(t, now)
			}
			meta := styles.TimeStyle.Render(fmt.Sprintf("  %s · %s · impact %.0f", age, item.Market, item.MaxScore()))

			content.WriteString(line)
			content.WriteString("\n")
			content.WriteString(meta)
			if i < end-1 {
				content.WriteString("\n")
			}
		}

		// Scroll indicator
		if len(p.news) > visibleItems {
			scrollInfo := fmt.Sprintf(" (%d/%d)", p.selectedIndex+1, len(p.news))
			content.WriteString("\n")
			content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(scrollInfo))
		}
	}

	// Apply panel styling
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📰 Latest News", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *NewsPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *NewsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetNews sets the news items.
func (p *NewsPanel) SetNews(items []news.Item) {
	p.news = items
	// Reset selection if out of bounds
	if p.selectedIndex >= len(p.news) {
		p.selectedIndex = max(len(p.news)-1, 0)
	}
	if p.scrollOffset > p.selectedIndex {
		p.scrollOffset = p.selectedIndex
	}
}

// SelectedNews returns the currently selected news item.
func (p *NewsPanel) SelectedNews() *news.Item {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.news) {
		return &p.news[p.selectedIndex]
	}
	return nil
}
