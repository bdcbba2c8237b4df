package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/marketpulse/internal/market"
	"github.com/zappabad/marketpulse/tui/styles"
)

// LoadingText is shown while the first snapshot is loading.
const LoadingText = "Loading market data..."

// MarketTablePanel displays the sorted, filtered market records.
type MarketTablePanel struct {
	records       []market.Record
	sort          market.SortState
	category      market.Category
	loading       bool
	selectedIndex int
	scrollOffset  int
	focused       bool
	width         int
	height        int
}

// NewMarketTablePanel creates a new market table panel.
func NewMarketTablePanel() *MarketTablePanel {
	return &MarketTablePanel{sort: market.DefaultSort(), loading: true}
}

// Init initializes the panel.
func (p *MarketTablePanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketTablePanel) Update(msg tea.Msg) (*MarketTablePanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
				if p.selectedIndex < p.scrollOffset {
					p.scrollOffset = p.selectedIndex
				}
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.records)-1 {
				p.selectedIndex++
				if visible := p.visibleRows(); p.selectedIndex >= p.scrollOffset+visible {
					p.scrollOffset = p.selectedIndex - visible + 1
				}
			}
		}
	}
	return p, nil
}

func (p *MarketTablePanel) visibleRows() int {
	if v := p.height - 5; v > 0 {
		return v
	}
	return 1
}

func (p *MarketTablePanel) nameWidth() int {
	// symbol, price, change, percent, volume columns and separators
	w := p.width - 4 - (8 + 12 + 10 + 9 + 12 + 5)
	if w < 8 {
		return 8
	}
	return w
}

func (p *MarketTablePanel) header() string {
	cols := []struct {
		col   market.Column
		label string
		width int
		left  bool
	}{
		{market.ColumnName, "[1] Name", p.nameWidth(), true},
		{market.ColumnPrice, "[2] Price", 12, false},
		{market.ColumnChange, "[3] Chg", 10, false},
		{market.ColumnChangePercent, "[4] %", 9, false},
		{market.ColumnVolume, "[5] Volume", 12, false},
	}

	parts := []string{styles.HeaderStyle.Render(fmt.Sprintf("%-8s", "Symbol"))}
	for _, c := range cols {
		label := c.label
		style := styles.HeaderStyle
		if c.col == p.sort.Column {
			style = styles.ActiveHeaderStyle
			if p.sort.Direction == market.Ascending {
				label += "▲"
			} else {
				label += "▼"
			}
		}
		if c.left {
			label = fmt.Sprintf("%-*s", c.width, label)
		} else {
			label = fmt.Sprintf("%*s", c.width, label)
		}
		parts = append(parts, style.Render(label))
	}
	return strings.Join(parts, " ")
}

func (p *MarketTablePanel) row(r market.Record) string {
	name := styles.Truncate(r.DisplayName(), p.nameWidth())
	changeStyle := styles.ChangeStyle(r.Change)
	return strings.Join([]string{
		fmt.Sprintf("%-8s", styles.Truncate(r.Symbol, 8)),
		name + strings.Repeat(" ", max(0, p.nameWidth()-lipgloss.Width(name))),
		fmt.Sprintf("%12s", styles.FormatPrice(r.Price)),
		changeStyle.Render(fmt.Sprintf("%10s", styles.FormatChange(r.Change))),
		changeStyle.Render(fmt.Sprintf("%9s", styles.FormatPercent(r.ChangePercent))),
		fmt.Sprintf("%12s", r.Volume.String()),
	}, " ")
}

// View renders the panel.
func (p *MarketTablePanel) View() string {
	var content strings.Builder

	content.WriteString(p.header())
	content.WriteString("\n")

	switch {
	case len(p.records) == 0 && p.loading:
		content.WriteString(styles.MutedStyle.Render(LoadingText))
	case len(p.records) == 0:
		content.WriteString(styles.MutedStyle.Render("No markets to show"))
	default:
		visible := p.visibleRows()
		end := min(p.scrollOffset+visible, len(p.records))
		for i := p.scrollOffset; i < end; i++ {
			line := p.row(p.records[i])
			if i == p.selectedIndex && p.focused {
				line = styles.SelectedRowStyle.Render(line)
			} else {
				line = styles.RowStyle.Render(line)
			}
			content.WriteString(line)
			if i < end-1 {
				content.WriteString("\n")
			}
		}
		if len(p.records) > visible {
			content.WriteString("\n")
			content.WriteString(styles.MutedStyle.Render(fmt.Sprintf(" (%d/%d)", p.selectedIndex+1, len(p.records))))
		}
	}

	// Apply panel styling
	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := "📈 Markets"
	if p.category != "" {
		title += " · " + string(p.category)
	}
	panel := lipgloss.JoinVertical(lipgloss.Left, styles.RenderTitle(title, p.focused), content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketTablePanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketTablePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetRecords replaces the rows. The selection follows the selected symbol.
func (p *MarketTablePanel) SetRecords(records []market.Record, sort market.SortState, category market.Category, loading bool) {
	selected := p.SelectedRecord().Symbol

	p.records = records
	p.sort = sort
	p.category = category
	p.loading = loading

	p.selectedIndex = 0
	for i, r := range records {
		if selected != "" && r.Symbol == selected {
			p.selectedIndex = i
			break
		}
	}
	if p.scrollOffset > p.selectedIndex {
		p.scrollOffset = p.selectedIndex
	}
	if visible := p.visibleRows(); p.selectedIndex >= p.scrollOffset+visible {
		p.scrollOffset = p.selectedIndex - visible + 1
	}
}

// SelectedRecord returns the currently selected record.
func (p *MarketTablePanel) SelectedRecord() market.Record {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.records) {
		return p.records[p.selectedIndex]
	}
	return market.Record{}
}

// Records returns the rows in display order.
func (p *MarketTablePanel) Records() []market.Record {
	return p.records
}
