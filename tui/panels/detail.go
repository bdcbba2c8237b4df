package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/marketpulse/internal/detail"
	"github.com/zappabad/marketpulse/tui/styles"
)

// DetailPanel is the scrollable modal showing one market's detail view.
type DetailPanel struct {
	viewport viewport.Model
	view     detail.View
	persona  detail.Persona
	loading  string
	width    int
	height   int
	ready    bool
}

// NewDetailPanel creates a new detail panel.
func NewDetailPanel() *DetailPanel {
	return &DetailPanel{persona: detail.PersonaAll}
}

// Update scrolls the viewport.
func (p *DetailPanel) Update(msg tea.Msg) (*DetailPanel, tea.Cmd) {
	if !p.ready {
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// SetSize sets the modal dimensions.
func (p *DetailPanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	vpWidth := max(width-4, 10)
	vpHeight := max(height-5, 3)
	if !p.ready {
		p.viewport = viewport.New(vpWidth, vpHeight)
		p.viewport.MouseWheelEnabled = true
		p.ready = true
	}
	p.viewport.Width = vpWidth
	p.viewport.Height = vpHeight
	p.refresh()
}

// SetLoading shows the loading state for symbol.
func (p *DetailPanel) SetLoading(symbol string) {
	p.loading = symbol
	p.view = detail.View{}
	p.refresh()
}

// SetView shows v filtered to persona and scrolls to the top when v changes.
func (p *DetailPanel) SetView(v detail.View, persona detail.Persona) {
	changed := p.loading != "" || p.view.Key != v.Key
	p.loading = ""
	p.view = v
	p.persona = persona
	p.refresh()
	if changed && p.ready {
		p.viewport.GotoTop()
	}
}

func (p *DetailPanel) refresh() {
	if !p.ready {
		return
	}
	if p.loading != "" {
		p.viewport.SetContent(styles.MutedStyle.Render("Loading " + p.loading + "..."))
		return
	}
	p.viewport.SetContent(RenderDetail(p.view, p.persona, p.viewport.Width))
}

// View renders the modal.
func (p *DetailPanel) View() string {
	title := "🔎 Market Detail"
	if p.view.Key != "" {
		title = fmt.Sprintf("🔎 %s (%s)", p.view.Name, p.view.Symbol)
	}

	tabs := make([]string, 0, len(detail.Personas))
	for _, persona := range detail.Personas {
		style := styles.TabStyle
		if persona == p.persona {
			style = styles.ActiveTabStyle
		}
		tabs = append(tabs, style.Render(persona.Label()))
	}

	footer := styles.MutedStyle.Render(fmt.Sprintf("tab persona │ ↑↓ scroll │ esc close │ %3.f%%", p.viewport.ScrollPercent()*100))

	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.RenderTitle(title, true),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		p.viewport.View(),
		footer,
	)
	return styles.ModalStyle.Width(p.width - 2).Height(p.height - 2).Render(body)
}

// RenderDetail renders the sections of v for a content width.
func RenderDetail(v detail.View, persona detail.Persona, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width, 10))
	var b strings.Builder

	section := func(title string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(styles.SectionStyle.Render(title))
		b.WriteString("\n")
	}

	// Price header
	name := v.Name
	if v.LocalName != "" && v.LocalName != v.Name {
		name += " · " + v.LocalName
	}
	b.WriteString(styles.PriceStyle.Bold(true).Render(name))
	b.WriteString("\n")
	price := styles.FormatPrice(v.Price)
	if v.Unit != "" {
		price += " " + v.Unit
	}
	b.WriteString(price + "  ")
	b.WriteString(styles.ChangeStyle(v.Change).Render(styles.FormatChange(v.Change) + " (" + styles.FormatPercent(v.ChangePercent) + ")"))
	if v.LastUpdate != "" {
		b.WriteString(styles.TimeStyle.Render("  as of " + v.LastUpdate))
	}

	if len(v.KeyMetrics) > 0 {
		section("Key Metrics")
		for _, m := range v.KeyMetrics {
			b.WriteString(fmt.Sprintf("%s %-24s %s\n", trendMark(m.Trend), m.Label, m.Value))
		}
	}

	if v.QuickSummary != "" {
		section("Summary")
		b.WriteString(wrap.Render(v.QuickSummary))
	}

	if len(v.RegionalImpacts) > 0 {
		section("Regional Impact")
		for i, ri := range v.RegionalImpacts {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fmt.Sprintf("%s %-10s %3d  %s / %s\n", trendMark(ri.Trend), ri.Region.Label(), ri.Score, ri.Level, ri.Level.LocalLabel()))
			if ri.Summary != "" {
				b.WriteString(wrap.Render("  " + ri.Summary))
				b.WriteString("\n")
			}
			if ri.Insight != "" {
				b.WriteString(styles.MutedStyle.Render(wrap.Render("  " + ri.Insight)))
				b.WriteString("\n")
			}
			for _, f := range ri.KeyFactors {
				b.WriteString(wrap.Render("  • " + f))
				b.WriteString("\n")
			}
		}
	}

	section("Recommendations · " + persona.Label())
	recs := v.RecommendationsFor(persona)
	if len(recs) == 0 {
		b.WriteString(styles.MutedStyle.Render("No recommendations for this persona"))
	}
	for i, r := range recs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := r.PersonaName
		if label == "" {
			label = r.Persona.Label()
		}
		b.WriteString(styles.HeaderStyle.Render(label))
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("  risk %s · opportunity %s", r.Risk(), r.Opportunity())))
		for _, line := range []string{r.MarketSituation, r.PowerInsight, r.ActionRecommendation} {
			if line != "" {
				b.WriteString("\n")
				b.WriteString(wrap.Render(line))
			}
		}
	}

	if v.TopNews != nil {
		section("Top News")
		b.WriteString(severityStyle(v.TopNews.ImpactScore).Render(v.TopNews.Title))
		b.WriteString(styles.TimeStyle.Render(fmt.Sprintf("  impact %.0f", v.TopNews.ImpactScore)))
		if v.TopNews.Summary != "" {
			b.WriteString("\n")
			b.WriteString(wrap.Render(v.TopNews.Summary))
		}
		if v.TopNews.Link != "" {
			b.WriteString("\n")
			b.WriteString(styles.MutedStyle.Render(v.TopNews.Link))
		}
	}

	if len(v.Forecasts) > 0 {
		section("Price Forecast")
		for _, f := range v.Forecasts {
			b.WriteString(fmt.Sprintf("%-8s %-12s %10s  %s\n", f.Quarter, f.Date, f.Forecast, f.Action))
		}
	}

	if v.Report != "" {
		section("Report")
		b.WriteString(wrap.Render(v.Report))
	}

	return strings.TrimRight(b.String(), "\n")
}

func trendMark(t detail.Trend) string {
	switch t {
	case detail.TrendUp:
		return styles.PriceUpStyle.Render("▲")
	case detail.TrendDown:
		return styles.PriceDownStyle.Render("▼")
	default:
		return styles.PriceFlatStyle.Render("●")
	}
}
