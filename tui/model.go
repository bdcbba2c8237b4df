package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/marketpulse/internal/detail"
	feedview "github.com/zappabad/marketpulse/internal/feed/view"
	"github.com/zappabad/marketpulse/internal/market"
	"github.com/zappabad/marketpulse/internal/news"
	"github.com/zappabad/marketpulse/tui/panels"
	"github.com/zappabad/marketpulse/tui/styles"
)

// Feed is the read side of the poll scheduler.
type Feed interface {
	State() feedview.State
	Sorted(sort market.SortState, category market.Category) []market.Record
	Summary() market.Summary
	LatestNews(n int) []news.Item
	Events() <-chan feedview.FeedEvent
	Refresh()
}

// DetailLoader loads the detail view for a symbol.
type DetailLoader interface {
	Load(ctx context.Context, symbol string) (detail.View, error)
}

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket PanelFocus = 0
	FocusNews   PanelFocus = 1
)

const (
	newsItems     = 5
	detailTimeout = 30 * time.Second
)

var (
	quitKey     = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	refreshKey  = key.NewBinding(key.WithKeys("r"))
	categoryKey = key.NewBinding(key.WithKeys("c"))
	openKey     = key.NewBinding(key.WithKeys("enter"))
	closeKey    = key.NewBinding(key.WithKeys("esc"))
	tabKey      = key.NewBinding(key.WithKeys("tab"))
	sortKeys    = map[string]market.Column{
		"1": market.ColumnName,
		"2": market.ColumnPrice,
		"3": market.ColumnChange,
		"4": market.ColumnChangePercent,
		"5": market.ColumnVolume,
	}
)

// Model is the main TUI application model.
type Model struct {
	// Services
	feed   Feed
	loader DetailLoader
	logger *slog.Logger

	// Table query
	sort     market.SortState
	category market.Category

	// Detail modal
	modal detail.Modal

	// Panels
	summaryPanel *panels.SummaryPanel
	marketPanel  *panels.MarketTablePanel
	newsPanel    *panels.NewsPanel
	detailPanel  *panels.DetailPanel

	// Focus management
	focusedPanel PanelFocus

	// Window dimensions
	width  int
	height int

	// Status
	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model.
func NewModel(feed Feed, loader DetailLoader, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Model{
		feed:         feed,
		loader:       loader,
		logger:       logger,
		sort:         market.DefaultSort(),
		summaryPanel: panels.NewSummaryPanel(),
		marketPanel:  panels.NewMarketTablePanel(),
		newsPanel:    panels.NewNewsPanel(),
		detailPanel:  panels.NewDetailPanel(),
	}
	m.setFocus(FocusMarket)
	m.updateAllData()
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.newsPanel.Init(),
		m.listenFeedEvents(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			return m, tea.Quit
		}
		if m.modal.Status() != detail.ModalClosed {
			return m, m.updateModal(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.detailPanel.SetSize(m.modalSize())

	case FeedEventMsg:
		m.handleFeedEvent(msg.Event)
		cmds = append(cmds, m.listenFeedEvents())

	case DetailLoadedMsg:
		m.handleDetail(msg)
		return m, nil

	case tea.MouseMsg:
		if m.modal.Status() == detail.ModalOpen {
			var cmd tea.Cmd
			m.detailPanel, cmd = m.detailPanel.Update(msg)
			return m, cmd
		}
	}

	// Update focused panel
	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if col, ok := sortKeys[msg.String()]; ok {
		m.sort = m.sort.Toggle(col)
		m.updateTable()
		return nil, true
	}

	switch {
	case key.Matches(msg, refreshKey):
		m.feed.Refresh()
		m.statusMsg = "Refreshing..."
		return nil, true

	case key.Matches(msg, categoryKey):
		m.cycleCategory()
		return nil, true

	case key.Matches(msg, tabKey):
		m.cycleFocus()
		return nil, true

	case key.Matches(msg, openKey):
		if m.focusedPanel != FocusMarket {
			return nil, true
		}
		rec := m.marketPanel.SelectedRecord()
		if rec.Symbol == "" {
			return nil, true
		}
		return m.openDetail(rec.Symbol), true
	}
	return nil, false
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, closeKey):
		m.modal.Close()
		return nil
	case key.Matches(msg, tabKey):
		if m.modal.Status() == detail.ModalOpen {
			m.modal.CyclePersona()
			v, _ := m.modal.View()
			m.detailPanel.SetView(v, m.modal.Persona())
		}
		return nil
	}

	if m.modal.Status() != detail.ModalOpen {
		return nil
	}
	var cmd tea.Cmd
	m.detailPanel, cmd = m.detailPanel.Update(msg)
	return cmd
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
	case FocusNews:
		m.newsPanel, cmd = m.newsPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.modal.Status() != detail.ModalClosed {
		modal := m.detailPanel.View()
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, modal),
			m.renderStatusBar(),
		)
	}

	// Layout:
	// ┌─────────────────────────────────────────────┐
	// │ Summary bar / error banner                  │
	// ├──────────────────────────────┬──────────────┤
	// │ Markets                      │ News         │
	// └──────────────────────────────┴──────────────┘
	m.summaryPanel.SetSize(m.width)
	summary := m.summaryPanel.View()

	bodyHeight := m.height - m.summaryPanel.Height() - 1
	leftWidth := m.width * 3 / 5
	m.marketPanel.SetSize(leftWidth, bodyHeight)
	m.newsPanel.SetSize(m.width-leftWidth, bodyHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(),
		m.newsPanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, summary, body, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	help := func(k, desc string) string {
		return styles.StatusBarKeyStyle.Render(k) + styles.StatusBarDescStyle.Render(" "+desc)
	}

	var items []string
	if m.modal.Status() != detail.ModalClosed {
		items = []string{help("Tab", "persona"), help("↑↓", "scroll"), help("Esc", "close"), help("q", "quit")}
	} else {
		items = []string{help("1-5", "sort"), help("↑↓", "select"), help("Enter", "detail"),
			help("c", "category"), help("Tab", "panel"), help("r", "refresh"), help("q", "quit")}
	}

	parts := make([]string, 0, 2*len(items))
	for i, it := range items {
		if i > 0 {
			parts = append(parts, " │ ")
		}
		parts = append(parts, it)
	}
	helpStr := lipgloss.JoinHorizontal(lipgloss.Center, parts...)

	// Status message
	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).MaxHeight(1).Render(helpStr + status)
}

func (m *Model) modalSize() (int, int) {
	w := max(m.width*4/5, min(m.width, 40))
	h := max(m.height-4, min(m.height-1, 10))
	return w, h
}

func (m *Model) setFocus(panel PanelFocus) {
	m.focusedPanel = panel
	m.marketPanel.SetFocus(panel == FocusMarket)
	m.newsPanel.SetFocus(panel == FocusNews)
}

func (m *Model) cycleFocus() {
	m.setFocus((m.focusedPanel + 1) % 2)
}

// cycleCategory moves the filter through "" and every category present.
func (m *Model) cycleCategory() {
	cats := market.Categories(m.feed.State().Snapshot.Records)
	next := market.Category("")
	if m.category == "" {
		if len(cats) > 0 {
			next = cats[0]
		}
	} else {
		for i, c := range cats {
			if c == m.category && i+1 < len(cats) {
				next = cats[i+1]
				break
			}
		}
	}
	m.category = next
	m.updateTable()
}

func (m *Model) handleFeedEvent(ev feedview.FeedEvent) {
	switch ev.Kind {
	case feedview.EventLoaded:
		m.statusMsg = ""
	case feedview.EventFailed:
		m.statusMsg = ""
		m.logger.Warn("market data refresh failed", "error", ev.Err)
	}
	m.updateAllData()
}

func (m *Model) updateAllData() {
	m.updateTable()
	m.summaryPanel.SetData(m.feed.Summary(), m.feed.State())
	m.newsPanel.SetNews(m.feed.LatestNews(newsItems))
}

func (m *Model) updateTable() {
	state := m.feed.State()
	loading := state.Status == feedview.StatusIdle || state.Status == feedview.StatusLoading
	m.marketPanel.SetRecords(m.feed.Sorted(m.sort, m.category), m.sort, m.category, loading)
}

func (m *Model) openDetail(symbol string) tea.Cmd {
	token := m.modal.Request(symbol)
	m.detailPanel.SetLoading(symbol)
	m.statusMsg = ""
	return m.loadDetail(token, symbol)
}

func (m *Model) loadDetail(token uint64, symbol string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()
		v, err := m.loader.Load(ctx, symbol)
		return DetailLoadedMsg{Token: token, Symbol: symbol, View: v, Err: err}
	}
}

func (m *Model) handleDetail(msg DetailLoadedMsg) {
	if !m.modal.Pending(msg.Token) {
		return
	}
	if msg.Err != nil {
		m.modal.Fail(msg.Token, msg.Err)
	} else if m.modal.Resolve(msg.Token, msg.View) {
		m.detailPanel.SetView(msg.View, m.modal.Persona())
		return
	}
	m.statusMsg = detailErrorMessage(msg.Symbol, m.modal.Err())
	m.logger.Warn("detail load failed", "symbol", msg.Symbol, "error", m.modal.Err())
}

func detailErrorMessage(symbol string, err error) string {
	switch {
	case errors.Is(err, detail.ErrUnknownSymbol):
		return "No detail available for " + symbol
	case errors.Is(err, detail.ErrNotFound):
		return "Detail data not found for " + symbol
	case errors.Is(err, detail.ErrIncomplete):
		return "Detail data incomplete for " + symbol
	default:
		return "Failed to load detail for " + symbol
	}
}

func (m *Model) listenFeedEvents() tea.Cmd {
	return func() tea.Msg {
		events := m.feed.Events()
		ev, ok := <-events
		if !ok {
			return nil
		}
		return FeedEventMsg{Event: ev}
	}
}

// FeedEventMsg carries one event from the poll scheduler.
type FeedEventMsg struct {
	Event feedview.FeedEvent
}

// DetailLoadedMsg is sent when a detail load finishes.
type DetailLoadedMsg struct {
	Token  uint64
	Symbol string
	View   detail.View
	Err    error
}
