package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zappabad/marketpulse/internal/detail"
	feedview "github.com/zappabad/marketpulse/internal/feed/view"
	"github.com/zappabad/marketpulse/internal/market"
	"github.com/zappabad/marketpulse/internal/news"
	"github.com/zappabad/marketpulse/tui/panels"
)

type fakeFeed struct {
	view      *feedview.FeedView
	events    chan feedview.FeedEvent
	news      []news.Item
	refreshes int
}

func newFakeFeed(records ...market.Record) *fakeFeed {
	f := &fakeFeed{view: feedview.NewFeedView(), events: make(chan feedview.FeedEvent, 8)}
	if len(records) > 0 {
		f.view.Succeed(market.Snapshot{Records: records, Source: "primary"}, time.Now())
	}
	return f
}

func (f *fakeFeed) State() feedview.State { return f.view.State() }
func (f *fakeFeed) Sorted(s market.SortState, c market.Category) []market.Record {
	return f.view.Sorted(s, c)
}
func (f *fakeFeed) Summary() market.Summary           { return f.view.Summary() }
func (f *fakeFeed) LatestNews(n int) []news.Item      { return news.Latest(f.news, n) }
func (f *fakeFeed) Events() <-chan feedview.FeedEvent { return f.events }
func (f *fakeFeed) Refresh()                          { f.refreshes++ }

type fakeLoader struct {
	views map[string]detail.View
	calls []string
}

func (l *fakeLoader) Load(_ context.Context, symbol string) (detail.View, error) {
	l.calls = append(l.calls, symbol)
	v, ok := l.views[symbol]
	if !ok {
		return detail.View{}, detail.ErrUnknownSymbol
	}
	return v, nil
}

var testRecords = []market.Record{
	{Symbol: "CO", Name: "Crude Oil", Price: 78.2, Change: 1.1, ChangePercent: 1.43, Category: market.CategoryEnergy},
	{Symbol: "SUGAR", Name: "Sugar", Price: 19.5, Change: -0.2, ChangePercent: -1.01, Category: market.CategoryAgriculture},
	{Symbol: "GOLD", Name: "Gold", Price: 2650, Change: 0, ChangePercent: 0, Category: market.CategoryMetal},
}

func crudeView() detail.View {
	return detail.View{Key: detail.KeyCrudeOil, Symbol: "CO", Name: "Crude Oil", Price: 78.2,
		Recommendations: []detail.Recommendation{
			{Persona: detail.PersonaSME, MarketSituation: "sme advice"},
			{Persona: detail.PersonaInvestor, MarketSituation: "investor advice"},
		}}
}

func newTestModel(t *testing.T, feed *fakeFeed, loader *fakeLoader) *Model {
	t.Helper()
	m := NewModel(feed, loader, nil)
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return m
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func symbols(records []market.Record) string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Symbol
	}
	return strings.Join(out, ",")
}

func TestModelSortKeys(t *testing.T) {
	m := newTestModel(t, newFakeFeed(testRecords...), &fakeLoader{})

	if got := symbols(m.marketPanel.Records()); got != "CO,GOLD,SUGAR" {
		t.Fatalf("expected name ascending, got %s", got)
	}

	press(m, "2")
	if got := symbols(m.marketPanel.Records()); got != "SUGAR,CO,GOLD" {
		t.Errorf("expected price ascending, got %s", got)
	}

	press(m, "2")
	if got := symbols(m.marketPanel.Records()); got != "GOLD,CO,SUGAR" {
		t.Errorf("expected price descending, got %s", got)
	}
	if m.sort.Direction != market.Descending {
		t.Errorf("expected descending, got %v", m.sort.Direction)
	}
}

func TestModelCategoryCycle(t *testing.T) {
	m := newTestModel(t, newFakeFeed(testRecords...), &fakeLoader{})

	seen := []string{}
	for range 4 {
		press(m, "c")
		seen = append(seen, string(m.category)+":"+symbols(m.marketPanel.Records()))
	}
	want := []string{"Energy:CO", "Agriculture:SUGAR", "Metal:GOLD", ":CO,GOLD,SUGAR"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("step %d: expected %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestModelRefreshKey(t *testing.T) {
	feed := newFakeFeed(testRecords...)
	m := newTestModel(t, feed, &fakeLoader{})

	press(m, "r")
	if feed.refreshes != 1 {
		t.Errorf("expected 1 refresh, got %d", feed.refreshes)
	}
}

func TestModelOpensDetail(t *testing.T) {
	loader := &fakeLoader{views: map[string]detail.View{"CO": crudeView()}}
	m := newTestModel(t, newFakeFeed(testRecords...), loader)

	cmd := press(m, "enter")
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	if m.modal.Status() != detail.ModalLoading {
		t.Fatalf("expected loading, got %v", m.modal.Status())
	}

	m.Update(cmd())
	if m.modal.Status() != detail.ModalOpen {
		t.Fatalf("expected open, got %v", m.modal.Status())
	}
	if len(loader.calls) != 1 || loader.calls[0] != "CO" {
		t.Errorf("expected one load for CO, got %v", loader.calls)
	}
	if !strings.Contains(m.View(), "Crude Oil") {
		t.Error("expected modal to show the market name")
	}

	press(m, "tab")
	if m.modal.Persona() != detail.PersonaSME {
		t.Errorf("expected sme persona, got %v", m.modal.Persona())
	}

	press(m, "esc")
	if m.modal.Status() != detail.ModalClosed {
		t.Errorf("expected closed, got %v", m.modal.Status())
	}
}

func TestModelUnknownSymbolKeepsModalClosed(t *testing.T) {
	m := newTestModel(t, newFakeFeed(testRecords...), &fakeLoader{})

	press(m, "down") // GOLD
	cmd := press(m, "enter")
	m.Update(cmd())

	if m.modal.Status() != detail.ModalClosed {
		t.Fatalf("expected closed, got %v", m.modal.Status())
	}
	if _, ok := m.modal.View(); ok {
		t.Error("expected no populated view")
	}
	if !errors.Is(m.modal.Err(), detail.ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", m.modal.Err())
	}
	if !strings.Contains(m.statusMsg, "GOLD") {
		t.Errorf("expected status to name the symbol, got %q", m.statusMsg)
	}
}

func TestModelIgnoresDetailAfterClose(t *testing.T) {
	loader := &fakeLoader{views: map[string]detail.View{"CO": crudeView()}}
	m := newTestModel(t, newFakeFeed(testRecords...), loader)

	cmd := press(m, "enter")
	press(m, "esc")
	m.Update(cmd())

	if m.modal.Status() != detail.ModalClosed {
		t.Errorf("expected late result ignored, got %v", m.modal.Status())
	}
}

func TestModelLoadingAndErrorStates(t *testing.T) {
	feed := newFakeFeed()
	m := newTestModel(t, feed, &fakeLoader{})

	if !strings.Contains(m.View(), panels.LoadingText) {
		t.Error("expected loading text before the first snapshot")
	}

	feed.view.Fail(errors.New("failed to load market data: primary: boom"), time.Now())
	m.Update(FeedEventMsg{Event: feedview.FeedEvent{Kind: feedview.EventFailed}})

	view := m.View()
	if !strings.Contains(view, "failed to load market data") {
		t.Error("expected error banner")
	}
	if strings.Contains(view, panels.LoadingText) {
		t.Error("expected loading text gone in error state")
	}
}

func TestModelFeedEventRelistens(t *testing.T) {
	feed := newFakeFeed()
	m := newTestModel(t, feed, &fakeLoader{})

	feed.view.Succeed(market.Snapshot{Records: testRecords}, time.Now())
	_, cmd := m.Update(FeedEventMsg{Event: feedview.FeedEvent{Kind: feedview.EventLoaded}})
	if cmd == nil {
		t.Fatal("expected listen command")
	}
	if got := len(m.marketPanel.Records()); got != 3 {
		t.Errorf("expected 3 rows, got %d", got)
	}

	close(feed.events)
	if msg := m.listenFeedEvents()(); msg != nil {
		t.Errorf("expected nil msg on closed channel, got %T", msg)
	}
}
