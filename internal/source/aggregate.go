package source

import (
	"context"

	"github.com/tidwall/gjson"
	"github.com/zappabad/marketpulse/internal/market"
)

// aggregateMarket maps an aggregate key to its fixed display record.
type aggregateMarket struct {
	Key      string
	Symbol   string
	Name     string
	Category market.Category
}

var aggregateMarkets = []aggregateMarket{
	{Key: "crude_oil", Symbol: "CO", Name: "Crude Oil", Category: market.CategoryEnergy},
	{Key: "sugar", Symbol: "SUGAR", Name: "Sugar", Category: market.CategoryAgriculture},
	{Key: "usd_thb", Symbol: "USDTHB", Name: "USD/THB", Category: market.CategoryCurrency},
}

// AggregateSource reads the per-market aggregate file and builds one record per known market.
type AggregateSource struct {
	client *Client
	path   string
}

// NewAggregateSource creates an AggregateSource reading path through client.
func NewAggregateSource(client *Client, path string) *AggregateSource {
	if path == "" {
		path = DefaultConfig().AggregatePath
	}
	return &AggregateSource{client: client, path: path}
}

// Name implements Source.
func (s *AggregateSource) Name() string {
	return "aggregate"
}

// Fetch implements Source.
func (s *AggregateSource) Fetch(ctx context.Context) (market.Snapshot, error) {
	body, err := s.client.Get(ctx, s.path)
	if err != nil {
		return market.Snapshot{}, err
	}
	return ParseAggregate(body)
}

// ParseAggregate builds a snapshot from the popup quote of each known market.
func ParseAggregate(body []byte) (market.Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return market.Snapshot{}, ErrMalformed
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsObject() {
		return market.Snapshot{}, ErrEmptySnapshot
	}

	records := make([]market.Record, 0, len(aggregateMarkets))
	for _, m := range aggregateMarkets {
		v := data.Get(m.Key)
		popup := v.Get("popup")
		if !v.Exists() || !popup.Exists() {
			continue
		}
		records = append(records, market.Record{
			Symbol:        m.Symbol,
			Name:          m.Name,
			LocalName:     v.Get("marketNameTh").String(),
			Price:         popup.Get("currentPrice").Float(),
			Change:        popup.Get("priceChange").Float(),
			ChangePercent: popup.Get("priceChangePercent").Float(),
			Volume:        market.ParseVolume("0"),
			Unit:          v.Get("unit").String(),
			Category:      m.Category,
			LastUpdate:    v.Get("generatedAt").String(),
		})
	}
	if len(records) == 0 {
		return market.Snapshot{}, ErrEmptySnapshot
	}

	return market.Snapshot{
		Records:     records,
		GeneratedAt: gjson.GetBytes(body, "generatedAt").String(),
		Source:      "aggregate",
	}, nil
}
