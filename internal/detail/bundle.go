package detail

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zappabad/marketpulse/internal/news"
)

// Text decodes from a JSON string or number.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("text: %w", err)
		}
		*t = Text(n.String())
	}
	return nil
}

// Bundle is the per-market detail file.
type Bundle struct {
	Market       string `json:"market"`
	MarketName   string `json:"marketName"`
	MarketNameTh string `json:"marketNameTh"`
	Symbol       string `json:"symbol"`
	Unit         string `json:"unit"`
	GeneratedAt  string `json:"generatedAt"`
	News         struct {
		News []news.Item `json:"news"`
	} `json:"news"`
	Forecasts struct {
		Forecasts []QuarterlyForecast `json:"forecasts"`
	} `json:"forecasts"`
	Popup  Popup `json:"popup"`
	Report struct {
		HTML string `json:"html"`
	} `json:"report"`
}

// Popup is the quick-view section of a bundle.
type Popup struct {
	CurrentPrice       float64             `json:"currentPrice"`
	PriceChange        float64             `json:"priceChange"`
	PriceChangePercent float64             `json:"priceChangePercent"`
	LastUpdate         string              `json:"lastUpdate"`
	RegionalAnalysis   []RegionalAnalysis  `json:"regionalAnalysis"`
	QuarterlyForecasts []QuarterlyForecast `json:"quarterlyForecasts"`
	Recommendations    []Recommendation    `json:"recommendations"`
}

// RegionalAnalysis is the generated analysis for one region.
type RegionalAnalysis struct {
	Region               news.Region    `json:"region"`
	DailySummary         string         `json:"dailySummary"`
	ActionableInsight    string         `json:"actionableInsight"`
	CompetitorStrategy   string         `json:"competitorStrategy"`
	OurRecommendedAction string         `json:"ourRecommendedAction"`
	KeySignals           []Signal       `json:"keySignals"`
	TopNews              []AnalysisNews `json:"topNews"`
}

// Signal is a titled value shown as a key metric.
type Signal struct {
	Title string `json:"title"`
	Value Text   `json:"value"`
}

// AnalysisNews is a headline referenced by an analysis.
type AnalysisNews struct {
	NewsID      string  `json:"newsId"`
	Headline    string  `json:"headline"`
	Summary     string  `json:"summary"`
	ImpactScore float64 `json:"impactScore"`
}

// QuarterlyForecast is one row of the price forecast table.
type QuarterlyForecast struct {
	Quarter              string `json:"quarter"`
	Date                 string `json:"date"`
	PriceForecast        Text   `json:"price_forecast"`
	Source               string `json:"source"`
	ActionRecommendation string `json:"actionRecommendation"`
}

// DecodeBundle decodes a detail file.
func DecodeBundle(body []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(body, &b); err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return b, nil
}
