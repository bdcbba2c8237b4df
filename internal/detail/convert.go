package detail

import (
	"math"
	"strconv"
	"strings"

	"github.com/zappabad/marketpulse/internal/news"
)

const maxKeyMetrics = 4

// Convert builds the modal view of a bundle.
func Convert(key Key, b Bundle) View {
	p := b.Popup
	v := View{
		Key:           key,
		Symbol:        b.Symbol,
		Name:          b.MarketName,
		LocalName:     b.MarketNameTh,
		Unit:          b.Unit,
		Price:         p.CurrentPrice,
		Change:        p.PriceChange,
		ChangePercent: p.PriceChangePercent,
		LastUpdate:    p.LastUpdate,
		Report:        RenderReport(b.Report.HTML),
	}
	if v.LastUpdate == "" {
		v.LastUpdate = b.GeneratedAt
	}

	global, hasGlobal := findAnalysis(p.RegionalAnalysis, news.RegionGlobal)
	if !hasGlobal && len(p.RegionalAnalysis) > 0 {
		global, hasGlobal = p.RegionalAnalysis[0], true
	}

	v.KeyMetrics = keyMetrics(p, global)
	if hasGlobal {
		v.QuickSummary = global.DailySummary
	}
	v.RegionalImpacts = regionalImpacts(p, b.News.News)
	v.Recommendations = append([]Recommendation(nil), p.Recommendations...)
	v.TopNews = topNews(b.News.News, p.RegionalAnalysis)
	v.Forecasts = forecasts(p.QuarterlyForecasts)
	if len(v.Forecasts) == 0 {
		v.Forecasts = forecasts(b.Forecasts.Forecasts)
	}
	return v
}

func findAnalysis(list []RegionalAnalysis, region news.Region) (RegionalAnalysis, bool) {
	for _, a := range list {
		if strings.EqualFold(string(a.Region), string(region)) {
			return a, true
		}
	}
	return RegionalAnalysis{}, false
}

func keyMetrics(p Popup, global RegionalAnalysis) []KeyMetric {
	metrics := []KeyMetric{{
		Label: "Price",
		Value: strconv.FormatFloat(p.CurrentPrice, 'f', 2, 64),
		Trend: TrendOf(p.PriceChange),
	}}
	for _, s := range global.KeySignals {
		if len(metrics) == maxKeyMetrics {
			break
		}
		metrics = append(metrics, KeyMetric{Label: s.Title, Value: string(s.Value), Trend: signalTrend(string(s.Value))})
	}
	return metrics
}

// signalTrend reads the direction a signal value leads with.
func signalTrend(v string) Trend {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasPrefix(v, "+"), strings.HasPrefix(v, "▲"), strings.HasPrefix(v, "↑"):
		return TrendUp
	case strings.HasPrefix(v, "-"), strings.HasPrefix(v, "▼"), strings.HasPrefix(v, "↓"):
		return TrendDown
	default:
		return TrendNeutral
	}
}

// RegionScore is the rounded mean of every news score for region, or 0 without scores.
func RegionScore(items []news.Item, region news.Region) int {
	var sum float64
	var n int
	for _, it := range items {
		for _, s := range it.Scores {
			if strings.EqualFold(string(s.Region), string(region)) {
				sum += s.Score
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(sum / float64(n)))
}

func regionalImpacts(p Popup, items []news.Item) []RegionalImpact {
	trend := TrendOf(p.PriceChange)
	var out []RegionalImpact
	for _, region := range news.Regions {
		a, ok := findAnalysis(p.RegionalAnalysis, region)
		score := RegionScore(items, region)
		if !ok && score == 0 {
			continue
		}
		factors := make([]string, 0, len(a.KeySignals))
		for _, s := range a.KeySignals {
			factors = append(factors, s.Title+": "+string(s.Value))
		}
		out = append(out, RegionalImpact{
			Region:     region,
			Score:      score,
			Level:      ImpactLevelOf(score),
			Trend:      trend,
			Summary:    a.DailySummary,
			Insight:    a.ActionableInsight,
			KeyFactors: factors,
		})
	}
	return out
}

func topNews(items []news.Item, analyses []RegionalAnalysis) *TopNews {
	var best *news.Item
	for i := range items {
		if best == nil || items[i].MaxScore() > best.MaxScore() {
			best = &items[i]
		}
	}
	if best != nil {
		return &TopNews{
			Title:       best.Title,
			Summary:     best.Summary,
			ImpactScore: best.MaxScore(),
			Published:   best.Published,
			Link:        best.Link,
		}
	}

	var top *AnalysisNews
	for i := range analyses {
		for j := range analyses[i].TopNews {
			n := &analyses[i].TopNews[j]
			if top == nil || n.ImpactScore > top.ImpactScore {
				top = n
			}
		}
	}
	if top == nil {
		return nil
	}
	return &TopNews{Title: top.Headline, Summary: top.Summary, ImpactScore: top.ImpactScore}
}

func forecasts(in []QuarterlyForecast) []PriceForecast {
	out := make([]PriceForecast, 0, len(in))
	for _, f := range in {
		out = append(out, PriceForecast{
			Quarter:  f.Quarter,
			Date:     f.Date,
			Forecast: string(f.PriceForecast),
			Source:   f.Source,
			Action:   f.ActionRecommendation,
		})
	}
	return out
}
