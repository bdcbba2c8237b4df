package detail

import (
	"strings"

	"github.com/zappabad/marketpulse/internal/news"
)

// Trend is the direction shown next to a metric or region.
type Trend int

const (
	TrendNeutral Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "neutral"
	}
}

// TrendOf returns the trend for the sign of f.
func TrendOf(f float64) Trend {
	switch {
	case f > 0:
		return TrendUp
	case f < 0:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// ImpactLevel buckets a regional impact score.
type ImpactLevel int

const (
	ImpactLow ImpactLevel = iota
	ImpactMedium
	ImpactHigh
	ImpactVeryHigh
)

// ImpactLevelOf returns VeryHigh for >=70, High for >=50, Medium for >=30, else Low.
func ImpactLevelOf(score int) ImpactLevel {
	switch {
	case score >= 70:
		return ImpactVeryHigh
	case score >= 50:
		return ImpactHigh
	case score >= 30:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

func (l ImpactLevel) String() string {
	switch l {
	case ImpactVeryHigh:
		return "Very high"
	case ImpactHigh:
		return "High"
	case ImpactMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// LocalLabel returns the Thai label used by the data files.
func (l ImpactLevel) LocalLabel() string {
	switch l {
	case ImpactVeryHigh:
		return "สูงมาก"
	case ImpactHigh:
		return "สูง"
	case ImpactMedium:
		return "ปานกลาง"
	default:
		return "ต่ำ"
	}
}

// Persona is the audience a recommendation targets.
type Persona string

const (
	PersonaAll         Persona = "all"
	PersonaSME         Persona = "sme"
	PersonaSupplyChain Persona = "supply_chain"
	PersonaInvestor    Persona = "investor"
)

// Personas lists the filter tabs in order.
var Personas = []Persona{PersonaAll, PersonaSME, PersonaSupplyChain, PersonaInvestor}

// Label returns the tab label.
func (p Persona) Label() string {
	switch p {
	case PersonaAll:
		return "All"
	case PersonaSME:
		return "SME"
	case PersonaSupplyChain:
		return "Supply chain"
	case PersonaInvestor:
		return "Investor"
	default:
		return string(p)
	}
}

// Next returns the following tab, wrapping around.
func (p Persona) Next() Persona {
	for i, q := range Personas {
		if q == p {
			return Personas[(i+1)%len(Personas)]
		}
	}
	return PersonaAll
}

// KeyMetric is a labelled value in the modal header.
type KeyMetric struct {
	Label string
	Value string
	Trend Trend
}

// RegionalImpact summarizes how the market's news affects one region.
type RegionalImpact struct {
	Region     news.Region
	Score      int
	Level      ImpactLevel
	Trend      Trend
	Summary    string
	Insight    string
	KeyFactors []string
}

// Recommendation is advice for one persona.
type Recommendation struct {
	Persona              Persona `json:"persona"`
	PersonaName          string  `json:"persona_name_th"`
	MarketSituation      string  `json:"market_situation"`
	PowerInsight         string  `json:"power_insight"`
	ActionRecommendation string  `json:"action_recommendation"`
	RiskAssessment       string  `json:"risk_assessment"`
	OpportunityLevel     string  `json:"opportunity_level"`
}

// Risk classifies the free-text risk assessment.
func (r Recommendation) Risk() string {
	s := strings.ToLower(r.RiskAssessment)
	switch {
	case containsAny(s, "สูง", "มี", "high"):
		return "Caution"
	case containsAny(s, "ปานกลาง", "medium", "moderate"):
		return "Fair"
	default:
		return "Safe"
	}
}

// Opportunity classifies the free-text opportunity level.
func (r Recommendation) Opportunity() string {
	s := strings.ToLower(r.OpportunityLevel)
	switch {
	case containsAny(s, "ดีมาก", "สูง", "high", "very good", "excellent"):
		return "Excellent"
	case containsAny(s, "ดี", "good"):
		return "Good"
	default:
		return "Fair"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// TopNews is the single most impactful headline.
type TopNews struct {
	Title       string
	Summary     string
	ImpactScore float64
	Published   string
	Link        string
}

// PriceForecast is one forecast row.
type PriceForecast struct {
	Quarter  string
	Date     string
	Forecast string
	Source   string
	Action   string
}

// View is the modal content built from a Bundle.
type View struct {
	Key           Key
	Symbol        string
	Name          string
	LocalName     string
	Unit          string
	Price         float64
	Change        float64
	ChangePercent float64
	LastUpdate    string

	KeyMetrics      []KeyMetric
	QuickSummary    string
	RegionalImpacts []RegionalImpact
	Recommendations []Recommendation
	TopNews         *TopNews
	Forecasts       []PriceForecast
	Report          string
}

// Complete reports whether the view carries enough to open the modal.
func (v View) Complete() bool {
	return v.Key != "" && (v.Name != "" || v.LocalName != "") && v.Price != 0
}

// RecommendationsFor filters recommendations by persona. PersonaAll keeps all.
func (v View) RecommendationsFor(p Persona) []Recommendation {
	if p == PersonaAll || p == "" {
		return v.Recommendations
	}
	var out []Recommendation
	for _, r := range v.Recommendations {
		if r.Persona == p {
			out = append(out, r)
		}
	}
	return out
}
