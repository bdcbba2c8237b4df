package source

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/zappabad/marketpulse/internal/market"
)

type mockBase struct {
	symbol    string
	name      string
	localName string
	price     float64
	unit      string
	currency  string
	category  market.Category
	volume    float64
}

var mockBases = []mockBase{
	{"CO", "Crude Oil", "น้ำมันดิบ", 78.40, "USD/bbl", "USD", market.CategoryEnergy, 310000},
	{"NG", "Natural Gas", "ก๊าซธรรมชาติ", 2.65, "USD/MMBtu", "USD", market.CategoryEnergy, 145000},
	{"SUGAR", "Sugar", "น้ำตาล", 19.80, "USc/lb", "USD", market.CategoryAgriculture, 98000},
	{"WHEAT", "Wheat", "ข้าวสาลี", 612.25, "USc/bu", "USD", market.CategoryAgriculture, 54000},
	{"GOLD", "Gold", "ทองคำ", 2352.10, "USD/oz", "USD", market.CategoryMetal, 187000},
	{"USDTHB", "USD/THB", "ดอลลาร์/บาท", 36.20, "THB", "THB", market.CategoryCurrency, 0},
}

// MockSource generates a dataset without touching the network.
// The sequence of snapshots is deterministic for a seed.
type MockSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewMockSource creates a MockSource.
func NewMockSource(seed int64) *MockSource {
	return &MockSource{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Name implements Source.
func (s *MockSource) Name() string {
	return "mock"
}

// Fetch implements Source.
func (s *MockSource) Fetch(ctx context.Context) (market.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return market.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Format(time.RFC3339)
	records := make([]market.Record, 0, len(mockBases))
	for _, b := range mockBases {
		pct := round2((s.rng.Float64() - 0.5) * 4)
		change := round2(b.price * pct / 100)
		open := b.price
		price := round2(open + change)
		spread := math.Abs(change) + b.price*0.002

		r := market.Record{
			Symbol:        b.symbol,
			Name:          b.name,
			LocalName:     b.localName,
			Price:         price,
			Change:        change,
			ChangePercent: pct,
			Open:          open,
			High:          round2(math.Max(open, price) + spread/2),
			Low:           round2(math.Min(open, price) - spread/2),
			Currency:      b.currency,
			Unit:          b.unit,
			Category:      b.category,
			LastUpdate:    ts,
		}
		if b.volume > 0 {
			r.Volume = market.NewVolume(math.Round(b.volume * (0.8 + s.rng.Float64()*0.4)))
		}
		records = append(records, r)
	}

	return market.Snapshot{Records: records, GeneratedAt: ts, Source: "mock"}, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
