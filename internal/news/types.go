package news

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Region is the geographic scope of an impact score.
type Region string

const (
	RegionGlobal   Region = "global"
	RegionAsia     Region = "asia"
	RegionThailand Region = "thailand"
)

// Regions lists the fixed regions in display order.
var Regions = []Region{RegionGlobal, RegionAsia, RegionThailand}

// Label returns the display label of the region.
func (r Region) Label() string {
	switch r {
	case RegionGlobal:
		return "Global"
	case RegionAsia:
		return "Asia"
	case RegionThailand:
		return "Thailand"
	default:
		return string(r)
	}
}

// RegionScore is the impact of a news item on one region, 0..100.
type RegionScore struct {
	Region Region  `json:"region"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// UnmarshalJSON accepts the score as a number or a numeric string.
// A string that is not a number scores 0.
func (s *RegionScore) UnmarshalJSON(data []byte) error {
	var raw struct {
		Region Region          `json:"region"`
		Score  json.RawMessage `json:"score"`
		Reason string          `json:"reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = RegionScore{Region: raw.Region, Reason: raw.Reason}

	score := bytes.TrimSpace(raw.Score)
	switch {
	case len(score) == 0 || bytes.Equal(score, []byte("null")):
	case score[0] == '"':
		var str string
		if err := json.Unmarshal(score, &str); err != nil {
			return err
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			s.Score = f
		}
	default:
		if err := json.Unmarshal(score, &s.Score); err != nil {
			return fmt.Errorf("score: %w", err)
		}
	}
	return nil
}

// Item is one news article with its regional impact scores.
type Item struct {
	ID        string        `json:"newsId"`
	Title     string        `json:"title"`
	Summary   string        `json:"summary"`
	Published string        `json:"publishedDate"`
	ImageURL  string        `json:"imageUrl"`
	Link      string        `json:"link"`
	Scores    []RegionScore `json:"scores"`
	Market    string        `json:"market,omitempty"`
}

// PublishedTime parses the published timestamp.
func (it Item) PublishedTime() (time.Time, bool) {
	return ParseTime(it.Published)
}

// RegionScore returns the score for region, or 0 if the item has none.
func (it Item) RegionScore(region Region) float64 {
	for _, s := range it.Scores {
		if Region(strings.ToLower(string(s.Region))) == region {
			return s.Score
		}
	}
	return 0
}

// MaxScore returns the highest score across all regions.
func (it Item) MaxScore() float64 {
	var max float64
	for _, s := range it.Scores {
		if s.Score > max {
			max = s.Score
		}
	}
	return max
}

// Severity buckets an impact score.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

// SeverityOf returns High for >=70, Medium for >=50, otherwise Low.
func SeverityOf(score float64) Severity {
	switch {
	case score >= 70:
		return SeverityHigh
	case score >= 50:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseTime accepts the timestamp layouts seen in the data files.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatAge renders t relative to now: hours under a day, days under a week, else a date.
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	if hours < 24 {
		return plural(hours, "hour") + " ago"
	}
	days := hours / 24
	if days < 7 {
		return plural(days, "day") + " ago"
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
