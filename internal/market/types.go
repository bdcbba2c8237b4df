package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Category groups records in the table filter.
type Category string

const (
	CategoryEnergy      Category = "Energy"
	CategoryAgriculture Category = "Agriculture"
	CategoryCurrency    Category = "Currency"
	CategoryMetal       Category = "Metal"
)

// Volume is a traded volume that may be missing from the payload.
// It decodes from a JSON number, a numeric string, null, or an absent field.
type Volume struct {
	raw   string
	value float64
	ok    bool
}

// NewVolume returns a present volume.
func NewVolume(v float64) Volume {
	return Volume{raw: strconv.FormatFloat(v, 'f', -1, 64), value: v, ok: true}
}

// ParseVolume parses a string-encoded volume. Empty or non-numeric input is absent.
func ParseVolume(s string) Volume {
	s = strings.TrimSpace(s)
	if s == "" {
		return Volume{}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) {
		return Volume{raw: s}
	}
	return Volume{raw: s, value: f, ok: true}
}

// Value returns the numeric volume and whether it is present.
func (v Volume) Value() (float64, bool) {
	return v.value, v.ok
}

// String returns the volume as it appeared in the payload, or "-" when absent.
func (v Volume) String() string {
	if !v.ok {
		return "-"
	}
	return v.raw
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Volume) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Volume{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("volume: %w", err)
		}
		*v = ParseVolume(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	*v = Volume{raw: string(data), value: f, ok: true}
	return nil
}

// MarshalJSON encodes the volume as a string, or null when absent.
func (v Volume) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// Record is one market quote as shown in the table.
type Record struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	LocalName     string   `json:"name_th,omitempty"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	Volume        Volume   `json:"volume"`
	High          float64  `json:"high,omitempty"`
	Low           float64  `json:"low,omitempty"`
	Open          float64  `json:"open,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	Category      Category `json:"category,omitempty"`
	LastUpdate    string   `json:"lastUpdate,omitempty"`
}

// DisplayName prefers the localized name.
func (r Record) DisplayName() string {
	if r.LocalName != "" {
		return r.LocalName
	}
	return r.Name
}

// SortName is the name the table sorts by: the English name, or the
// localized one when no English name is present.
func (r Record) SortName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.LocalName
}

// SignConsistent reports whether change and changePercent agree in sign.
func (r Record) SignConsistent() bool {
	return sign(r.Change) == sign(r.ChangePercent)
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// Snapshot is the full set of records produced by one successful load.
// It replaces the previous snapshot wholesale.
type Snapshot struct {
	Records     []Record
	GeneratedAt string
	Source      string
	FetchedAt   time.Time
}

// Len returns the number of records.
func (s Snapshot) Len() int {
	return len(s.Records)
}

// Clone returns a copy that shares no slice with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Records = append([]Record(nil), s.Records...)
	return out
}
