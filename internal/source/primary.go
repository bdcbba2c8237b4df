package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zappabad/marketpulse/internal/market"
)

type primaryPayload struct {
	GeneratedAt string          `json:"generatedAt"`
	DataSource  string          `json:"dataSource"`
	Markets     []market.Record `json:"markets"`
}

// PrimarySource reads the quote snapshot file.
type PrimarySource struct {
	client *Client
	path   string
}

// NewPrimarySource creates a PrimarySource reading path through client.
func NewPrimarySource(client *Client, path string) *PrimarySource {
	if path == "" {
		path = DefaultConfig().PrimaryPath
	}
	return &PrimarySource{client: client, path: path}
}

// Name implements Source.
func (s *PrimarySource) Name() string {
	return "primary"
}

// Fetch implements Source.
func (s *PrimarySource) Fetch(ctx context.Context) (market.Snapshot, error) {
	body, err := s.client.Get(ctx, s.path)
	if err != nil {
		return market.Snapshot{}, err
	}
	return ParsePrimary(body)
}

// ParsePrimary decodes a quote snapshot. A payload without records is ErrEmptySnapshot.
func ParsePrimary(body []byte) (market.Snapshot, error) {
	var p primaryPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return market.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(p.Markets) == 0 {
		return market.Snapshot{}, ErrEmptySnapshot
	}

	for i := range p.Markets {
		if p.Markets[i].LastUpdate == "" {
			p.Markets[i].LastUpdate = p.GeneratedAt
		}
	}
	return market.Snapshot{
		Records:     p.Markets,
		GeneratedAt: p.GeneratedAt,
		Source:      "primary",
	}, nil
}
