package news

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/tidwall/gjson"
)

var ErrMalformed = errors.New("malformed news payload")

// Getter fetches a document by path.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Config holds configuration for the news feed.
type Config struct {
	// Path is the aggregate file holding each market's news.
	Path string `yaml:"path"`
	// MaxItems bounds how many items are kept after sorting.
	MaxItems int `yaml:"max_items"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Path:     "/data/all_markets.json",
		MaxItems: 5,
	}
}

// Feed collects the latest news across every market.
type Feed struct {
	cfg    Config
	getter Getter
	logger *slog.Logger
}

// NewFeed creates a Feed.
func NewFeed(getter Getter, cfg Config) *Feed {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig().MaxItems
	}
	return &Feed{cfg: cfg, getter: getter, logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger used to report skipped items.
func (f *Feed) WithLogger(logger *slog.Logger) *Feed {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Fetch returns the newest MaxItems items, newest first.
func (f *Feed) Fetch(ctx context.Context) ([]Item, error) {
	body, err := f.getter.Get(ctx, f.cfg.Path)
	if err != nil {
		return nil, err
	}
	items, skipped, err := parse(body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		f.logger.Warn("skipped unreadable news items", "path", f.cfg.Path, "count", skipped)
	}
	return Latest(items, f.cfg.MaxItems), nil
}

// Parse collects data.<market>.news.news[] from an aggregate document,
// tagging each item with its market. Items that do not decode are skipped;
// only an invalid document is ErrMalformed.
func Parse(body []byte) ([]Item, error) {
	items, _, err := parse(body)
	return items, err
}

func parse(body []byte) ([]Item, int, error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, ErrMalformed
	}

	var items []Item
	skipped := 0
	gjson.GetBytes(body, "data").ForEach(func(key, market gjson.Result) bool {
		list := market.Get("news.news")
		if !list.IsArray() {
			return true
		}
		label := market.Get("market").String()
		if label == "" {
			label = key.String()
		}
		for _, raw := range list.Array() {
			var it Item
			if err := json.Unmarshal([]byte(raw.Raw), &it); err != nil {
				skipped++
				continue
			}
			it.Market = label
			items = append(items, it)
		}
		return true
	})
	return items, skipped, nil
}

// Latest sorts items newest first and keeps at most n. Items whose
// timestamp does not parse sort last. The input is not modified.
func Latest(items []Item, n int) []Item {
	out := append([]Item(nil), items...)
	slices.SortStableFunc(out, func(a, b Item) int {
		at, aok := a.PublishedTime()
		bt, bok := b.PublishedTime()
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		return bt.Compare(at)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
