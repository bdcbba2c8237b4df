package service

import "time"

// Config holds configuration for the feed service.
type Config struct {
	// Interval is the time between polls. The first poll runs immediately.
	Interval time.Duration `yaml:"interval"`
	// FetchTimeout bounds a single poll.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// EventBuffer is the size of the external events channel.
	EventBuffer int `yaml:"event_buffer"`
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool `yaml:"drop_events"`
	// NewsItems is how many news items the view keeps.
	NewsItems int `yaml:"news_items"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     60 * time.Second,
		FetchTimeout: 30 * time.Second,
		EventBuffer:  64,
		DropEvents:   true,
		NewsItems:    5,
	}
}
