package config

import "time"

// Config holds runtime settings for the GophNotes client.
//
// Durations are time.Duration values; flags take them in whole seconds.
type Config struct {
	ServerEndpointAddr  string
	Transport           string
	DatabasePath        string
	Owner               string
	OnlineCheckInterval time.Duration
	RemoteCallTimeout   time.Duration
	MaxRetries          int
	LogFile             string
	DashboardAddr       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.Transport = "http"
	c.DatabasePath = "notes.db"
	c.Owner = ""
	c.OnlineCheckInterval = 3 * time.Second
	c.RemoteCallTimeout = 10 * time.Second
	c.MaxRetries = 5
	c.LogFile = "gophnotes.log"
	c.DashboardAddr = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
