package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
	"github.com/dmitrijs2005/gophnotes/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration, so "3s" and integer nanoseconds both work.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	Transport           string         `json:"transport"`
	DatabasePath        string         `json:"database_path"`
	Owner               string         `json:"owner"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RemoteCallTimeout   timex.Duration `json:"remote_call_timeout"`
	MaxRetries          int            `json:"max_retries"`
	LogFile             string         `json:"log_file"`
	DashboardAddr       string         `json:"dashboard_addr"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Fields
// absent from the file keep their current values. Read and decode errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.Owner, jc.Owner)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.DashboardAddr, jc.DashboardAddr)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RemoteCallTimeout.Duration > 0 {
		cfg.RemoteCallTimeout = jc.RemoteCallTimeout.Duration
	}
	if jc.MaxRetries > 0 {
		cfg.MaxRetries = jc.MaxRetries
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
