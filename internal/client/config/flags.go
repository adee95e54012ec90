package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-d", "-o", "-i", "-r", "-m", "-l", "-w"}

// parseFlags overlays cfg with command-line flags. Only the flags listed in
// knownFlags are considered; a malformed value panics.
func parseFlags(cfg *Config) {
	var interval, timeout int

	flagx.MustParse("client", knownFlags, func(fs *flag.FlagSet) {
		fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "server address")
		fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport: http or grpc")
		fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
		fs.StringVar(&cfg.Owner, "o", cfg.Owner, "owner id (generated on first run when empty)")
		fs.IntVar(&interval, "i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
		fs.IntVar(&timeout, "r", int(cfg.RemoteCallTimeout.Seconds()), "remote call timeout (in seconds)")
		fs.IntVar(&cfg.MaxRetries, "m", cfg.MaxRetries, "failed replays before a note is marked failed")
		fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
		fs.StringVar(&cfg.DashboardAddr, "w", cfg.DashboardAddr, "websocket dashboard address (disabled when empty)")
	})

	cfg.OnlineCheckInterval = time.Duration(interval) * time.Second
	cfg.RemoteCallTimeout = time.Duration(timeout) * time.Second
}
