// Package config loads runtime configuration for the GophNotes client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   server address (http://host:port or host:port for grpc)
//	-t string   transport: http or grpc
//	-d string   local SQLite database path
//	-o string   owner id
//	-i int      online status check interval (seconds)
//	-r int      remote call timeout (seconds)
//	-m int      failed replays before a note is marked failed
//	-l string   log file
//	-w string   websocket dashboard address
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "transport": "http",
//	  "database_path": "notes.db",
//	  "online_check_interval": "3s",
//	  "remote_call_timeout": "10s",
//	  "max_retries": 5,
//	  "log_file": "gophnotes.log",
//	  "dashboard_addr": "127.0.0.1:7070"
//	}
package config
