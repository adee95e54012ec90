package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-k", "-x", "-d", "-u", "-p", "-b", "-n", "-e", "-s"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-k string   storage backend: postgres or s3
//	-x string   database/sql driver: pgx or postgres
//	-d string   PostgreSQL DSN
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-n string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-s int      shutdown timeout, seconds
func parseFlags(config *Config) {
	var shutdown int

	flagx.MustParse("server", knownFlags, func(fs *flag.FlagSet) {
		fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
		fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
		fs.StringVar(&config.Backend, "k", config.Backend, "storage backend")
		fs.StringVar(&config.DatabaseDriver, "x", config.DatabaseDriver, "database driver")
		fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
		fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
		fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
		fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
		fs.StringVar(&config.S3Region, "n", config.S3Region, "S3 region")
		fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
		fs.IntVar(&shutdown, "s", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")
	})

	config.ShutdownTimeout = time.Duration(shutdown) * time.Second
}
