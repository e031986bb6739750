package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/searchktools/wire-server/core/units"
)

// Strategy selects how the server reads connections.
type Strategy string

const (
	// StrategyPoll uses a single poller loop over non-blocking sockets.
	StrategyPoll Strategy = "poll"
	// StrategyAsync uses one goroutine per connection.
	StrategyAsync Strategy = "async"
	// StrategyOffload reads each connection in a spawned worker process.
	StrategyOffload Strategy = "offload"
)

// Config holds all application configuration.
type Config struct {
	Host        string
	Port        int
	Strategy    Strategy
	BufferSize  int
	MaxBodySize int
	IdleTimeout time.Duration
	MaxConns    int
	Env         string
}

// New loads configuration from flags, with PORT and HOST env overrides.
func New() *Config {
	cfg := &Config{}

	var strategy string
	flag.StringVar(&cfg.Host, "host", "0.0.0.0", "interface to bind")
	flag.IntVar(&cfg.Port, "port", 8080, "HTTP server port")
	flag.StringVar(&strategy, "strategy", string(StrategyPoll), "connection strategy (poll/async/offload)")
	flag.IntVar(&cfg.BufferSize, "buffer-size", 4*units.Kilobyte, "per-read socket buffer size (bytes)")
	flag.IntVar(&cfg.MaxBodySize, "max-body-size", 500*units.Megabyte, "maximum request size (bytes)")
	flag.DurationVar(&cfg.IdleTimeout, "idle-timeout", 500*units.Millisecond, "read deadline for request completion")
	flag.IntVar(&cfg.MaxConns, "max-conns", 1024, "maximum concurrent connections (async strategy)")
	flag.StringVar(&cfg.Env, "env", "development", "Environment (development/production)")

	flag.Parse()

	cfg.Strategy = Strategy(strategy)

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}

	return cfg
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
