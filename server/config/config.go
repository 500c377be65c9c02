package config

import (
	"errors"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefaultListenAddress = "0.0.0.0:8545"

	DefaultFee        = 0.001
	DefaultMaxHops    = 3
	DefaultTopResults = 3
	DefaultGraphTTL   = 5 * time.Minute

	// MaxHops is the highest accepted hop bound
	MaxHops = 6

	// MaxTopResults is the highest accepted result count
	MaxTopResults = 50
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidFee           = errors.New("invalid fee, expected [0, 1)")
	ErrInvalidMaxHops       = errors.New("invalid max hops")
	ErrInvalidTopResults    = errors.New("invalid top results")
	ErrInvalidGraphTTL      = errors.New("invalid graph TTL")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The path search defaults
	Arbitrage *Arbitrage `toml:"arbitrage"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// Arbitrage holds the path search parameters
type Arbitrage struct {
	// The per-trade fee fraction, applied to every edge
	Fee float64 `toml:"fee" default:"0.001"`

	// The default hop bound of a search
	MaxHops int `toml:"max_hops" default:"3"`

	// The default number of ranked results
	TopResults int `toml:"top_results" default:"3"`

	// How long a built rate graph is reused.
	// Format is a Go duration string (ex. "5m")
	GraphTTL string `toml:"graph_ttl" default:"5m0s"`
}

// TTL returns the parsed graph TTL. Assumes a validated config
func (a *Arbitrage) TTL() time.Duration {
	ttl, err := time.ParseDuration(a.GraphTTL)
	if err != nil {
		return DefaultGraphTTL
	}

	return ttl
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Arbitrage:     DefaultArbitrageConfig(),
	}
}

// DefaultArbitrageConfig returns the default path search parameters
func DefaultArbitrageConfig() *Arbitrage {
	return &Arbitrage{
		Fee:        DefaultFee,
		MaxHops:    DefaultMaxHops,
		TopResults: DefaultTopResults,
		GraphTTL:   DefaultGraphTTL.String(),
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.Arbitrage == nil {
		return nil
	}

	return validateArbitrage(config.Arbitrage)
}

func validateArbitrage(a *Arbitrage) error {
	if a.Fee < 0 || a.Fee >= 1 {
		return ErrInvalidFee
	}

	if a.MaxHops < 1 || a.MaxHops > MaxHops {
		return ErrInvalidMaxHops
	}

	if a.TopResults < 1 || a.TopResults > MaxTopResults {
		return ErrInvalidTopResults
	}

	ttl, err := time.ParseDuration(a.GraphTTL)
	if err != nil || ttl <= 0 {
		return ErrInvalidGraphTTL
	}

	return nil
}

// Read reads the configuration from the given path.
// A missing arbitrage section (or key) takes the default value
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	if cfg.Arbitrage == nil {
		cfg.Arbitrage = DefaultArbitrageConfig()
	}

	return &cfg, nil
}
