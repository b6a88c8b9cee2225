package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the HTTP endpoint address used by the client.
	HTTPAddress string
	// DispatchAddress is the dispatch protocol endpoint used by the client.
	DispatchAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
}

// GetClientConfig builds and validates a client-specific config view from
// environment variables and the optional JSON file named by CONFIG.
//
// Command-line flags are left to the client binary, which owns its own
// subcommand flag set.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := newConfigBuilder().withEnv().withJSON().merge()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return clientConfigFrom(cfg)
}

func clientConfigFrom(cfg *StructuredConfig) (*ClientConfig, error) {
	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:     cfg.Adapter.HTTPAddress,
			DispatchAddress: cfg.Adapter.DispatchAddress,
			RequestTimeout:  cfg.Adapter.RequestTimeout,
		},
	}

	return clientCfg, clientCfg.validate()
}
