package config

import (
	"errors"
	"fmt"
	"os"

	"dario.cat/mergo"
)

// configBuilder stacks configuration layers. A layer added earlier wins over
// a later one field by field, and [Defaults] is always the bottom layer.
type configBuilder struct {
	layers  []*StructuredConfig
	environ []string
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		layers:  make([]*StructuredConfig, 0, 3),
		environ: os.Environ(),
	}
}

// build merges the layers and validates the result as a server configuration.
func (b *configBuilder) build() (*StructuredConfig, error) {
	cfg, err := b.merge()
	if err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

// merge folds the layers on top of [Defaults] and derives dependent settings.
// It does not validate, so callers needing only a subset (the client) can
// run their own checks.
func (b *configBuilder) merge() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	merged := new(StructuredConfig)
	for _, layer := range append(b.layers, Defaults()) {
		if err := mergo.Merge(merged, layer); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}
	merged.normalize()

	return merged, nil
}

// push records the outcome of loading one layer. A failed layer is skipped
// and its error is reported by merge.
func (b *configBuilder) push(layer *StructuredConfig, err error) *configBuilder {
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	if layer != nil {
		b.layers = append(b.layers, layer)
	}
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	layer := new(StructuredConfig)
	return b.push(layer, parseEnv(layer, b.environ))
}

func (b *configBuilder) withFlags() *configBuilder {
	return b.push(ParseFlags(), nil)
}

func (b *configBuilder) withFlagArgs(args []string) *configBuilder {
	return b.push(parseFlags(args))
}

// withJSON loads the file named by the first layer that sets JSONFilePath.
// Without such a layer it adds nothing.
func (b *configBuilder) withJSON() *configBuilder {
	for _, layer := range b.layers {
		if layer.JSONFilePath != "" {
			return b.push(parseJSON(layer.JSONFilePath))
		}
	}
	return b
}
