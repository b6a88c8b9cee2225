// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from environ, a list of KEY=VALUE pairs in the form
// returned by os.Environ. Fields are looked up through the env and envPrefix
// tags of [StructuredConfig]; variables absent from environ leave the field
// at its zero value so later sources can fill it.
func parseEnv(cfg *StructuredConfig, environ []string) error {
	opts := env.Options{Environment: env.ToMap(environ)}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
