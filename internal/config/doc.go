// Package config assembles the server and client configuration.
//
// Settings are layered. For every field the first layer that sets it wins:
//  1. environment variables
//  2. command-line flags (server only)
//  3. the JSON file named by CONFIG or --config
//  4. [Defaults]
//
// [GetStructuredConfig] returns the validated server view, [GetClientConfig]
// the subset the proc-box client needs.
package config
