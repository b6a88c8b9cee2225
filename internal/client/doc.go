// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the go-proc-box command-line client.
//
// Every invocation runs one subcommand: it logs in with the credentials from
// the flags or the environment, performs a single operation through the
// HTTP API or the dispatch protocol and prints the result.
package client
