// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"slices"
	"strings"
)

// normalize derives settings that depend on other settings. The queue
// follows the catalog: a persistent database carries the queues too, an
// in-memory catalog gets in-memory queues.
func (cfg *StructuredConfig) normalize() {
	if cfg.Queue.Backend == "" {
		if cfg.Storage.DB.Driver == DriverMemory {
			cfg.Queue.Backend = QueueBackendMemory
		} else {
			cfg.Queue.Backend = QueueBackendDB
		}
	}

	cfg.Storage.Blobs.FilesContainer = strings.Trim(cfg.Storage.Blobs.FilesContainer, "/")
	cfg.Storage.Blobs.OutputsContainer = strings.Trim(cfg.Storage.Blobs.OutputsContainer, "/")
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or one of the ErrInvalid*Configs
// errors naming the offending group.
func (cfg *StructuredConfig) validate() error {
	app := cfg.App
	if app.PasswordHashKey == "" || app.TokenSignKey == "" || app.TokenDuration <= 0 ||
		app.ToolTimeout <= 0 || app.DefaultAdminEmail == "" || app.DefaultAdminPassword == "" {
		return ErrInvalidAppConfigs
	}

	db := cfg.Storage.DB
	if !slices.Contains([]string{DriverPostgres, DriverSQLite, DriverMemory}, db.Driver) {
		return ErrInvalidStorageConfigs
	}
	if db.Driver != DriverMemory && db.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	blobs := cfg.Storage.Blobs
	if blobs.FilesContainer == "" || blobs.OutputsContainer == "" || blobs.FilesContainer == blobs.OutputsContainer {
		return ErrInvalidStorageConfigs
	}
	switch blobs.Backend {
	case BlobsBackendFS:
		if blobs.Dir == "" {
			return ErrInvalidStorageConfigs
		}
	case BlobsBackendS3:
		if blobs.S3.Bucket == "" || blobs.S3.Region == "" {
			return ErrInvalidStorageConfigs
		}
	default:
		return ErrInvalidStorageConfigs
	}

	queue := cfg.Queue
	if queue.RequestsName == "" || queue.CompletionsName == "" || queue.RequestsName == queue.CompletionsName ||
		queue.PollInterval <= 0 || queue.VisibilityTimeout <= app.ToolTimeout+MinVisibilityMargin {
		return ErrInvalidQueueConfigs
	}
	switch queue.Backend {
	case QueueBackendMemory:
	case QueueBackendDB:
		if db.Driver == DriverMemory {
			return ErrInvalidQueueConfigs
		}
	default:
		return ErrInvalidQueueConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.DispatchAddress == "" ||
		cfg.Server.RequestTimeout <= 0 || cfg.Server.IdleTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.Workers.Count < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.DispatchAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	return nil
}
