package service

import (
	"github.com/MKhiriev/go-proc-box/internal/codec"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/queue"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/internal/tools"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

type Services struct {
	CatalogService    CatalogService
	ContentService    ContentService
	ProcessingService ProcessingService
	AppInfoService    AppInfoService

	// Requests is the channel consumed by the processing workers.
	Requests *queue.Channel[models.ProcessingMessage]
}

func NewServices(storages *store.Storages, registry *tools.Registry, cfg *config.StructuredConfig, buildInfo models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, buildInfo, logger)
	if err != nil {
		return nil, err
	}

	ids := utils.NewUUIDGenerator()
	messages := codec.NewCBOR[models.ProcessingMessage]()

	requests := queue.NewChannel(cfg.Queue.RequestsName, storages.Queue, messages, cfg.Queue, logger)
	completions := queue.NewChannel(cfg.Queue.CompletionsName, storages.Queue, messages, cfg.Queue, logger)

	content := NewContentService(storages.Blobs, cfg.Storage.Blobs, ids, logger)

	return &Services{
		CatalogService: NewCatalogService(storages.Users, storages.Counters, cfg.App, logger),
		ContentService: content,
		ProcessingService: NewProcessingService(
			registry, content, cfg.Storage.Blobs.FilesContainer,
			requests, completions, ids, cfg.App.ToolTimeout, logger,
		),
		AppInfoService: appInfo,
		Requests:       requests,
	}, nil
}
