package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/handler"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/server"
	"github.com/MKhiriev/go-proc-box/internal/service"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/internal/tools"
	"github.com/MKhiriev/go-proc-box/internal/workers"
	"github.com/MKhiriev/go-proc-box/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	printBuildInfo(buildInfo)

	log := logger.NewLogger("proc-box-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("server", cfg.Server).Any("queue", cfg.Queue).Msg("received configs")

	ctx := context.Background()

	storages, err := store.NewStorages(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	registry, err := tools.NewRegistry(tools.BuiltinProvider())
	if err != nil {
		log.Fatal().Err(err).Msg("error creating tool registry")
	}

	services, err := service.NewServices(storages, registry, cfg, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}
	if err = services.CatalogService.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("error setting up catalog")
	}

	handlers, err := handler.NewHandlers(services, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, workers.NewWorkers(services, cfg.Workers, log), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo(info models.AppBuildInfo) {
	fmt.Printf("Build version: %s\n", info.Version)
	fmt.Printf("Build date: %s\n", info.Date)
	fmt.Printf("Build commit: %s\n", info.Commit)
}
