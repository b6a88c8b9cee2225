package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/models"
)

// ErrVersionIsNotSpecified is returned by NewAppInfoService for an empty
// version.
var ErrVersionIsNotSpecified = errors.New("app version is not specified")

// AppInfoService reports what the running server is.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}

type appInfoService struct {
	info   models.AppBuildInfo
	logger *logger.Logger
}

// NewAppInfoService uses cfg.Version when set, otherwise the version baked
// into info.
func NewAppInfoService(cfg config.App, info models.AppBuildInfo, logger *logger.Logger) (AppInfoService, error) {
	if cfg.Version != "" {
		info.Version = cfg.Version
	}
	if info.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		info:   info,
		logger: logger,
	}, nil
}

func (s *appInfoService) GetAppVersion(ctx context.Context) string {
	return s.info.Version
}

func (s *appInfoService) GetBuildInfo(ctx context.Context) models.AppBuildInfo {
	return s.info
}
