package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/codec"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/queue"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/internal/tools"
	"github.com/MKhiriev/go-proc-box/models"
)

const (
	testFiles   = "files"
	testOutputs = "outputs"
	adminEmail  = "admin@proc.box"
	adminPass   = "admin"
)

var testAppConfig = config.App{
	PasswordHashKey:      "hash-key",
	TokenSignKey:         "sign-key",
	TokenIssuer:          "go-proc-box-test",
	TokenDuration:        time.Hour,
	DefaultAdminEmail:    adminEmail,
	DefaultAdminPassword: adminPass,
	ToolTimeout:          5 * time.Second,
}

// sequentialIDs makes generated addresses predictable.
type sequentialIDs struct{ n atomic.Int64 }

func (s *sequentialIDs) Generate() string {
	return fmt.Sprintf("-%04d", s.n.Add(1))
}

func newTestCatalog(t *testing.T) *catalogService {
	t.Helper()
	catalog := store.NewMemoryCatalog()
	svc := NewCatalogService(catalog, catalog, testAppConfig, logger.Nop()).(*catalogService)
	svc.counterBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(1000, retry.NewConstant(time.Millisecond))
	}
	require.NoError(t, svc.Setup(context.Background()))
	return svc
}

func adminSession(t *testing.T, c CatalogService) *session.Session {
	t.Helper()
	sess := session.New()
	require.NoError(t, c.Login(context.Background(), sess, adminEmail, adminPass))
	return sess
}

func newTestContent(t *testing.T) (*contentService, store.BlobStorage) {
	t.Helper()
	blobs, err := store.NewFSBlobStorage(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	for _, c := range []string{testFiles, testOutputs} {
		require.NoError(t, blobs.EnsureContainer(context.Background(), c))
	}

	cfg := config.Blobs{FilesContainer: testFiles, OutputsContainer: testOutputs}
	return NewContentService(blobs, cfg, &sequentialIDs{}, logger.Nop()).(*contentService), blobs
}

type processingFixture struct {
	svc         *processingService
	content     *contentService
	requests    *queue.Channel[models.ProcessingMessage]
	completions *queue.Channel[models.ProcessingMessage]
	queue       *store.MemoryQueueStorage
}

func newTestProcessing(t *testing.T, providers ...tools.Provider) processingFixture {
	t.Helper()
	if len(providers) == 0 {
		providers = []tools.Provider{tools.BuiltinProvider()}
	}
	registry, err := tools.NewRegistry(providers...)
	require.NoError(t, err)

	content, _ := newTestContent(t)
	qs := store.NewMemoryQueueStorage()
	qcfg := config.Queue{PollInterval: 10 * time.Millisecond, VisibilityTimeout: time.Minute}
	messages := codec.NewCBOR[models.ProcessingMessage]()
	requests := queue.NewChannel("requests", qs, messages, qcfg, logger.Nop())
	completions := queue.NewChannel("completions", qs, messages, qcfg, logger.Nop())

	svc := NewProcessingService(registry, content, testFiles, requests, completions, &sequentialIDs{}, time.Second, logger.Nop())
	return processingFixture{
		svc:         svc.(*processingService),
		content:     content,
		requests:    requests,
		completions: completions,
		queue:       qs,
	}
}
