package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/codec"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/queue"
	"github.com/MKhiriev/go-proc-box/internal/service"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/internal/tools"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

const (
	adminEmail = "admin@proc.box"
	adminPass  = "admin"
	userEmail  = "user@proc.box"
	userPass   = "secret"
)

type fixture struct {
	catalog    service.CatalogService
	content    service.ContentService
	processing service.ProcessingService
	server     *Server
	admin      *session.Session
	user       *session.Session
}

func newFixture(t *testing.T, providers ...tools.Provider) *fixture {
	t.Helper()
	ctx := context.Background()
	if len(providers) == 0 {
		providers = []tools.Provider{tools.BuiltinProvider()}
	}

	appCfg := config.App{
		PasswordHashKey:      "hash",
		TokenSignKey:         "sign",
		TokenIssuer:          "test",
		TokenDuration:        time.Hour,
		DefaultAdminEmail:    adminEmail,
		DefaultAdminPassword: adminPass,
	}
	catalogStore := store.NewMemoryCatalog()
	catalog := service.NewCatalogService(catalogStore, catalogStore, appCfg, logger.Nop())
	require.NoError(t, catalog.Setup(ctx))

	blobs, err := store.NewFSBlobStorage(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	blobsCfg := config.Blobs{FilesContainer: "files", OutputsContainer: "outputs"}
	require.NoError(t, blobs.EnsureContainer(ctx, blobsCfg.FilesContainer))
	require.NoError(t, blobs.EnsureContainer(ctx, blobsCfg.OutputsContainer))
	content := service.NewContentService(blobs, blobsCfg, utils.NewUUIDGenerator(), logger.Nop())

	registry, err := tools.NewRegistry(providers...)
	require.NoError(t, err)
	qs := store.NewMemoryQueueStorage()
	messages := codec.NewCBOR[models.ProcessingMessage]()
	requests := queue.NewChannel("requests", qs, messages, config.Queue{}, logger.Nop())
	completions := queue.NewChannel("completions", qs, messages, config.Queue{}, logger.Nop())
	processing := service.NewProcessingService(registry, content, blobsCfg.FilesContainer, requests, completions,
		utils.NewUUIDGenerator(), time.Second, logger.Nop())

	admin := session.New()
	require.NoError(t, catalog.Login(ctx, admin, adminEmail, adminPass))
	_, err = catalog.AddUser(ctx, admin, userEmail, userPass, false)
	require.NoError(t, err)
	user := session.New()
	require.NoError(t, catalog.Login(ctx, user, userEmail, userPass))

	return &fixture{
		catalog:    catalog,
		content:    content,
		processing: processing,
		server:     NewServer(catalog, processing, config.Server{IdleTimeout: 5 * time.Second}, logger.Nop()),
		admin:      admin,
		user:       user,
	}
}

// start runs the server on a loopback port until the test ends.
func (f *fixture) start(t *testing.T) (addr string, stop func() error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	var once bool
	var result error
	stop = func() error {
		if !once {
			once = true
			cancel()
			result = <-done
		}
		return result
	}
	t.Cleanup(func() { _ = stop() })
	return ln.Addr().String(), stop
}

func (f *fixture) upload(t *testing.T, sess *session.Session, name, body string) string {
	t.Helper()
	uri, err := f.content.AddFile(context.Background(), sess, name, strings.NewReader(body), false)
	require.NoError(t, err)
	return uri
}

type lineClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *lineClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &lineClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *lineClient) send(lines ...string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(c.t, err)
}

func (c *lineClient) recv() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimRight(line, "\n")
}

// closedByServer reports whether the server hung up.
func (c *lineClient) closedByServer() bool {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err := c.r.ReadByte()
	return err != nil && !isTimeout(err)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
