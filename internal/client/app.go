package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MKhiriev/go-proc-box/internal/adapter"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/models"
)

// ProgramName is the root of every command path.
const ProgramName = "proc-box"

var errNoCredentials = errors.New("credentials required: set --email and --password or PROC_BOX_EMAIL and PROC_BOX_PASSWORD")

// Credentials identify the user every command logs in as.
type Credentials struct {
	Email    string
	Password string
}

// DispatchSession is the synchronous processing connection used by the
// process command. [adapter.DispatchClient] implements it.
type DispatchSession interface {
	Authenticate(email, password string) error
	OfferFile(contentType, uri string) ([]models.ToolDescriptor, error)
	Process(toolName string) (string, error)
	Close() error
}

// DialFunc opens a new [DispatchSession].
type DialFunc func(ctx context.Context) (DispatchSession, error)

type App struct {
	server adapter.ServerAdapter
	dial   DialFunc
	creds  Credentials
	out    io.Writer
	root   *Command

	logger *logger.Logger
}

func NewApp(server adapter.ServerAdapter, dial DialFunc, creds Credentials, out io.Writer, logger *logger.Logger) *App {
	a := &App{
		server: server,
		dial:   dial,
		creds:  creds,
		out:    out,
		logger: logger,
	}
	a.root = a.commands()
	return a
}

// Run executes the command line args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	err := a.root.Execute(ctx, "", args, a.out)
	if err != nil {
		a.logger.Err(err).Strs("args", args).Msg("command failed")
	}
	return err
}

// IsUsageError reports whether err comes from a malformed command line.
func IsUsageError(err error) bool {
	return errors.Is(err, errUsage)
}

// login authenticates the HTTP adapter once per invocation.
func (a *App) login(ctx context.Context) error {
	if a.server.Token() != "" {
		return nil
	}
	if a.creds.Email == "" || a.creds.Password == "" {
		return errNoCredentials
	}

	if _, err := a.server.Login(ctx, a.creds.Email, a.creds.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}
