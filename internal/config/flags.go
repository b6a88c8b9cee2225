package config

import (
	"errors"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// NetAddress is a host:port pair usable as a [pflag.Value].
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the server command line from os.Args.
//
//	-a, --address           HTTP API address, host:port
//	    --dispatch-address  dispatch protocol address, host:port
//	    --blobs-dir         content store directory (fs backend)
//	-d, --database-uri      catalog DSN
//	    --db-driver         catalog driver: pgx, sqlite3 or memory
//	-c, --config            JSON config file
//	    --password-hash-key
//	    --token-sign-key
//	    --token-issuer
//	    --token-duration    e.g. 1h
//	    --request-timeout   e.g. 30s
//	    --idle-timeout      dispatch session idle timeout
//	    --tool-timeout      tool invocation timeout
//	-w, --workers           number of processing workers
//
// A malformed command line yields whatever was parsed before the error;
// env and JSON sources still apply.
func ParseFlags() *StructuredConfig {
	cfg, _ := parseFlags(os.Args[1:])
	return cfg
}

func parseFlags(args []string) (*StructuredConfig, error) {
	fs := pflag.NewFlagSet("proc-box-server", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		cfg                          StructuredConfig
		httpAddress, dispatchAddress NetAddress
	)

	fs.VarP(&httpAddress, "address", "a", "HTTP API address host:port")
	fs.Var(&dispatchAddress, "dispatch-address", "dispatch protocol address host:port")
	fs.StringVar(&cfg.Storage.Blobs.Dir, "blobs-dir", "", "content store directory")
	fs.StringVarP(&cfg.Storage.DB.DSN, "database-uri", "d", "", "catalog DSN")
	fs.StringVar(&cfg.Storage.DB.Driver, "db-driver", "", "catalog driver (pgx, sqlite3, memory)")
	fs.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")
	fs.StringVar(&cfg.App.PasswordHashKey, "password-hash-key", "", "password hash key")
	fs.StringVar(&cfg.App.TokenSignKey, "token-sign-key", "", "token signing key")
	fs.StringVar(&cfg.App.TokenIssuer, "token-issuer", "", "token issuer")
	fs.DurationVar(&cfg.App.TokenDuration, "token-duration", 0, "token lifetime")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "HTTP request timeout")
	fs.DurationVar(&cfg.Server.IdleTimeout, "idle-timeout", 0, "dispatch session idle timeout")
	fs.DurationVar(&cfg.App.ToolTimeout, "tool-timeout", 0, "tool invocation timeout")
	fs.IntVarP(&cfg.Workers.Count, "workers", "w", 0, "number of processing workers")

	err := fs.Parse(args)

	cfg.Server.HTTPAddress = httpAddress.String()
	cfg.Server.DispatchAddress = dispatchAddress.String()
	return &cfg, err
}

// String returns host:port, or "" for an unset address.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses host:port. The host must be empty, "localhost" or an IP literal.
func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1..65535")
	}

	if host != "localhost" && host != "" && net.ParseIP(host) == nil {
		return errors.New("incorrect IP-address provided")
	}

	a.Host = host
	a.Port = port
	return nil
}

// Type names the value kind in pflag usage output.
func (a *NetAddress) Type() string {
	return "host:port"
}
