package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/MKhiriev/go-proc-box/internal/adapter"
	"github.com/MKhiriev/go-proc-box/internal/client"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	os.Exit(run())
}

func run() int {
	global := pflag.NewFlagSet(client.ProgramName, pflag.ContinueOnError)
	global.SetInterspersed(false)
	email := global.String("email", os.Getenv("PROC_BOX_EMAIL"), "login e-mail")
	password := global.String("password", os.Getenv("PROC_BOX_PASSWORD"), "login password")
	logPath := global.String("log", os.Getenv("PROC_BOX_LOG"), "append client logs to this file")
	showVersion := global.Bool("client-version", false, "print the client build and exit")

	args := os.Args[1:]
	if err := global.Parse(args); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "Global flags:\n%s\n", global.FlagUsages())
		args = []string{"--help"}
	} else {
		args = global.Args()
	}

	if *showVersion {
		fmt.Printf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", orNA(buildVersion), orNA(buildDate), orNA(buildCommit))
		return 0
	}

	log := logger.Nop()
	if *logPath != "" {
		log = logger.NewClientLogger("proc-box-client", *logPath)
	}

	cfg, err := config.GetClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error getting configs:", err)
		return 1
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	dial := func(ctx context.Context) (client.DispatchSession, error) {
		return adapter.DialDispatch(ctx, cfg.Adapter, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := client.NewApp(serverAdapter, dial, client.Credentials{Email: *email, Password: *password}, os.Stdout, log)
	if err = app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if client.IsUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
