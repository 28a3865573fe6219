// Command tipi-fakeid runs the in-memory identity service on a local port so
// that applications using the tipi library can be exercised without the real
// service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fzdarsky/tipi/internal/fakeidentity"
	"github.com/fzdarsky/tipi/internal/lifecycle"
	"github.com/fzdarsky/tipi/internal/logging"
	"github.com/fzdarsky/tipi/pkg/srp"
)

var (
	// version is set by build flags
	version = "dev"
	// commit is set by build flags
	commit = "none"
)

type account struct {
	name, password string
}

// accountList collects repeated name:password flags.
type accountList []account

func (l *accountList) String() string {
	names := make([]string, len(*l))
	for i, a := range *l {
		names[i] = a.name
	}
	return strings.Join(names, ",")
}

func (l *accountList) Set(v string) error {
	name, password, ok := strings.Cut(v, ":")
	if !ok || name == "" {
		return fmt.Errorf("expected name:password, got %q", v)
	}
	*l = append(*l, account{name: name, password: password})
	return nil
}

type options struct {
	listen    string
	strength  int
	logLevel  string
	logFormat string
	users     accountList
	partial   accountList
}

func main() {
	var o options
	flag.StringVar(&o.listen, "listen", "127.0.0.1:8642", "address to listen on")
	flag.IntVar(&o.strength, "strength", srp.DefaultStrength, "SRP group strength in bits")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&o.logFormat, "log-format", "human", "log format (json, human)")
	flag.Var(&o.users, "user", "account as name:password (repeatable)")
	flag.Var(&o.partial, "partial-user", "account that must send its clear password once, as name:password (repeatable)")
	flag.Parse()

	logger := logging.New(logging.LevelInfo, logging.FormatHuman)
	if err := run(o, logger); err != nil {
		logger.Error("tipi-fakeid failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(o options, logger *logging.Logger) error {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(o.logFormat)
	if err != nil {
		return err
	}
	logger = logging.New(level, format)

	group, err := srp.Lookup(o.strength)
	if err != nil {
		return err
	}

	fake := fakeidentity.New(group, fakeidentity.WithLogger(logger))
	for _, a := range o.users {
		if err := fake.AddUser(a.name, a.password); err != nil {
			return fmt.Errorf("failed to add user %q: %w", a.name, err)
		}
	}
	for _, a := range o.partial {
		fake.AddPartialUser(a.name, a.password)
	}

	srv := &http.Server{
		Addr:              o.listen,
		Handler:           fake,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := lifecycle.NewShutdown()
	defer shutdown.Stop()
	ctx := shutdown.Watch(context.Background())

	logger.Info("fake identity service starting", map[string]any{
		"version":  version,
		"commit":   commit,
		"listen":   o.listen,
		"strength": o.strength,
		"users":    len(o.users) + len(o.partial),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", map[string]any{"reason": shutdown.Reason()})
	if err := lifecycle.Graceful(context.Background(), srv.Shutdown, 5*time.Second); err != nil {
		return err
	}
	logger.Info("fake identity service stopped")
	return nil
}
