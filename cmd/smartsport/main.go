package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/smartsport/gateway"
	"github.com/jrsteele09/smartsport/internal/config"
	"github.com/jrsteele09/smartsport/server"
	"github.com/jrsteele09/smartsport/session"
	"github.com/jrsteele09/smartsport/session/filestore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	api, err := gateway.New(c.GetAPIBaseURL(),
		gateway.WithTimeout(c.GetAPITimeout()),
		gateway.WithLogger(log.With().Str("component", "gateway").Logger()),
	)
	if err != nil {
		return fmt.Errorf("gateway.New: %w", err)
	}

	storage, err := openSessionFile(c)
	if err != nil {
		return err
	}

	notices := server.NewNotices()
	store := session.New(session.FromClient(api), storage,
		session.WithLogger(log.With().Str("component", "session").Logger()),
		session.WithNavigator(notices, c.GetLoginRoute()),
		session.WithTokenExpiryCheck(c.GetCheckTokenExpiry()),
		session.WithRestoreValidation(c.GetValidateOnRestore()),
	)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Restore(ctx); err != nil {
		return fmt.Errorf("session restore: %w", err)
	}
	log.Info().Str("state", store.Snapshot().State.String()).Str("file", storage.Path()).Msg("Session restored")

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           server.New(c, api, store, notices),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(srv)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv)
	})
	return g.Wait()
}

func setupLogging(c config.Config) {
	zerolog.SetGlobalLevel(c.GetLogLevel())
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openSessionFile opens SESSION_FILE, or session.json under the user's
// config directory.
func openSessionFile(c config.Config) (*filestore.Store, error) {
	path := c.GetSessionFile()
	if path == "" {
		var err error
		if path, err = filestore.DefaultPath(c.GetAppName()); err != nil {
			return nil, err
		}
	}
	storage, err := filestore.New(path, filestore.WithPassphrase(c.GetSessionPassphrase()))
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	return storage, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
