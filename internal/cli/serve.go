package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/xrplrest/internal/config"
	"github.com/LeJamon/xrplrest/internal/journal"
	"github.com/LeJamon/xrplrest/internal/remote"
	"github.com/LeJamon/xrplrest/internal/rest"
	"github.com/LeJamon/xrplrest/internal/submit"
)

// serveCmd starts the gateway daemon. This is the default command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the order gateway",
	Long: `Start the xrplrest daemon: connect to the configured rippled node,
subscribe to its ledger and transaction streams, and serve the REST
order endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := remote.Dial(ctx, remote.Config{
		URL:              cfg.Rippled.URL,
		HandshakeTimeout: cfg.Rippled.HandshakeTimeout,
		CallTimeout:      cfg.Rippled.CallTimeout,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	var opts []submit.Option
	var store *journal.Journal
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, submit.WithRecorder(store))
	}

	coordinator := submit.New(client, client, client, opts...)

	var reader rest.JournalReader
	if store != nil {
		reader = store
	}
	handler := rest.NewHandler(coordinator, reader, client)
	server := rest.NewServer(cfg.Listen, handler, cfg.AllowedOrigins)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return client.Err()
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
