package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"krizpay/pkg/record"
	"krizpay/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the transaction record backend",
	Long: `Serve the HTTP API that stores transaction records:

  GET  /api/health
  POST /api/transactions
  GET  /api/transactions
  GET  /api/transactions/:hash

Records go to the configured store; the http driver cannot be served.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cmd, cfg)
	defer func() { _ = logger.Sync() }()

	if cfg.Store.Driver == record.DriverHTTP {
		printError(errServeHTTPStore)
		os.Exit(1)
	}

	store, closeStore := openStore(cfg)
	defer func() { _ = closeStore() }()

	listenAddr := cfg.Server.ListenAddr
	if serveAddr != "" {
		listenAddr = serveAddr
	}

	srv, err := server.New(server.Config{
		ListenAddr:     listenAddr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, store, server.WithLogger(logger))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

var errServeHTTPStore = errors.New("store.driver http points at a backend; serve needs file, sqlite or postgres")
