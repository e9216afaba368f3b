package main

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/erc7824/receipt-signer/pkg/log"
	"github.com/erc7824/receipt-signer/pkg/sign"
)

//go:embed config/migrations/*/*.sql
var embedMigrations embed.FS

const (
	apiWSEndpoint   = "/ws"
	metricsEndpoint = "/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliFlags override the matching environment settings when set.
type cliFlags struct {
	signingKey  string
	httpAddr    string
	metricsAddr string
}

func (f *cliFlags) apply(conf *Config) {
	if f.signingKey != "" {
		conf.SigningKey = f.signingKey
	}
	if f.httpAddr != "" {
		conf.HTTPAddr = f.httpAddr
	}
	if f.metricsAddr != "" {
		conf.MetricsAddr = f.metricsAddr
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "receipt-signer",
		Short:         "Serve receipt signing and verification over HTTP and WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&flags.signingKey, "signing-key", "", "hex-encoded secp256k1 private key, overrides SIGNING_KEY")
	root.Flags().StringVar(&flags.httpAddr, "http-addr", "", "API listen address, overrides RECEIPT_SIGNER_HTTP_ADDR")
	root.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "metrics listen address, overrides RECEIPT_SIGNER_METRICS_ADDR")

	root.AddCommand(
		newAddressCmd(flags),
		newSignCmd(flags),
		newVerifyCmd(flags),
	)
	return root
}

func newAddressCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), sign.EncodeAddress(app.service.Address()))
			return err
		},
	}
}

func newSignCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a message and print the receipt as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			receipt, err := app.service.SignReceipt(cmd.Context(), []byte(args[0]))
			if err != nil {
				return cliError(err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(newSignResponse(receipt))
		},
	}
}

func newVerifyCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <message> <signature> [address]",
		Short: "Verify a signature against an address, or the signing key's own address",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			var address *sign.Address
			if len(args) == 3 {
				addr, err := sign.DecodeAddress(args[2])
				if err != nil {
					return cliError(err)
				}
				address = &addr
			}

			if err := app.service.VerifyReceipt(cmd.Context(), []byte(args[0]), args[1], address); err != nil {
				return cliError(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return err
		},
	}
}

// cliError reports err with the same message an API client would get.
func cliError(err error) error {
	_, message := toAPIError(err)
	return errors.New(message)
}

type app struct {
	conf     *Config
	logger   log.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	metrics  *Metrics
	service  *ReceiptService
}

func newApp(flags *cliFlags) (*app, error) {
	logConf, err := log.LoadConfig()
	if err != nil {
		logConf = log.Config{Format: "console", Level: log.LevelInfo, Output: "stderr"}
	}
	conf, err := LoadConfig(log.NewZapLogger(logConf).WithName("root"))
	if err != nil {
		return nil, err
	}
	flags.apply(conf)

	logger := log.NewZapLogger(conf.Log).WithName("root")
	logger.Debug("effective configuration", "config", conf.String())

	keys, err := sign.NewKeyStore(conf.SigningKey, rand.Reader, logger)
	if err != nil {
		return nil, err
	}

	db, err := ConnectToDB(conf.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}
	var store ReceiptRecorder
	if db != nil {
		store = NewReceiptStore(db)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetricsWithRegistry(registry)

	service := NewReceiptService(
		sign.NewSigningService(keys),
		sign.NewVerificationService(keys),
		store,
		metrics,
		logger,
	)

	return &app{
		conf:     conf,
		logger:   logger,
		db:       db,
		registry: registry,
		metrics:  metrics,
		service:  service,
	}, nil
}

// Handler returns the API mux: the HTTP routes plus the WebSocket endpoint.
func (a *app) Handler() http.Handler {
	mux := http.NewServeMux()
	NewHTTPAPI(a.service, a.metrics, a.logger).Register(mux)
	mux.HandleFunc(apiWSEndpoint, NewWSNode(a.service, a.metrics, a.logger).HandleConnection)
	return mux
}

// Serve runs the API and metrics servers until ctx is done, SIGINT or SIGTERM
// arrives, or a server fails.
func (a *app) Serve(ctx context.Context) error {
	apiServer := &http.Server{
		Addr:              a.conf.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up a separate mux for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              a.conf.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("Prometheus metrics available", "listenAddr", a.conf.MetricsAddr, "endpoint", metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server failure: %w", err)
		}
	}()
	go func() {
		a.logger.Info("API server available", "listenAddr", a.conf.HTTPAddr, "wsEndpoint", apiWSEndpoint)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("API server failure: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case serveErr = <-errCh:
		a.logger.Error("shutting down after server failure", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.conf.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to shut down API server", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to shut down metrics server", "error", err)
	}

	a.logger.Info("shutdown complete")
	return serveErr
}

// Close releases the database connection.
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
