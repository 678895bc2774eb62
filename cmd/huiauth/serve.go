package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/huiapp/huiauth/httpapi"
	promexport "github.com/huiapp/huiauth/metrics/export/prometheus"
)

// Readiness probes give up after this long.
const readinessTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API serving /auth and /settings routes, Prometheus
metrics and health probes. Roles and default settings are seeded on start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	b, err := openBackend(ctx, configFile)
	if err != nil {
		return err
	}
	defer b.Close(context.Background())

	if _, err := seedAll(ctx, b); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", b.cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", b.cfg.HTTP.Addr).Wrap(err)
	}

	t := b.cfg.HTTP.Timeouts
	srv := &http.Server{
		Handler:           newHandler(b),
		ReadHeaderTimeout: t.ReadHeaderTimeout,
		ReadTimeout:       t.ReadTimeout,
		WriteTimeout:      t.WriteTimeout,
		IdleTimeout:       t.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()
	b.logger.Info("http server listening", "addr", listener.Addr().String())
	cmd.Printf("huiauth listening on %s\n", listener.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		b.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		b.logger.Info("context cancelled, shutting down")
	case serveErr := <-errCh:
		return oops.Code("SERVE_FAILED").Wrap(serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// newHandler mounts the API next to the metrics endpoint and the
// Kubernetes-style health probes.
func newHandler(b *backend) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewRouter(b.engine, b.logger))

	if b.cfg.Metrics.Enabled && b.cfg.Metrics.Path != "" {
		mux.Handle("GET "+b.cfg.Metrics.Path, promexport.Handler(b.engine,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		))
	}

	mux.HandleFunc("GET /healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /healthz/readiness", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if !b.ready(ctx) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
