// Command collabd serves the collaboration tracking HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"collabcore/internal/auth"
	"collabcore/internal/blob"
	"collabcore/internal/core"
	"collabcore/internal/httpapi"
	"collabcore/internal/metrics"
	"collabcore/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("collabd: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := os.Getenv("COLLABCORE_JWT_SECRET")
	if secret == "" {
		return errors.New("COLLABCORE_JWT_SECRET is required")
	}
	addr := os.Getenv("COLLABCORE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend, err := core.OpenBackend()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	service := core.NewService(backend, core.WithMetrics(metrics.NewRecorder(registry)))

	authSvc, err := auth.NewService(service.Users(), auth.Config{
		Secret: secret,
		Issuer: os.Getenv("COLLABCORE_JWT_ISSUER"),
	})
	if err != nil {
		return err
	}

	blobStore, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	exporter := report.NewExporter(service, blobStore)

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(service, authSvc, exporter).Mux())
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("collabd listening on %s (storage=%s blobs=%s)", addr, driverName(), blobStore.Driver())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func driverName() string {
	if driver := os.Getenv("COLLABCORE_STORAGE_DRIVER"); driver != "" {
		return driver
	}
	return string(core.StorageSQLite)
}
