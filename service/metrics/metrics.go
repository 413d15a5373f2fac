package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const defaultPath = "/metrics"

// Config defines configurations for the metrics service.
type Config struct {
	// Source of the exposed metrics.
	Gatherer prometheus.Gatherer

	// Address to listen for scrape requests.
	ListenAddr string

	// Path of the metrics endpoint. Defaults to "/metrics".
	Path string

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Gatherer == nil {
		err = multierror.Append(err, fmt.Errorf("metrics gatherer not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.Path == "" {
		config.Path = defaultPath
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Service exposes Prometheus metrics over HTTP. It satisfies the
// service.Service interface.
type Service struct {
	config Config
	router *http.ServeMux
}

// New creates and returns a fully configured metrics service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("metrics service: config validation failed: %w", err)
	}

	router := http.NewServeMux()
	router.Handle(config.Path, promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{
		ErrorLog: config.Logger,
	}))
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Service{config: config, router: router}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "metrics" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithFields(logrus.Fields{
		"addr": l.Addr().String(),
		"path": svc.config.Path,
	}).Info("started service")
	defer svc.config.Logger.Info("stopped service")

	if err = srv.Serve(l); err == http.ErrServerClosed {
		err = nil
	}

	return err
}
