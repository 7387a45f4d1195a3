package main

import (
	"context"
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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ygrebnov/observe"
	"github.com/ygrebnov/observe/hostcpu"
	"github.com/ygrebnov/observe/logging"
	"github.com/ygrebnov/observe/mailbox"
	"github.com/ygrebnov/observe/metrics/prom"
	"github.com/ygrebnov/observe/tracing"
)

type flags struct {
	config      string
	interval    time.Duration
	metricsAddr string
	logLevel    string
	noTracing   bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "observe",
		Short:         "Sample host cpu usage and trace every observation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.config, "config", "c", "", "config file (yaml, json or toml)")
	fs.DurationVarP(&f.interval, "interval", "i", 0, "sampling interval (default 5s)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "address of the Prometheus endpoint, empty to keep the config value")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	fs.BoolVar(&f.noTracing, "no-tracing", false, "create spans without exporting them")
	return cmd
}

// loadConfig loads the config file and environment, then applies explicitly set flags.
func loadConfig(cmd *cobra.Command, f *flags) (*observe.Config, error) {
	cfg, err := observe.LoadConfig(f.config)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("interval") {
		cfg.Interval = f.interval
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if fs.Changed("log-level") {
		cfg.Logger.Level = f.logLevel
	}
	if f.noTracing {
		cfg.Tracing.Enabled = false
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *observe.Config) error {
	log, closeLog, err := logging.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	tp.InstallGlobal()
	defer func() {
		// ctx is already cancelled here; flush with a fresh one.
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("failed to flush spans")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	provider := prom.NewProvider(reg, prom.WithNamespace(cfg.Metrics.Namespace), prom.WithLogger(log))

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	down := observe.NewDownstream(cfg.ChannelCapacity)
	h, err := observe.Start(ctx, cfg, hostcpu.New(), down,
		observe.WithTracer(tp.Tracer()),
		observe.WithInstruments(observe.NewInstruments(provider)),
		observe.WithLogger(log),
	)
	if err != nil {
		return err
	}
	log.WithField("interval", cfg.Interval).Info("pipeline started")

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		consume(ctx, down, log)
	}()

	err = h.Wait()
	log.WithField("actor", h.Exited()).Info("pipeline stopping")
	<-h.Stopped()
	<-consumed
	return err
}

// consume is the downstream consumer: it logs every observation inside its span and
// closes it.
func consume(ctx context.Context, down *mailbox.Mailbox[*observe.Observation], log logrus.FieldLogger) {
	defer down.CloseReceiver()
	for {
		obs, ok := down.Recv(ctx)
		if !ok {
			return
		}
		obs.Do(func(ctx context.Context, readings []observe.Reading) {
			logging.FromContext(ctx, log).WithField("cpus", len(readings)).Info("received observation")
		})
		obs.Close()
	}
}

func serveMetrics(cfg observe.MetricsConfig, reg *prometheus.Registry, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.Addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return srv
}
