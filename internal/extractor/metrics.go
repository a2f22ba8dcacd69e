package extractor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manifest-network/feescope/internal/models"
)

// TipMetrics exposes the live monitor's health over Prometheus. All methods
// are safe on a nil receiver so callers without a metrics endpoint can pass
// nil.
type TipMetrics struct {
	registry    *prometheus.Registry
	samples     prometheus.Counter
	rpcErrors   prometheus.Counter
	lastTipGwei prometheus.Gauge
	lastBlock   prometheus.Gauge
}

func NewTipMetrics() *TipMetrics {
	m := &TipMetrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feescope_tip_samples_total",
			Help: "Priority-fee samples recorded.",
		}),
		rpcErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feescope_rpc_errors_total",
			Help: "RPC calls that failed during monitoring.",
		}),
		lastTipGwei: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feescope_last_tip_gwei",
			Help: "Most recently observed priority-fee suggestion, in gwei.",
		}),
		lastBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feescope_last_block_number",
			Help: "Most recently sampled block number.",
		}),
	}
	m.registry.MustRegister(m.samples, m.rpcErrors, m.lastTipGwei, m.lastBlock)
	return m
}

func (m *TipMetrics) observeSample(sample models.TipSample) {
	if m == nil {
		return
	}
	m.samples.Inc()
	m.lastTipGwei.Set(sample.MaxPriorityFeeGwei)
	m.lastBlock.Set(float64(sample.BlockNumber))
}

func (m *TipMetrics) observeError() {
	if m == nil {
		return
	}
	m.rpcErrors.Inc()
}

// Serve exposes /metrics on addr until the context is cancelled.
func (m *TipMetrics) Serve(ctx context.Context, addr string) {
	if m == nil || addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
}
