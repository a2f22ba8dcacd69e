package extractor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/feescope/internal/models"
)

type memTipOutput struct {
	mu      sync.Mutex
	samples []models.TipSample
}

func (o *memTipOutput) WriteTipSample(_ context.Context, sample models.TipSample) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.samples = append(o.samples, sample)
	return nil
}

func (o *memTipOutput) Close() error { return nil }

func (o *memTipOutput) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.samples)
}

func TestSampleOnce(t *testing.T) {
	fetcher := &stubFetcher{head: 42}
	var last uint64

	sample, ok := sampleOnce(context.Background(), fetcher, &last, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(42), sample.BlockNumber)
	assert.InDelta(t, 1.5, sample.MaxPriorityFeeGwei, 1e-12)
	assert.InDelta(t, 0.5, sample.GasUsageRatio, 1e-12)
	assert.Equal(t, uint64(42), last)
}

func TestSampleOnceSkipsUnchangedHead(t *testing.T) {
	fetcher := &stubFetcher{head: 42}
	last := uint64(42)

	_, ok := sampleOnce(context.Background(), fetcher, &last, nil)
	assert.False(t, ok, "unchanged head must not produce a sample")
}

func TestMonitorTipsStopsOnCancel(t *testing.T) {
	fetcher := &stubFetcher{head: 7}
	out := &memTipOutput{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- MonitorTips(ctx, fetcher, out, 10*time.Millisecond, nil)
	}()

	require.Eventually(t, func() bool { return out.count() >= 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("MonitorTips did not stop on cancellation")
	}
}

func TestTipMetricsNilReceiver(t *testing.T) {
	var m *TipMetrics
	// Must not panic.
	m.observeSample(models.TipSample{})
	m.observeError()
	m.Serve(context.Background(), "")
}
