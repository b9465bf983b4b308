package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leaseledger/backend/internal/application/billing"
)

type stubTotalsJob struct {
	mu   sync.Mutex
	runs int
	ran  chan struct{}
}

func newStubTotalsJob() *stubTotalsJob {
	return &stubTotalsJob{ran: make(chan struct{}, 64)}
}

func (j *stubTotalsJob) RefreshAll(ctx context.Context) (*billing.RefreshResult, error) {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	j.ran <- struct{}{}
	return &billing.RefreshResult{TotalTenants: 1, Successful: 1}, nil
}

func (j *stubTotalsJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestPaymentTotalsScheduler_RunsOnInterval(t *testing.T) {
	job := newStubTotalsJob()
	cfg := PaymentTotalsSchedulerConfig{
		Enabled:        true,
		Interval:       20 * time.Millisecond,
		RefreshTimeout: time.Second,
	}
	s := NewPaymentTotalsScheduler(job, zap.NewNop(), cfg)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("totals refresh did not run in time")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())

	// No further ticks after stop.
	count := job.runCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, count, job.runCount())
}

func TestPaymentTotalsScheduler_Disabled(t *testing.T) {
	cfg := DefaultPaymentTotalsSchedulerConfig()
	cfg.Enabled = false
	s := NewPaymentTotalsScheduler(newStubTotalsJob(), zap.NewNop(), cfg)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestPaymentTotalsScheduler_StopIsIdempotent(t *testing.T) {
	s := NewPaymentTotalsScheduler(newStubTotalsJob(), zap.NewNop(), DefaultPaymentTotalsSchedulerConfig())

	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))
}
