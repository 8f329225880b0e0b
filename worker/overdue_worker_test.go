package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"civicpulse/service"
)

type stubProcessor struct {
	calls   int32
	results []service.OverdueResult
	err     error
}

func (s *stubProcessor) ProcessOverdue(ctx context.Context) ([]service.OverdueResult, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.results, s.err
}

func TestRunOnceCountsResults(t *testing.T) {
	p := &stubProcessor{results: []service.OverdueResult{
		{ReportID: "r1", RecipientID: "w1", Sent: true},
		{ReportID: "r2", RecipientID: "w1", Sent: false, Reason: "unread reminder already pending"},
		{ReportID: "r3", RecipientID: "w2", Sent: true},
	}}
	w := NewOverdueWorker(p, time.Minute)

	sent, skipped := w.RunOnce(context.Background())
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, skipped)
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	w := NewOverdueWorker(&stubProcessor{err: errors.New("db down")}, time.Minute)
	sent, skipped := w.RunOnce(context.Background())
	assert.Zero(t, sent)
	assert.Zero(t, skipped)
}

func TestStartProcessesImmediatelyAndStops(t *testing.T) {
	p := &stubProcessor{}
	w := NewOverdueWorker(p, time.Hour)

	w.Start()
	w.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&p.calls) == 1 }, time.Second, time.Millisecond)

	w.Stop()
	w.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))

	// restartable after stop
	w.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&p.calls) == 2 }, time.Second, time.Millisecond)
	w.Stop()
}
