package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"civicpulse/logger"
	"civicpulse/service"
)

// OverdueProcessor runs one overdue-assignment pass
type OverdueProcessor interface {
	ProcessOverdue(ctx context.Context) ([]service.OverdueResult, error)
}

// OverdueWorker is a background worker that periodically reminds workers of
// assignments left open past the overdue threshold
type OverdueWorker struct {
	processor OverdueProcessor
	interval  time.Duration
	stopChan  chan struct{}
	done      chan struct{}
	running   bool
	mu        sync.Mutex
	log       *logrus.Entry
}

// NewOverdueWorker creates a new overdue worker
func NewOverdueWorker(processor OverdueProcessor, interval time.Duration) *OverdueWorker {
	return &OverdueWorker{
		processor: processor,
		interval:  interval,
		log:       logger.GetLogger("overdue"),
	}
}

// Start starts the worker in its own goroutine
func (w *OverdueWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.log.Warn("[overdue] worker is already running")
		return
	}

	w.running = true
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	w.log.Infof("[overdue] worker started (interval: %v)", w.interval)

	go w.run(w.stopChan, w.done)
}

// Stop stops the worker and waits for an in-flight pass to finish
func (w *OverdueWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	done := w.done
	w.mu.Unlock()

	<-done
	w.log.Info("[overdue] worker stopped")
}

// run is the main worker loop
func (w *OverdueWorker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Process immediately on start
	w.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}

// RunOnce performs a single pass. Safe to call repeatedly: unread reminders
// are never duplicated.
func (w *OverdueWorker) RunOnce(ctx context.Context) (sent, skipped int) {
	startTime := time.Now()

	results, err := w.processor.ProcessOverdue(ctx)
	if err != nil {
		w.log.WithError(err).Error("[overdue] processing failed")
		return 0, 0
	}

	for _, result := range results {
		if result.Sent {
			sent++
			w.log.WithField("report_id", result.ReportID).Infof("[overdue] reminder sent to %s", result.RecipientID)
		} else {
			skipped++
		}
	}

	w.log.Infof("[overdue] pass completed in %v: %d reminders, %d skipped",
		time.Since(startTime), sent, skipped)
	return sent, skipped
}
