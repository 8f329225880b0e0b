package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"civicpulse/logger"
	"civicpulse/metrics"
	"civicpulse/models"
)

// Dispatcher runs best-effort side effects (scoring, notifications) off the
// request path. Each effect is retried with exponential backoff; an effect
// that exhausts its attempts is logged and counted, never surfaced to the caller.
type Dispatcher struct {
	config *models.DispatchConfig
	slots  chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Entry
}

// NewDispatcher creates a dispatcher running at most workers effects at once
func NewDispatcher(config *models.DispatchConfig, workers int) *Dispatcher {
	if config == nil {
		config = models.DefaultDispatchConfig()
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		config: config,
		slots:  make(chan struct{}, workers),
		ctx:    ctx,
		cancel: cancel,
		log:    logger.GetLogger("dispatcher"),
	}
}

// Go schedules fn and returns immediately
func (d *Dispatcher) Go(effect string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case d.slots <- struct{}{}:
		case <-d.ctx.Done():
			d.log.Warnf("[dispatch] %s dropped: dispatcher closed", effect)
			metrics.SideEffectFailures.WithLabelValues(effect).Inc()
			return
		}
		defer func() { <-d.slots }()

		d.run(effect, fn)
	}()
}

func (d *Dispatcher) run(effect string, fn func(ctx context.Context) error) {
	var lastErr error
	for attempt := 0; attempt < d.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(d.retryDelay(attempt - 1))
			select {
			case <-timer.C:
			case <-d.ctx.Done():
				timer.Stop()
				d.log.Warnf("[dispatch] %s abandoned after %d attempts: %v", effect, attempt, lastErr)
				metrics.SideEffectFailures.WithLabelValues(effect).Inc()
				return
			}
		}

		ctx, cancel := context.WithTimeout(d.ctx, d.config.AttemptTimeout)
		lastErr = fn(ctx)
		cancel()
		if lastErr == nil {
			return
		}
		d.log.WithError(lastErr).Debugf("[dispatch] %s attempt %d failed", effect, attempt+1)
	}

	d.log.WithError(lastErr).Errorf("[dispatch] %s failed after %d attempts", effect, d.config.MaxAttempts)
	metrics.SideEffectFailures.WithLabelValues(effect).Inc()
}

// retryDelay uses exponential backoff
// delay = min(initialDelay * (multiplier ^ retryCount), maxDelay)
func (d *Dispatcher) retryDelay(retryCount int) time.Duration {
	delay := time.Duration(float64(d.config.InitialRetryDelay) * math.Pow(d.config.BackoffMultiplier, float64(retryCount)))
	if delay > d.config.MaxRetryDelay {
		delay = d.config.MaxRetryDelay
	}
	return delay
}

// Wait blocks until every scheduled effect has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close abandons pending retries and waits for running attempts to return
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
