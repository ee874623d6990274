package sensor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// TopicUpdate is published whenever a fresh reading arrives.
const TopicUpdate = "sensor:update"

// Fetcher is the slice of the remote API the poller needs.
type Fetcher interface {
	LatestSensorReading(ctx context.Context) (*domain.SensorReading, error)
}

// Notifier publishes sensor updates for interested views.
type Notifier interface {
	Publish(topic string, args ...interface{})
}

// Poller keeps the latest vending machine reading fresh. It polls
// indefinitely on a fixed interval and is torn down by cancelling its
// context; the last-known reading and fetch error stay readable afterwards.
type Poller struct {
	api      Fetcher
	interval time.Duration
	notifier Notifier
	log      *zap.Logger

	mu      sync.RWMutex
	last    *domain.SensorReading
	lastErr error
	fetched time.Time
}

func NewPoller(api Fetcher, interval time.Duration, notifier Notifier, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{api: api, interval: interval, notifier: notifier, log: log}
}

// Run fetches immediately and then on every tick until ctx is cancelled.
// Blocking; run it on its own goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.fetch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx)
		}
	}
}

func (p *Poller) fetch(ctx context.Context) {
	reading, err := p.api.LatestSensorReading(ctx)

	p.mu.Lock()
	p.fetched = time.Now()
	if err != nil {
		p.lastErr = err
		p.mu.Unlock()
		if ctx.Err() == nil {
			p.log.Warn("sensor fetch failed", zap.Error(err))
		}
		return
	}
	p.last = reading
	p.lastErr = nil
	p.mu.Unlock()

	if p.notifier != nil {
		p.notifier.Publish(TopicUpdate, *reading)
	}
}

// Latest returns the last-known reading, when the last fetch happened and
// the last fetch error. The reading may be non-nil alongside an error when
// an earlier fetch succeeded.
func (p *Poller) Latest() (*domain.SensorReading, time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.fetched, p.lastErr
}
