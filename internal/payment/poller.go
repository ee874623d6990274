package payment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// TransactionFetcher is the slice of the remote API the poller needs.
type TransactionFetcher interface {
	TransactionDetails(ctx context.Context, orderID string) (*domain.Transaction, error)
}

// StatusPoller mirrors the status of one order. It polls on a fixed interval
// with a bounded attempt budget and stops on a terminal status or when the
// budget runs out, retaining the last-known transaction either way.
type StatusPoller struct {
	api         TransactionFetcher
	orderID     string
	interval    time.Duration
	maxAttempts int
	log         *zap.Logger

	mu      sync.RWMutex
	last    *domain.Transaction
	lastErr error
	done    bool
}

func NewStatusPoller(api TransactionFetcher, orderID string, interval time.Duration, maxAttempts int, log *zap.Logger) *StatusPoller {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 24
	}
	return &StatusPoller{
		api:         api,
		orderID:     orderID,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Run polls until a terminal status, the attempt budget, or ctx
// cancellation. Blocking; run it on its own goroutine.
func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.finish()

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if p.fetch(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	p.log.Info("transaction polling budget exhausted", zap.String("order_id", p.orderID))
}

// fetch refreshes the mirror once and reports whether polling should stop.
func (p *StatusPoller) fetch(ctx context.Context) bool {
	tx, err := p.api.TransactionDetails(ctx, p.orderID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		// keep the last-known transaction, remember the failure
		p.lastErr = err
		p.log.Warn("transaction status fetch failed", zap.String("order_id", p.orderID), zap.Error(err))
		return ctx.Err() != nil
	}

	p.last = tx
	p.lastErr = nil
	if tx.Status.IsTerminal() {
		p.log.Info("transaction reached terminal status",
			zap.String("order_id", p.orderID),
			zap.String("status", tx.Status.String()))
		return true
	}
	return false
}

func (p *StatusPoller) finish() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
}

// Last returns the last-known transaction and fetch error.
func (p *StatusPoller) Last() (*domain.Transaction, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.lastErr
}

// Done reports whether polling has stopped.
func (p *StatusPoller) Done() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.done
}
