package payment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// maxRetainedPollers bounds how many finished pollers keep their mirror
// around for status reads before the oldest finished ones are dropped.
const maxRetainedPollers = 64

// Tracker owns one StatusPoller per order created through checkout. Status
// reads are served from the mirror when a poller is running and fall back to
// a direct fetch otherwise. Finished pollers are retained for mirror reads
// up to a fixed cap, then pruned.
type Tracker struct {
	api         TransactionFetcher
	interval    time.Duration
	maxAttempts int
	log         *zap.Logger

	mu      sync.Mutex
	pollers map[string]*StatusPoller
	wg      sync.WaitGroup
}

func NewTracker(api TransactionFetcher, interval time.Duration, maxAttempts int, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		api:         api,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         log,
		pollers:     make(map[string]*StatusPoller),
	}
}

// Track starts background polling for the order. Tracking the same order
// twice reuses the running poller.
func (t *Tracker) Track(ctx context.Context, orderID string) *StatusPoller {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.pollers[orderID]; ok && !p.Done() {
		return p
	}

	p := NewStatusPoller(t.api, orderID, t.interval, t.maxAttempts, t.log)
	t.pollers[orderID] = p
	t.pruneLocked()
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		p.Run(ctx)
	}()
	return p
}

// Status returns the current view of the order. Tracked orders answer from
// the mirror once it holds a transaction; everything else hits the remote.
func (t *Tracker) Status(ctx context.Context, orderID string) (*domain.Transaction, error) {
	t.mu.Lock()
	p, ok := t.pollers[orderID]
	t.mu.Unlock()

	if ok {
		if tx, err := p.Last(); tx != nil {
			return tx, nil
		} else if err != nil && p.Done() {
			return nil, err
		}
	}
	return t.api.TransactionDetails(ctx, orderID)
}

// pruneLocked evicts finished pollers once the map exceeds the retention
// cap. Running pollers are never evicted.
func (t *Tracker) pruneLocked() {
	if len(t.pollers) <= maxRetainedPollers {
		return
	}
	for id, p := range t.pollers {
		if len(t.pollers) <= maxRetainedPollers {
			return
		}
		if p.Done() {
			delete(t.pollers, id)
		}
	}
}

// Wait blocks until every poller has stopped. Cancel their context first.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
