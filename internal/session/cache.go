package session

import (
	"context"
	"errors"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

// CartCache persists cart snapshots keyed by session id so a browsing
// session survives a gateway restart.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache is used when no Redis is configured; carts then live only in
// process memory.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, *domain.Cart) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
