// Package results implements the shared key-value store for completed query
// result sets.
package results

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sqldesk/internal/domain"
)

// entry holds one stored result set. After expiry the payload is dropped but
// the entry is kept as a tombstone so later reads can distinguish "expired"
// from "never existed".
type entry struct {
	result    *domain.StoredResult
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryBackend is an in-process results backend. Keys are write-once: the
// first Put wins and any later Put for the same key is a conflict. Reads of
// a written key are safe from any number of goroutines.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]*entry
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.ResultsBackend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a MemoryBackend.
func NewMemoryBackend(logger *slog.Logger) *MemoryBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBackend{
		entries: make(map[string]*entry),
		logger:  logger,
		now:     time.Now,
	}
}

// StartSweeper schedules a periodic job that drops expired payloads,
// keeping only tombstones. Call Stop at shutdown.
func (b *MemoryBackend) StartSweeper(spec string) error {
	b.cron = cron.New()
	if _, err := b.cron.AddFunc(spec, b.sweep); err != nil {
		return err
	}
	b.cron.Start()
	return nil
}

// Stop halts the sweeper if it was started.
func (b *MemoryBackend) Stop() {
	if b.cron != nil {
		b.cron.Stop()
	}
}

// Put stores a result set under key for ttl. A second Put for the same key
// returns a ConflictError; stored results are immutable.
func (b *MemoryBackend) Put(ctx context.Context, key string, result *domain.StoredResult, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return backendCtxError(err)
	}
	if key == "" {
		return domain.ErrValidation("results key is required")
	}
	if result == nil {
		return domain.ErrValidation("result is required")
	}
	if ttl <= 0 {
		return domain.ErrValidation("ttl must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[key]; exists {
		return domain.ErrConflict("results key %q is already written", key)
	}
	b.entries[key] = &entry{result: result, expiresAt: b.now().Add(ttl)}
	return nil
}

// Get returns the stored result for key. Unknown keys yield a NotFoundError;
// expired or swept keys a GoneError.
func (b *MemoryBackend) Get(ctx context.Context, key string) (*domain.StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, backendCtxError(err)
	}

	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, domain.ErrNotFound("results key %q not found", key)
	}
	if e.expired(b.now()) || e.result == nil {
		return nil, domain.ErrGone("results for key %q have expired", key)
	}
	return e.result, nil
}

// sweep drops payloads of expired entries, leaving tombstones behind.
func (b *MemoryBackend) sweep() {
	now := b.now()
	swept := 0

	b.mu.Lock()
	for _, e := range b.entries {
		if e.result != nil && e.expired(now) {
			e.result = nil
			swept++
		}
	}
	b.mu.Unlock()

	if swept > 0 {
		b.logger.Info("swept expired result sets", "count", swept)
	}
}

func backendCtxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrResultsBackendTimeout("results backend access timed out")
	}
	return domain.ErrResultsBackend("results backend access canceled: %v", err)
}
