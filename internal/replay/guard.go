package replay

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cybergodev/idtoken/internal/logging"
)

// Guard accepts each token ID once until the token expires.
type Guard struct {
	store  Store
	config Config
	logger *zap.Logger
	mu     sync.RWMutex

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	cleanupWg     sync.WaitGroup

	closed bool
}

// NewGuard creates a Guard over store. A nil logger discards output.
func NewGuard(store Store, config Config, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Guard{
		store:       store,
		config:      config,
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	if config.EnableAutoCleanup && config.CleanupInterval > 0 {
		g.startAutoCleanup()
	}

	return g
}

// Check records id and returns ErrReplayed if it was already recorded.
func (g *Guard) Check(id string, expiresAt time.Time) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return ErrClosed
	}
	if id == "" {
		return ErrEmptyID
	}

	first, err := g.store.Claim(id, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to record token ID: %w", err)
	}
	if !first {
		return ErrReplayed
	}
	return nil
}

// Seen reports whether id is recorded and unexpired.
func (g *Guard) Seen(id string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return false, ErrClosed
	}
	if id == "" {
		return false, nil
	}
	return g.store.Contains(id)
}

// Close stops the cleanup goroutine and closes the store.
func (g *Guard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true

	if g.cleanupTicker != nil {
		g.cleanupTicker.Stop()
		close(g.stopCleanup)
		g.cleanupWg.Wait()
	}

	return g.store.Close()
}

func (g *Guard) startAutoCleanup() {
	g.cleanupTicker = time.NewTicker(g.config.CleanupInterval)
	g.cleanupWg.Add(1)

	go func() {
		defer g.cleanupWg.Done()

		for {
			select {
			case <-g.cleanupTicker.C:
				g.performCleanup()
			case <-g.stopCleanup:
				return
			}
		}
	}()
}

func (g *Guard) performCleanup() {
	removed, err := g.store.Cleanup()
	if err != nil {
		g.logger.Warn("replay cache cleanup failed", zap.NamedError(logging.FieldError, err))
		return
	}
	if removed > 0 {
		g.logger.Debug("replay cache cleaned", zap.Int("removed", removed))
	}
}
