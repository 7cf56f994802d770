package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// SyncRunner is the subset of the sync service the scheduler drives.
type SyncRunner interface {
	SyncVendors(ctx context.Context) (*integration.SyncResult, error)
	SyncAccounts(ctx context.Context) (*integration.SyncResult, error)
	SyncProducts(ctx context.Context, kind accounting.ProductKind) (*integration.SyncResult, error)
	SyncInvoices(ctx context.Context, platform accounting.Platform) (*integration.SyncResult, error)
	SyncBills(ctx context.Context) (*integration.SyncResult, error)
}

// SyncScheduler runs the full reconciliation cycle on a fixed interval so the
// local mirror converges without an operator driving the sync endpoints.
// A cycle covers every entity kind; scopes that fail are logged and the cycle
// moves on, since each scope commits independently.
type SyncScheduler struct {
	runner    SyncRunner
	platforms []accounting.Platform
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a scheduler for the given platforms. timeout bounds
// one whole cycle.
func NewSyncScheduler(runner SyncRunner, platforms []accounting.Platform, interval, timeout time.Duration, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{
		runner:    runner,
		platforms: platforms,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start launches the background loop. The first cycle runs one interval after
// start, not immediately, so a restarting instance does not hammer the
// platforms it just synced.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sync scheduler started", zap.Duration("interval", s.interval))
}

// Stop terminates the loop and waits for an in-flight cycle to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Sync scheduler stopped")
}

func (s *SyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle runs one full reconciliation pass across all entity kinds.
func (s *SyncScheduler) runCycle(ctx context.Context) {
	cycleCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	s.logger.Info("Sync cycle started")

	s.runScope(cycleCtx, "vendors", func(c context.Context) (*integration.SyncResult, error) {
		return s.runner.SyncVendors(c)
	})
	s.runScope(cycleCtx, "accounts", func(c context.Context) (*integration.SyncResult, error) {
		return s.runner.SyncAccounts(c)
	})
	s.runScope(cycleCtx, "products", func(c context.Context) (*integration.SyncResult, error) {
		return s.runner.SyncProducts(c, "")
	})
	for _, platform := range s.platforms {
		p := platform
		s.runScope(cycleCtx, "invoices:"+p.String(), func(c context.Context) (*integration.SyncResult, error) {
			return s.runner.SyncInvoices(c, p)
		})
	}
	s.runScope(cycleCtx, "bills", func(c context.Context) (*integration.SyncResult, error) {
		return s.runner.SyncBills(c)
	})

	s.logger.Info("Sync cycle finished", zap.Duration("elapsed", time.Since(started)))
}

func (s *SyncScheduler) runScope(ctx context.Context, name string, run func(context.Context) (*integration.SyncResult, error)) {
	if ctx.Err() != nil {
		return
	}
	result, err := run(ctx)
	if err != nil {
		// A platform that was never connected is a normal steady state
		if errors.Is(err, credential.ErrAuthMissing) {
			s.logger.Debug("Scope skipped, platform not connected", zap.String("scope", name))
			return
		}
		s.logger.Error("Scope sync failed", zap.String("scope", name), zap.Error(err))
		return
	}
	s.logger.Info("Scope sync finished",
		zap.String("scope", name),
		zap.String("status", result.Status.String()),
		zap.Int("total", result.TotalCount),
		zap.Int("failed", result.FailedCount))
}
