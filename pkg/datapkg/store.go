package datapkg

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WindowSize is the φ-8 bound: the number of most recent finalized
// DataPackages retained per tenant.
const WindowSize = 8

// InactivityTTL evicts an entire tenant entry after this long without a
// store or read touching it.
const InactivityTTL = 1 * time.Hour

// sweepInterval is how often the background reaper scans for stale tenants.
const sweepInterval = 5 * time.Minute

// tenantHistory is the per-tenant bounded FIFO of package snapshots.
type tenantHistory struct {
	packages     []Snapshot // oldest first; len() <= WindowSize
	createdAt    time.Time
	lastActivity time.Time
}

// CompressedSummary is the compact cross-reference TenantPackageStore hands
// back to the Memory Manager and the Preflight Router for recall.
type CompressedSummary struct {
	ShortID      string
	CurrentStage StageID
	TsTime       time.Time
	Ticker       *string
	Mode         *string
	AuditPass    *bool
}

// TenantPackageStore holds, for every tenant, the most recent WindowSize
// finalized DataPackages. Grounded on the teacher's pkg/session/manager.go
// (map + sync.RWMutex + Clone-on-read) generalized to a bounded FIFO window
// and a per-tenant inactivity TTL sweep modeled on pkg/cleanup/service.go.
type TenantPackageStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenantHistory

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTenantPackageStore constructs an empty store.
func NewTenantPackageStore() *TenantPackageStore {
	return &TenantPackageStore{
		tenants: make(map[string]*tenantHistory),
	}
}

// StorePackage finalizes-by-snapshot and appends pkg to tenantID's history,
// evicting the oldest entries while len>WindowSize.
func (s *TenantPackageStore) StorePackage(tenantID string, pkg *DataPackage) {
	snap := pkg.ToSnapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	hist, ok := s.tenants[tenantID]
	if !ok {
		hist = &tenantHistory{createdAt: time.Now()}
		s.tenants[tenantID] = hist
	}
	hist.packages = append(hist.packages, snap)
	if overflow := len(hist.packages) - WindowSize; overflow > 0 {
		hist.packages = hist.packages[overflow:]
	}
	hist.lastActivity = time.Now()
}

// GetRecentPackages returns the newest n (n<=WindowSize) packages for
// tenantID, in insertion order, restored as fresh DataPackage instances.
// It never reorders the backing slice — TenantPackageStore is FIFO-only,
// never LRU-on-read (spec.md Open Question #1).
func (s *TenantPackageStore) GetRecentPackages(tenantID string, n int) []*DataPackage {
	if n > WindowSize {
		n = WindowSize
	}
	s.mu.Lock()
	hist, ok := s.tenants[tenantID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	hist.lastActivity = time.Now()
	total := len(hist.packages)
	start := total - n
	if start < 0 {
		start = 0
	}
	slice := make([]Snapshot, total-start)
	copy(slice, hist.packages[start:])
	s.mu.Unlock()

	out := make([]*DataPackage, len(slice))
	for i, snap := range slice {
		out[i] = FromSnapshot(snap)
	}
	return out
}

// CompressedSummaryOf derives the compact recall record for a package, per
// spec.md §3's { shortId, currentStage, tsTime, ticker?, mode?, auditPass? }.
func CompressedSummaryOf(pkg *DataPackage) CompressedSummary {
	ts, _ := pkg.ReadStageTimestamp(pkg.CurrentStage())
	sum := CompressedSummary{
		ShortID:      shortID(pkg.ID()),
		CurrentStage: pkg.CurrentStage(),
		TsTime:       ts,
	}
	if s0, ok := pkg.ReadStage(StageS0); ok {
		if mode, ok := s0["mode"].(string); ok {
			sum.Mode = &mode
		}
		if ticker, ok := s0["ticker"].(string); ok && ticker != "" {
			sum.Ticker = &ticker
		}
	}
	if s3, ok := pkg.ReadStage(StageS3); ok {
		if verdict, ok := s3["verdict"].(string); ok {
			pass := isApprovedLike(verdict)
			sum.AuditPass = &pass
		}
	}
	return sum
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// isApprovedLike treats APPROVED, ACCEPTED, and BYPASS as synonymous
// "passed audit" verdicts (spec.md Open Question #2: APPROVED/ACCEPTED are
// explicit synonyms; BYPASS is the fast-path/identity/direct-output verdict
// and is equally a pass for summary purposes).
func isApprovedLike(verdict string) bool {
	switch verdict {
	case "APPROVED", "ACCEPTED", "BYPASS":
		return true
	default:
		return false
	}
}

// NukeTenant removes all history for tenantID immediately.
func (s *TenantPackageStore) NukeTenant(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tenants, tenantID)
}

// Len reports how many packages are currently retained for tenantID.
func (s *TenantPackageStore) Len(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hist, ok := s.tenants[tenantID]
	if !ok {
		return 0
	}
	return len(hist.packages)
}

// Start launches the background inactivity sweep. Grounded on
// pkg/cleanup/service.go's Start/run/Stop shutdown handshake.
func (s *TenantPackageStore) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	slog.Info("tenant package store sweep started", "ttl", InactivityTTL, "interval", sweepInterval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *TenantPackageStore) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("tenant package store sweep stopped")
}

func (s *TenantPackageStore) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *TenantPackageStore) sweep() {
	cutoff := time.Now().Add(-InactivityTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for tenantID, hist := range s.tenants {
		if hist.lastActivity.Before(cutoff) {
			delete(s.tenants, tenantID)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("tenant package store: evicted inactive tenants", "count", evicted)
	}
}
