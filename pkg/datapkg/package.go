// Package datapkg implements the immutable per-request DataPackage artifact
// and the bounded per-tenant φ-8 history (TenantPackageStore).
//
// Grounded on the teacher's pkg/session/manager.go: a map protected by a
// sync.RWMutex, Clone()-on-read semantics, and a background TTL sweep
// modeled on pkg/cleanup/service.go's ticker loop.
package datapkg

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StageEntry is one recorded step of a DataPackage's lifecycle.
type StageEntry struct {
	StageID   StageID
	Timestamp time.Time
	Data      map[string]any
}

// DataPackage is a single request's immutable stage-artifact ledger. It is
// identified by a random 128-bit id and accumulates at most one StageEntry
// per StageID until finalize() is called, after which writes fail.
type DataPackage struct {
	mu sync.RWMutex

	id           string
	tenantID     string
	createdAt    time.Time
	finalizedAt  *time.Time
	currentStage StageID
	finalized    bool
	stages       map[StageID]StageEntry
}

// New creates a fresh, unfinalized DataPackage for the given tenant.
func New(tenantID string) *DataPackage {
	return &DataPackage{
		id:        uuid.NewString(),
		tenantID:  tenantID,
		createdAt: time.Now(),
		stages:    make(map[StageID]StageEntry),
	}
}

func (p *DataPackage) ID() string       { return p.id }
func (p *DataPackage) TenantID() string { return p.tenantID }

func (p *DataPackage) CreatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.createdAt
}

func (p *DataPackage) CurrentStage() StageID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentStage
}

func (p *DataPackage) Finalized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finalized
}

func (p *DataPackage) FinalizedAt() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.finalizedAt == nil {
		return nil
	}
	t := *p.finalizedAt
	return &t
}

// WriteStage stores a deep copy of data under stageID and advances
// currentStage. Overwriting an already-written stage is diagnosed (logged)
// but allowed pre-finalization; writing after finalize() fails.
func (p *DataPackage) WriteStage(stageID StageID, data map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finalized {
		return &FinalizedError{PackageID: p.id, Stage: stageID}
	}
	if _, exists := p.stages[stageID]; exists {
		slog.Warn("datapkg: overwriting stage",
			"package_id", p.id, "stage", string(stageID))
	}
	p.stages[stageID] = StageEntry{
		StageID:   stageID,
		Timestamp: time.Now(),
		Data:      deepCopyData(data),
	}
	p.currentStage = stageID
	return nil
}

// ReadStage returns a deep copy of the stage's data, or (nil, false) if the
// stage was never written. Reads are always permitted, even after finalize.
func (p *DataPackage) ReadStage(stageID StageID) (map[string]any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.stages[stageID]
	if !ok {
		return nil, false
	}
	return deepCopyData(entry.Data), true
}

// ReadStageTimestamp returns the write timestamp for a stage, if present.
func (p *DataPackage) ReadStageTimestamp(stageID StageID) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.stages[stageID]
	if !ok {
		return time.Time{}, false
	}
	return entry.Timestamp, true
}

// Finalize marks the package immutable. Idempotent.
func (p *DataPackage) Finalize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized {
		return
	}
	now := time.Now()
	p.finalized = true
	p.finalizedAt = &now
}

// Snapshot is a fully detached, serializable copy of a DataPackage's state,
// used for round-tripping through TenantPackageStore.
type Snapshot struct {
	ID           string
	TenantID     string
	CreatedAt    time.Time
	FinalizedAt  *time.Time
	CurrentStage StageID
	Finalized    bool
	Stages       map[StageID]StageEntry
}

// ToSnapshot captures the package's full state as an immutable value.
func (p *DataPackage) ToSnapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stages := make(map[StageID]StageEntry, len(p.stages))
	for id, entry := range p.stages {
		stages[id] = StageEntry{
			StageID:   entry.StageID,
			Timestamp: entry.Timestamp,
			Data:      deepCopyData(entry.Data),
		}
	}
	var finalizedAt *time.Time
	if p.finalizedAt != nil {
		t := *p.finalizedAt
		finalizedAt = &t
	}
	return Snapshot{
		ID:           p.id,
		TenantID:     p.tenantID,
		CreatedAt:    p.createdAt,
		FinalizedAt:  finalizedAt,
		CurrentStage: p.currentStage,
		Finalized:    p.finalized,
		Stages:       stages,
	}
}

// FromSnapshot restores a DataPackage from a previously captured Snapshot.
func FromSnapshot(s Snapshot) *DataPackage {
	stages := make(map[StageID]StageEntry, len(s.Stages))
	for id, entry := range s.Stages {
		stages[id] = StageEntry{
			StageID:   entry.StageID,
			Timestamp: entry.Timestamp,
			Data:      deepCopyData(entry.Data),
		}
	}
	var finalizedAt *time.Time
	if s.FinalizedAt != nil {
		t := *s.FinalizedAt
		finalizedAt = &t
	}
	return &DataPackage{
		id:           s.ID,
		tenantID:     s.TenantID,
		createdAt:    s.CreatedAt,
		finalizedAt:  finalizedAt,
		currentStage: s.CurrentStage,
		finalized:    s.Finalized,
		stages:       stages,
	}
}
