// Package cleanup provides the process-wide lifecycle manager that
// starts and stops every component owning its own TTL-sweep loop
// (datapkg, extraction, watchtower, swarm) from one call, per
// spec.md §9's "global registries... cleanup sweeps are timers that, if
// canceled, do not leak" design note.
//
// Grounded on the teacher's pkg/cleanup/service.go: the Start/Stop/
// cancel+done-channel shutdown handshake is kept, but the retention
// policy body (session soft-delete, orphaned-event GC against
// pkg/services) is replaced — this domain's bounded registries each
// already sweep themselves (see pkg/datapkg, pkg/extraction,
// pkg/watchtower, pkg/swarm's own Start/Stop), so the service left here
// is an aggregator over those, not a sweep implementation of its own.
// pkg/memory's session table expires entries itself and has no
// Start/Stop, so it is not one of these components.
package cleanup

import "context"

// Sweepable is any component with its own TTL-sweep lifecycle.
type Sweepable interface {
	Start(ctx context.Context)
	Stop()
}

// Service starts and stops a fixed set of Sweepable components together,
// so the rest of the application needn't remember each one individually.
type Service struct {
	components []Sweepable
}

// NewService registers the components whose sweep loops should run for
// the lifetime of the process.
func NewService(components ...Sweepable) *Service {
	return &Service{components: components}
}

// Start launches every registered component's sweep loop.
func (s *Service) Start(ctx context.Context) {
	for _, c := range s.components {
		c.Start(ctx)
	}
}

// Stop stops every registered component's sweep loop, in reverse
// registration order.
func (s *Service) Stop() {
	for i := len(s.components) - 1; i >= 0; i-- {
		s.components[i].Stop()
	}
}
