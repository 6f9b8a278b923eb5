package publication

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type serviceSlot struct {
	once    sync.Once
	service Service
}

// serviceResolver lazily constructs services and caches the outcome, positive
// or negative, for the lifetime of the publication.
type serviceResolver struct {
	factories map[Capability]ServiceFactory
	context   ServiceContext
	logger    *slog.Logger

	mu    sync.Mutex
	slots map[Capability]*serviceSlot
}

func newServiceResolver(factories map[Capability]ServiceFactory, ctx ServiceContext, logger *slog.Logger) *serviceResolver {
	return &serviceResolver{
		factories: factories,
		context:   ctx,
		logger:    logger,
		slots:     make(map[Capability]*serviceSlot),
	}
}

// resolve returns the service for capability, constructing it at most once.
// The resolver lock only guards slot lookup; construction runs outside it.
func (r *serviceResolver) resolve(capability Capability) (Service, bool) {
	r.mu.Lock()
	slot, ok := r.slots[capability]
	if !ok {
		slot = &serviceSlot{}
		r.slots[capability] = slot
	}
	r.mu.Unlock()

	slot.once.Do(func() {
		slot.service = r.construct(capability)
	})
	return slot.service, slot.service != nil
}

func (r *serviceResolver) construct(capability Capability) (service Service) {
	factory, ok := r.factories[capability]
	if !ok {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("service factory panicked",
				"capability", string(capability),
				"error", fmt.Sprint(rec))
			service = nil
		}
	}()

	svc, err := factory(r.context)
	if err != nil {
		r.logger.Warn("service factory failed",
			"capability", string(capability),
			"error", err)
		return nil
	}
	if svc == nil {
		r.logger.Debug("service declined", "capability", string(capability))
		return nil
	}
	return svc
}

// close closes every constructed service implementing io.Closer.
func (r *serviceResolver) close() error {
	r.mu.Lock()
	slots := make([]*serviceSlot, 0, len(r.slots))
	for _, slot := range r.slots {
		slots = append(slots, slot)
	}
	r.mu.Unlock()

	var firstErr error
	for _, slot := range slots {
		// Resolving a pending slot here waits for its construction to finish.
		slot.once.Do(func() {})
		closer, ok := slot.service.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
