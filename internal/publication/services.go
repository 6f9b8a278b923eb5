package publication

import (
	"fmt"
	"log/slog"
	"slices"
)

// Capability identifies an optional publication service contract.
type Capability string

const (
	// CapabilityCover is implemented by CoverService.
	CapabilityCover Capability = "cover"
)

// Service is an optional capability attached to a publication. Services that
// hold resources may implement io.Closer; they are closed with the publication.
type Service interface{}

// ServiceContext is the read-only view of the owning publication handed to
// service factories.
type ServiceContext struct {
	Manifest Manifest
	Fetcher  Fetcher
	Images   ImageProvider
	Logger   *slog.Logger
}

// ServiceFactory builds the service for one publication. Returning (nil, nil)
// declines activation, for example when the publication lacks the data the
// service needs.
type ServiceFactory func(ctx ServiceContext) (Service, error)

type serviceEntry struct {
	capability Capability
	factory    ServiceFactory
}

// ServicesBuilder collects service factories while a publication is being
// assembled. It is frozen by Builder.Build and must not be mutated afterwards.
type ServicesBuilder struct {
	entries []serviceEntry
	frozen  bool
}

// NewServicesBuilder returns an empty, mutable services builder.
func NewServicesBuilder() *ServicesBuilder {
	return &ServicesBuilder{}
}

// Set registers factory for capability, replacing any previous factory. A nil
// factory removes the registration.
func (b *ServicesBuilder) Set(capability Capability, factory ServiceFactory) {
	b.mustBeMutable("set", capability)

	if factory == nil {
		b.remove(capability)
		return
	}
	for i := range b.entries {
		if b.entries[i].capability == capability {
			b.entries[i].factory = factory
			return
		}
	}
	b.entries = append(b.entries, serviceEntry{capability: capability, factory: factory})
}

// Remove drops the factory registered for capability, if any.
func (b *ServicesBuilder) Remove(capability Capability) {
	b.mustBeMutable("remove", capability)
	b.remove(capability)
}

func (b *ServicesBuilder) remove(capability Capability) {
	b.entries = slices.DeleteFunc(b.entries, func(e serviceEntry) bool {
		return e.capability == capability
	})
}

// Factory returns the factory registered for capability.
func (b *ServicesBuilder) Factory(capability Capability) (ServiceFactory, bool) {
	for _, e := range b.entries {
		if e.capability == capability {
			return e.factory, true
		}
	}
	return nil, false
}

// Capabilities lists the registered capabilities in registration order.
func (b *ServicesBuilder) Capabilities() []Capability {
	out := make([]Capability, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.capability
	}
	return out
}

// Freeze makes the builder read-only. Any later Set or Remove panics.
func (b *ServicesBuilder) Freeze() {
	b.frozen = true
}

// Frozen reports whether Freeze was called.
func (b *ServicesBuilder) Frozen() bool {
	return b.frozen
}

// Clone returns a mutable copy of the registrations, even when b is frozen.
func (b *ServicesBuilder) Clone() *ServicesBuilder {
	return &ServicesBuilder{entries: slices.Clone(b.entries)}
}

func (b *ServicesBuilder) mustBeMutable(op string, capability Capability) {
	if b.frozen {
		panic(fmt.Errorf("%s %q: %w", op, capability, ErrServicesFrozen))
	}
}

func (b *ServicesBuilder) factories() map[Capability]ServiceFactory {
	out := make(map[Capability]ServiceFactory, len(b.entries))
	for _, e := range b.entries {
		out[e.capability] = e.factory
	}
	return out
}
