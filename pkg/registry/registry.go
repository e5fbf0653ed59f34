// Package registry holds the table of named command handlers the dispatcher
// consults for every non-control frame it receives.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/blogic/udrone/pkg/wire"
)

// Atomicity describes whether a handler may run inline on the event loop or
// must be isolated in its own worker.
type Atomicity int

const (
	// Atomic handlers run synchronously on the event loop and must return
	// promptly; they block every other frame while running.
	Atomic Atomicity = iota
	// NonAtomic handlers run in a dedicated worker goroutine, isolated from
	// the event loop, with an interim "accept" ack sent immediately.
	NonAtomic
)

// HandlerFunc implements one named command. ctx carries cancellation for
// non-atomic handlers; args is the request's data table; out is the
// accumulator the handler populates for a data reply. The return value
// follows the protocol's handler convention: negative is -errno, zero is a
// bare status success, and wire.DataReply signals that out should be sent
// back as the reply payload.
type HandlerFunc func(ctx context.Context, args *wire.Table, out *wire.Table) int

// Descriptor is one registered command.
type Descriptor struct {
	Type      string
	Atomicity Atomicity
	Handler   HandlerFunc
}

// Registry is the dispatcher's lookup table of named commands. Control
// primitives (the "!"-prefixed types) are never registered here — they are
// handled directly by the dispatcher's control path.
type Registry struct {
	byType map[string]Descriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byType: map[string]Descriptor{}}
}

// Register adds a command, rejecting any "!"-prefixed type since those names
// are reserved for the control-plane primitives (!whois, !assign, !reset).
func (r *Registry) Register(d Descriptor) error {
	if strings.HasPrefix(d.Type, "!") {
		return fmt.Errorf("registry: %q is a reserved control primitive, cannot be registered as a command", d.Type)
	}
	if d.Handler == nil {
		return fmt.Errorf("registry: %q has a nil handler", d.Type)
	}
	if _, exists := r.byType[d.Type]; exists {
		return fmt.Errorf("registry: %q is already registered", d.Type)
	}
	r.byType[d.Type] = d
	return nil
}

// Lookup returns the descriptor for typ, if any.
func (r *Registry) Lookup(typ string) (Descriptor, bool) {
	d, ok := r.byType[typ]
	return d, ok
}
