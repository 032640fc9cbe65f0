package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/urisql/urisql/internal/lib"
	"github.com/urisql/urisql/internal/obslog"
	"github.com/urisql/urisql/internal/sqlerr"
)

// Registry holds the known adapter kinds, mirroring the teacher corpus's
// kind-keyed tool registry generalized with URI dispatch and a safe-mode
// filter for untrusted contexts.
type Registry struct {
	mu       sync.RWMutex
	factories map[string]Factory
	logger   obslog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards load
// warnings.
func NewRegistry(logger obslog.Logger) *Registry {
	if logger == nil {
		logger = obslog.Discard()
	}
	return &Registry{factories: map[string]Factory{}, logger: logger}
}

// Register associates kind with factory. It returns false without
// overwriting if kind is already registered, logging a warning -- adapter
// registration failures should never be fatal to the process that's
// wiring up a larger set of kinds.
func (r *Registry) Register(factory Factory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := factory.Kind()
	if _, exists := r.factories[kind]; exists {
		r.logger.WarnContext(context.Background(), "adapter kind already registered, skipping", "kind", kind)
		return false
	}
	r.factories[kind] = factory
	return true
}

// Lookup returns the factory registered for kind.
func (r *Registry) Lookup(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds returns every registered kind, sorted for deterministic iteration.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New constructs an Adapter of the given kind from parsed constructor
// arguments.
func (r *Registry) New(ctx context.Context, kind string, args []any, kwargs map[string]any) (Adapter, error) {
	factory, ok := r.Lookup(kind)
	if !ok {
		return nil, sqlerr.NewProgrammingError(fmt.Sprintf("unknown adapter kind: %q", kind), nil)
	}
	adapter, err := factory.New(ctx, args, kwargs)
	if err != nil {
		return nil, sqlerr.NewProgrammingError(fmt.Sprintf("unable to construct adapter of kind %q", kind), err)
	}
	return adapter, nil
}

// Find dispatches uri to the registered factory that claims it. When
// safeOnly is true, only factories with Safe()==true are considered, and a
// match against an unsafe-only factory (i.e. no safe factory claims the
// URI) returns UnsafeAdaptersError rather than silently loading it --
// multi-tenant callers that only trust in-process adapters opt into this.
func (r *Registry) Find(uri string, kwargs map[string]any, safeOnly bool) (Factory, []any, map[string]any, error) {
	r.mu.RLock()
	var probes []lib.AdapterProbe
	byProbe := map[lib.AdapterProbe]Factory{}
	var unsafeProbes []lib.AdapterProbe
	for _, kind := range r.sortedKinds() {
		f := r.factories[kind]
		if safeOnly && !f.Safe() {
			unsafeProbes = append(unsafeProbes, f)
			continue
		}
		probes = append(probes, f)
		byProbe[f] = f
	}
	r.mu.RUnlock()

	found, args, outKwargs, err := lib.FindAdapter(uri, kwargs, probes)
	if err == nil {
		return byProbe[found], args, outKwargs, nil
	}

	if safeOnly && len(unsafeProbes) > 0 {
		if _, _, _, unsafeErr := lib.FindAdapter(uri, kwargs, unsafeProbes); unsafeErr == nil {
			return nil, nil, nil, sqlerr.NewUnsafeAdaptersError(fmt.Sprintf("adapter for %q is not marked safe", uri))
		}
	}

	return nil, nil, nil, err
}

func (r *Registry) sortedKinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
