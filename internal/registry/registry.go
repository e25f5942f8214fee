package registry

import (
	"errors"
	"sync"
)

var (
	// ErrDuplicateTool is returned by Reserve/Register when name already exists
	// (or is already reserved by a concurrent, not-yet-finalized add).
	ErrDuplicateTool = errors.New("registry: tool already exists")
	// ErrUnknownTool is returned by Get/Unregister for a name the registry
	// does not hold, and by Finalize for a name that is not reserved.
	ErrUnknownTool = errors.New("registry: unknown tool")
)

// Registry is the in-memory table of registered tools. It is guarded by a
// single sync.RWMutex: list/get run concurrently, register/unregister are
// exclusive. The lock is not reader-preferring: a writer waiting for the lock
// blocks new readers until it has run. A reservation placeholder closes the
// concurrent-duplicate-add race (spec.md §9, P5) without any lock outside the
// registry itself.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	// reserved holds names claimed by Reserve but not yet Finalized or
	// Released; a name here behaves like a registered tool for the purposes
	// of rejecting a second concurrent add.
	reserved map[string]struct{}
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		tools:    make(map[string]*Tool),
		reserved: make(map[string]struct{}),
	}
}

// Reserve atomically claims name for registration. It fails with
// ErrDuplicateTool if the name is already registered or already reserved by a
// concurrent in-flight add. The caller MUST follow with exactly one of
// Finalize or Release for the same name.
func (r *Registry) Reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return ErrDuplicateTool
	}
	if _, exists := r.reserved[name]; exists {
		return ErrDuplicateTool
	}
	r.reserved[name] = struct{}{}
	return nil
}

// Finalize completes a reservation by installing tool under name. The caller
// is expected to have already persisted the tool to the catalog (spec.md §9:
// catalog write happens before registry finalize).
func (r *Registry) Finalize(name string, tool *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reserved[name]; !ok {
		return ErrUnknownTool
	}
	delete(r.reserved, name)
	r.tools[name] = tool
	return nil
}

// Release abandons a reservation without installing a tool, e.g. because
// parsing or catalog persistence failed after Reserve succeeded.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, name)
}

// Register is a convenience wrapper around Reserve+Finalize for callers (and
// tests, and boot-time catalog replay) that don't need the two-phase
// protocol's window, e.g. because duplicate detection already happened
// upstream.
func (r *Registry) Register(tool *Tool) error {
	if err := r.Reserve(tool.Name); err != nil {
		return err
	}
	return r.Finalize(tool.Name, tool)
}

// Unregister removes name from the registry. Returns ErrUnknownTool if name
// is not registered.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return ErrUnknownTool
	}
	delete(r.tools, name)
	return nil
}

// Get returns a snapshot copy of the registered tool named name, or
// ErrUnknownTool. Callers execute against the returned copy lock-free, per
// spec.md §5 ("a call_tool takes a reader lock only long enough to snapshot").
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, ErrUnknownTool
	}
	cp := *tool
	return &cp, nil
}

// List returns a snapshot of every currently registered tool, in no
// particular order; callers needing a stable order sort by Name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		cp := *tool
		out = append(out, &cp)
	}
	return out
}
