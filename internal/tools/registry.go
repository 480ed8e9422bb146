package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

// ErrDuplicateTool is returned when a tool name is already registered.
type ErrDuplicateTool struct {
	Name string
}

func (e *ErrDuplicateTool) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// Registry holds tools by unique name. It is populated at startup (built-ins
// first, then discovered MCP tools) and read-only once the agent loop starts.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string // registration order for stable enumeration
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool; a name collision is a registration error.
func (r *Registry) Register(t *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Def.Name]; exists {
		return &ErrDuplicateTool{Name: t.Def.Name}
	}
	r.tools[t.Def.Name] = t
	r.order = append(r.order, t.Def.Name)
	return nil
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the tool or nil.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All enumerates tools in registration order.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderDefs converts every registered tool into the external schema form.
func (r *Registry) ProviderDefs() []providers.ToolDefinition {
	all := r.All()
	defs := make([]providers.ToolDefinition, 0, len(all))
	for _, t := range all {
		defs = append(defs, ToProviderDef(t.Def))
	}
	return defs
}
