package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the templates by ID.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Get returns the process-wide registry, seeded with the built-ins.
func Get() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// NewRegistry returns a registry holding only the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: map[string]*Template{}}
	for _, t := range builtins() {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register compiles t and stores it. A template with a known ID is laid
// over the existing one, so an override file may set only the fields it
// changes. The registry is left untouched when compilation fails.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("PROMPT_ID_MISSING: template %q has no id", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var merged *Template
	if base, ok := r.templates[t.ID]; ok {
		merged = overlay(base, t)
	} else {
		cp := *t
		merged = &cp
	}
	if err := merged.compile(); err != nil {
		return err
	}
	r.templates[t.ID] = merged
	return nil
}

// Lookup returns the template registered under id.
func (r *Registry) Lookup(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.templates[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("PROMPT_NOT_FOUND: %s", id)
}

// System returns only the system instructions of id.
func (r *Registry) System(id string) (string, error) {
	t, err := r.Lookup(id)
	if err != nil {
		return "", err
	}
	return t.System, nil
}

// IDs lists the registered IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}
