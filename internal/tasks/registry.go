// Package tasks holds the built-in tasks and a registry to look them up by
// name.
package tasks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
)

type Registry struct {
	mu    sync.RWMutex
	tasks map[string]core.Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: map[string]core.Task{}}
}

// Builtin returns a registry with the demo tasks.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("hello_world", HelloWorld)
	r.Register("greet_and_count", GreetAndCount(10, RandomFailure(5)))
	return r
}

func (r *Registry) Register(name string, t core.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = t
}

func (r *Registry) Get(name string) (core.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("task not registered: %s", name)
	}
	return t, nil
}

// Names lists registered tasks alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for n := range r.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
