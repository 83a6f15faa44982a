package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrInvalidName is returned for an empty command name.
	ErrInvalidName = errors.New("command name is empty")
)

// Registry stores commands by name. Grouped commands may register a handler per
// sub-command under a path key ("notes list"); Resolve prefers the longest match.
// The registry is filled once at startup and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Key joins a command name and sub-command path into a registry key.
func Key(name string, path ...string) string {
	parts := append([]string{name}, path...)
	return strings.Join(parts, " ")
}

// Register adds c under c.Name().
func (r *Registry) Register(c Command) error {
	return r.RegisterAs(c.Name(), c)
}

// RegisterAs adds c under an explicit key, typically built with Key.
func (r *Registry) RegisterAs(key string, c Command) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	r.commands[key] = c
	return nil
}

// Get returns the command registered under key, or nil.
func (r *Registry) Get(key string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[key]
}

// Resolve finds the command for name and the selected sub-command path. The
// longest registered prefix wins; the unconsumed part of path is returned as args.
// A nil command means nothing matched.
func (r *Registry) Resolve(name string, path ...string) (Command, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for n := len(path); n >= 0; n-- {
		if c, ok := r.commands[Key(name, path[:n]...)]; ok {
			if n == len(path) {
				return c, nil
			}
			return c, path[n:]
		}
	}
	return nil, nil
}

// GetAll returns all registered commands, sorted by key.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.commands))
	for k := range r.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]Command, 0, len(keys))
	for _, k := range keys {
		list = append(list, r.commands[k])
	}
	return list
}

// Names returns every registered key, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.commands))
	for k := range r.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
