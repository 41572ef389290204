package command

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/keshon/gdbot/pkg/tokenizer"
)

// Registry maps lower-cased aliases to commands. It is filled at startup
// and read concurrently by the router.
type Registry struct {
	mu      sync.RWMutex
	byAlias map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{byAlias: make(map[string]Command)}
}

// Register binds the command's name and aliases. A later registration of
// the same alias replaces the earlier one.
func (r *Registry) Register(cmds ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range cmds {
		r.byAlias[strings.ToLower(cmd.Name())] = cmd
		for _, a := range cmd.Aliases() {
			r.byAlias[strings.ToLower(a)] = cmd
		}
	}
}

// Get looks a command up by alias, case-insensitively.
func (r *Registry) Get(alias string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byAlias[strings.ToLower(alias)]
	return cmd, ok
}

// Resolve returns the command named by the first argument.
func (r *Registry) Resolve(args tokenizer.Args) (Command, bool) {
	first, ok := args.Get(0)
	if !ok || first == "" {
		return nil, false
	}
	return r.Get(first)
}

// All returns every reachable command once, ordered by category then name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	seen := make(map[string]bool, len(r.byAlias))
	list := make([]Command, 0, len(r.byAlias))
	for _, cmd := range r.byAlias {
		if seen[cmd.Name()] {
			continue
		}
		seen[cmd.Name()] = true
		list = append(list, cmd)
	}
	r.mu.RUnlock()

	slices.SortFunc(list, func(a, b Command) int {
		if c := cmp.Compare(a.Category(), b.Category()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name(), b.Name())
	})
	return list
}

// Len is the number of aliases registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAlias)
}
