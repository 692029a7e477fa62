// Package backend implements the target languages Forge Code compiles to.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
)

var registry = map[domain.Target]func() ports.Backend{
	domain.TargetRust: func() ports.Backend { return NewRust() },
	domain.TargetGo:   func() ports.Backend { return NewGo() },
}

// Lookup returns the backend for a target name.
func Lookup(name string) (ports.Backend, error) {
	factory, ok := registry[domain.Target(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names lists the registered targets in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for t := range registry {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}
