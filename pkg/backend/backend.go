// Package backend provides consumers of a compiled program.
// Every backend reads the flat instruction sequence in order and looks up
// the resolved type of each instruction; none of them executes code.
package backend

import (
	"fmt"
	"io"
	"sort"

	"github.com/zurustar/mya/pkg/ir"
)

// Backend is the interface for program consumers
type Backend interface {
	// Emit writes a rendering of the program. name identifies the program
	// in headers, usually its file name.
	Emit(p *ir.Program, name string, w io.Writer) error

	// Name returns the backend name used on the command line
	Name() string
}

var registry = map[string]Backend{}

// Register adds a backend under its name. Registering a name twice panics.
func Register(b Backend) {
	if _, dup := registry[b.Name()]; dup {
		panic(fmt.Sprintf("backend %s registered twice", b.Name()))
	}
	registry[b.Name()] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, Names())
	}
	return b, nil
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Listing{})
	Register(Tree{})
	Register(Entries{})
	Register(Signatures{})
}
