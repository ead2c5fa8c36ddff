package core

import (
	"errors"
	"sync"
)

// ErrNoCompiler is returned by Model.Filter when no Compiler was set on the
// model and none was registered with UseCompiler.
var ErrNoCompiler = errors.New("golem: no filter compiler registered")

// Compiler turns a filter struct into a condition against a From and maps
// a sort request onto the relation paths the filter declares.
//
// The filter package registers its default builder on import.
type Compiler interface {
	Compile(spec any, from From) (*Condition, error)
	Rewrite(sort []Sort, spec any) []Sort
}

var (
	compilerMutex   sync.RWMutex
	defaultCompiler Compiler
)

// UseCompiler sets the Compiler used by models that have none of their own.
func UseCompiler(c Compiler) {
	compilerMutex.Lock()
	defer compilerMutex.Unlock()
	defaultCompiler = c
}

func registeredCompiler() Compiler {
	compilerMutex.RLock()
	defer compilerMutex.RUnlock()
	return defaultCompiler
}
