package export

import (
	"fmt"
	"sync"
)

// AssemblyGuard tracks the begin/append/finalize sequence shared by assemblers.
// After Spend the assembler accepts nothing further.
type AssemblyGuard struct {
	mu     sync.Mutex
	begun  bool
	spent  bool
	format Format
}

// NewAssemblyGuard creates a guard for an assembler of the given format.
func NewAssemblyGuard(format Format) *AssemblyGuard {
	return &AssemblyGuard{format: format}
}

// Begin marks the artifact as started.
func (g *AssemblyGuard) Begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.spent {
		return g.spentError()
	}
	if g.begun {
		return NewError(KindAssembly, fmt.Sprintf("%s artifact already begun", g.format), nil)
	}
	g.begun = true
	return nil
}

// CheckAppend verifies an append is allowed and matches the assembler mode.
func (g *AssemblyGuard) CheckAppend(mode Format) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.spent {
		return g.spentError()
	}
	if !g.begun {
		return NewError(KindAssembly, "append before begin", nil)
	}
	if mode != g.format {
		return NewError(KindAssembly, fmt.Sprintf("%s assembler cannot append %s units", g.format, mode), nil)
	}
	return nil
}

// Spend marks the assembler as finalized.
func (g *AssemblyGuard) Spend() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.spent {
		return g.spentError()
	}
	if !g.begun {
		return NewError(KindAssembly, "finalize before begin", nil)
	}
	g.spent = true
	return nil
}

func (g *AssemblyGuard) spentError() error {
	return NewError(KindAssembly, fmt.Sprintf("%s assembler already finalized", g.format), nil)
}

// AssemblerRegistry maps formats to assembler factories.
type AssemblerRegistry struct {
	mu        sync.RWMutex
	factories map[Format]AssemblerFactory
}

// NewAssemblerRegistry creates an empty registry.
func NewAssemblerRegistry() *AssemblerRegistry {
	return &AssemblerRegistry{factories: make(map[Format]AssemblerFactory)}
}

// Register stores a factory for a format.
func (r *AssemblerRegistry) Register(format Format, factory AssemblerFactory) error {
	if r == nil {
		return NewError(KindInternal, "assembler registry is nil", nil)
	}
	if factory == nil {
		return NewError(KindValidation, "assembler factory is required", nil)
	}
	format = NormalizeFormat(format)
	if err := ValidateFormat(format); err != nil {
		return err
	}
	r.mu.Lock()
	r.factories[format] = factory
	r.mu.Unlock()
	return nil
}

// Resolve returns the factory for a format.
func (r *AssemblerRegistry) Resolve(format Format) (AssemblerFactory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[format]
	return factory, ok
}
