package graph

import "classgraph/internal/symtab"

// Lookup resolves a base-class name as seen from a class declaration.
type Lookup interface {
	Lookup(from *ClassNode, name string) (symtab.Symbol, bool)
}

// ScopeLookup looks base names up in the scope enclosing the class.
type ScopeLookup struct{}

func (ScopeLookup) Lookup(from *ClassNode, name string) (symtab.Symbol, bool) {
	scope := from.Parent()
	if scope == nil {
		scope = from.Scope
	}
	return scope.Lookup(name)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(from *ClassNode, name string) (symtab.Symbol, bool)

func (f LookupFunc) Lookup(from *ClassNode, name string) (symtab.Symbol, bool) {
	return f(from, name)
}

// FixupBases resolves each base edge of c one level deep. A name that resolves
// to a class of the same graph becomes an edge and c is registered as derived
// on the target; anything else stays unresolved. Running it again is harmless.
// It returns the number of resolved edges.
func (c *ClassNode) FixupBases(l Lookup) int {
	if l == nil {
		l = ScopeLookup{}
	}
	resolved := 0
	for i := range c.bases {
		c.bases[i].Resolved = NoNode
		sym, ok := l.Lookup(c, c.bases[i].Name)
		if !ok {
			continue
		}
		target, ok := sym.(*ClassNode)
		if !ok || target.g != c.g {
			continue
		}
		c.bases[i].Resolved = target.id
		target.AddDerived(c)
		resolved++
	}
	c.phase = PhaseResolved
	return resolved
}
