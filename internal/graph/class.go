package graph

import (
	"errors"
	"sort"

	"classgraph/internal/symtab"
)

// ErrResolved is returned when a node is mutated after the resolver pass.
var ErrResolved = errors.New("graph: class node already resolved")

// NodeID is a stable handle into the Graph arena.
type NodeID int

// NoNode marks an unresolved base edge.
const NoNode NodeID = -1

// Phase is the two-state lifecycle of a node and of the graph.
type Phase int

const (
	PhaseUnresolved Phase = iota
	PhaseResolved
)

func (p Phase) String() string {
	if p == PhaseResolved {
		return "resolved"
	}
	return "unresolved"
}

// BaseEdge is one base-class specifier.
type BaseEdge struct {
	Access   symtab.Access
	Virtual  bool
	Name     string // as written in source
	Resolved NodeID // NoNode until the resolver finds a class
}

func (e BaseEdge) IsResolved() bool { return e.Resolved != NoNode }

// ClassNode is a struct or class declaration. It owns its member functions
// through the embedded Scope; base and derived links are handles into the
// owning Graph.
type ClassNode struct {
	*symtab.Scope

	id      NodeID
	g       *Graph
	decl    string
	isClass bool
	flags   Flags
	phase   Phase

	bases      []BaseEdge
	derived    []NodeID
	derivedSet map[NodeID]struct{}
}

func (c *ClassNode) ID() NodeID { return c.id }

func (c *ClassNode) Kind() symtab.Kind {
	if c.isClass {
		return symtab.KindClass
	}
	return symtab.KindStruct
}

// Declaration returns the declaration text captured at ingestion.
func (c *ClassNode) Declaration() string { return c.decl }

func (c *ClassNode) String() string {
	if c.decl != "" {
		return c.decl
	}
	return string(c.Kind()) + " " + c.FullName()
}

func (c *ClassNode) IsClass() bool { return c.isClass }

func (c *ClassNode) Flags() Flags { return c.flags }

func (c *ClassNode) IsInline() bool { return c.flags.Has(FlagInline) }

func (c *ClassNode) MakeInline() { c.flags.set(FlagInline) }

func (c *ClassNode) MarkTemplate() { c.flags.set(FlagTemplate) }

func (c *ClassNode) MarkTemplateSpecialization() { c.flags.set(FlagTemplateSpecialization) }

func (c *ClassNode) Phase() Phase { return c.phase }

// IsDerived reports whether any base was declared, resolved or not.
func (c *ClassNode) IsDerived() bool { return len(c.bases) > 0 }

// AddBase appends a base specifier. Names are not validated and duplicates are kept.
func (c *ClassNode) AddBase(name string, access symtab.Access, virtual bool) error {
	if c.phase == PhaseResolved {
		return ErrResolved
	}
	c.bases = append(c.bases, BaseEdge{
		Access:   access,
		Virtual:  virtual,
		Name:     name,
		Resolved: NoNode,
	})
	return nil
}

// AddDerived records node as directly derived from c. Adding the same node
// again is a no-op.
func (c *ClassNode) AddDerived(node *ClassNode) {
	if node == nil {
		return
	}
	if _, ok := c.derivedSet[node.id]; ok {
		return
	}
	c.derivedSet[node.id] = struct{}{}
	c.derived = append(c.derived, node.id)
}

// BaseEdges returns the base specifiers in declaration order.
func (c *ClassNode) BaseEdges() []BaseEdge {
	out := make([]BaseEdge, len(c.bases))
	copy(out, c.bases)
	return out
}

// Bases returns the distinct base names declared directly on c, sorted.
func (c *ClassNode) Bases() []string {
	seen := make(map[string]struct{}, len(c.bases))
	names := make([]string, 0, len(c.bases))
	for _, b := range c.bases {
		if _, ok := seen[b.Name]; ok {
			continue
		}
		seen[b.Name] = struct{}{}
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// Derived returns the classes that list c as a direct base.
func (c *ClassNode) Derived() []*ClassNode {
	out := make([]*ClassNode, 0, len(c.derived))
	for _, id := range c.derived {
		if n, ok := c.g.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// ResolvedBases returns the base classes reached through resolved edges, in
// declaration order. Duplicate edges yield duplicate entries.
func (c *ClassNode) ResolvedBases() []*ClassNode {
	var out []*ClassNode
	for _, b := range c.bases {
		if n, ok := c.g.Node(b.Resolved); ok {
			out = append(out, n)
		}
	}
	return out
}

// Functions returns the member functions in declaration order.
func (c *ClassNode) Functions() []*symtab.Function {
	var out []*symtab.Function
	for _, sym := range c.Symbols() {
		if fn, ok := sym.(*symtab.Function); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Constructors returns the constructors ordered by parameter count; ties keep
// declaration order.
func (c *ClassNode) Constructors() []*symtab.Function {
	var ctors []*symtab.Function
	for _, fn := range c.Functions() {
		if fn.IsConstructor() {
			ctors = append(ctors, fn)
		}
	}
	sort.SliceStable(ctors, func(i, j int) bool {
		return len(ctors[i].Params) < len(ctors[j].Params)
	})
	return ctors
}

// Destructor returns the first destructor declared, if any.
func (c *ClassNode) Destructor() (*symtab.Function, bool) {
	for _, fn := range c.Functions() {
		if fn.IsDestructor() {
			return fn, true
		}
	}
	return nil, false
}

// Destructors returns every destructor declared. More than one means the
// parser saw malformed input; Destructor still picks the first.
func (c *ClassNode) Destructors() []*symtab.Function {
	var out []*symtab.Function
	for _, fn := range c.Functions() {
		if fn.IsDestructor() {
			out = append(out, fn)
		}
	}
	return out
}

// Methods returns c's own functions with the given access, in declaration order.
func (c *ClassNode) Methods(access symtab.Access) []*symtab.Function {
	var out []*symtab.Function
	for _, fn := range c.Functions() {
		if fn.Access() == access {
			out = append(out, fn)
		}
	}
	return out
}

// FindFunction looks up one of c's own functions by canonical signature.
// Base classes are not searched.
func (c *ClassNode) FindFunction(signature string) (*symtab.Function, bool) {
	sig := symtab.CanonicalSignature(signature)
	for _, fn := range c.Functions() {
		if fn.Signature() == sig {
			return fn, true
		}
	}
	return nil, false
}
