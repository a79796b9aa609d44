package symtab

import "strings"

// Access is the access level of a member or base specifier.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	}
	return "unknown"
}

// ParseAccess maps an access keyword (optionally followed by ':') to an Access.
func ParseAccess(s string) (Access, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ":"))
	switch s {
	case "public":
		return AccessPublic, true
	case "protected":
		return AccessProtected, true
	case "private":
		return AccessPrivate, true
	}
	return AccessPrivate, false
}

// Kind tags the concrete type of a Symbol.
type Kind string

const (
	KindNamespace Kind = "namespace"
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindFunction  Kind = "function"
	KindTypedef   Kind = "typedef"
	KindVariable  Kind = "variable"
	KindEnum      Kind = "enum"
)

// Symbol is the identity record shared by everything stored in a Scope.
type Symbol interface {
	Name() string
	FullName() string
	Access() Access
	Kind() Kind
	Parent() *Scope
	setParent(*Scope)
}

// Container is a Symbol that owns a member Scope (namespaces, classes).
type Container interface {
	Symbol
	Members() *Scope
}

// Location is where a symbol was declared.
type Location struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Contains reports whether line falls inside the location's span.
func (l Location) Contains(line int) bool {
	return line >= l.StartLine && line <= l.EndLine
}

// Base carries the fields common to every Symbol. Embed it to implement Symbol.
type Base struct {
	name   string
	access Access
	parent *Scope
	Loc    Location
}

// NewBase returns a Base with the given name and access.
func NewBase(name string, access Access) Base {
	return Base{name: name, access: access}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Access() Access { return b.access }

func (b *Base) Parent() *Scope { return b.parent }

func (b *Base) setParent(s *Scope) { b.parent = s }

// FullName joins the enclosing scope names with "::". The root scope has no name.
func (b *Base) FullName() string {
	return qualify(b.parent, b.name)
}

func qualify(parent *Scope, name string) string {
	if parent == nil {
		return name
	}
	prefix := parent.FullName()
	if prefix == "" {
		return name
	}
	return prefix + "::" + name
}

// Typedef is a typedef or alias declaration.
type Typedef struct {
	Base
	Target string
}

func NewTypedef(name, target string, access Access) *Typedef {
	return &Typedef{Base: NewBase(name, access), Target: target}
}

func (t *Typedef) Kind() Kind { return KindTypedef }

// Variable is a namespace-level or member variable.
type Variable struct {
	Base
	Type string
}

func NewVariable(name, typ string, access Access) *Variable {
	return &Variable{Base: NewBase(name, access), Type: typ}
}

func (v *Variable) Kind() Kind { return KindVariable }
