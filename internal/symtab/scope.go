package symtab

import (
	"sort"
	"strings"
)

// Scope owns child symbols by name and resolves qualified names.
// A Scope is itself a Symbol of kind namespace; classes embed one to own their members.
type Scope struct {
	Base

	symbols  []Symbol
	byName   map[string][]Symbol
	usingNS  []string
	usingSym map[string]string
}

// NewRoot creates the global (unnamed) scope.
func NewRoot() *Scope {
	return NewNamespace("")
}

// NewNamespace creates a detached namespace scope. Attach it with Add.
func NewNamespace(name string) *Scope {
	return NewScope(name, AccessPublic)
}

// NewScope creates a detached scope with the given access. Types that own
// members (classes) embed the result.
func NewScope(name string, access Access) *Scope {
	return &Scope{
		Base:     NewBase(name, access),
		byName:   make(map[string][]Symbol),
		usingSym: make(map[string]string),
	}
}

func (s *Scope) Kind() Kind { return KindNamespace }

// Members returns the scope itself.
func (s *Scope) Members() *Scope { return s }

// Root walks up to the global scope.
func (s *Scope) Root() *Scope {
	cur := s
	for cur.Parent() != nil {
		cur = cur.Parent()
	}
	return cur
}

// Add registers sym as a child of s. Several symbols may share a name (overloads).
func (s *Scope) Add(sym Symbol) {
	if sym == nil {
		return
	}
	sym.setParent(s)
	s.symbols = append(s.symbols, sym)
	s.byName[sym.Name()] = append(s.byName[sym.Name()], sym)
}

// Symbols returns all children in declaration order.
func (s *Scope) Symbols() []Symbol {
	out := make([]Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Find returns the children named name, without searching enclosing scopes.
func (s *Scope) Find(name string) []Symbol {
	return s.byName[name]
}

// Len returns the number of direct children.
func (s *Scope) Len() int { return len(s.symbols) }

// ImportNamespace records a `using namespace name;` directive.
func (s *Scope) ImportNamespace(name string) {
	for _, ns := range s.usingNS {
		if ns == name {
			return
		}
	}
	s.usingNS = append(s.usingNS, name)
}

// ImportSymbol records a `using A::B;` declaration; B becomes visible here.
func (s *Scope) ImportSymbol(qualified string) {
	_, last := splitLast(qualified)
	if last == "" {
		return
	}
	s.usingSym[last] = qualified
}

// UsingDirectives returns the namespaces imported with `using namespace`, in order.
func (s *Scope) UsingDirectives() []string {
	out := make([]string, len(s.usingNS))
	copy(out, s.usingNS)
	return out
}

// UsingDeclarations returns the qualified names imported with `using A::B;`, sorted.
func (s *Scope) UsingDeclarations() []string {
	out := make([]string, 0, len(s.usingSym))
	for _, q := range s.usingSym {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// EnsureNamespace returns the nested namespace for a qualified path, creating
// missing components. Namespaces reopen across translation units.
func (s *Scope) EnsureNamespace(qualified string) *Scope {
	cur := s
	for _, part := range SplitQualified(qualified) {
		if part == "" {
			continue
		}
		var next *Scope
		for _, sym := range cur.byName[part] {
			if ns, ok := sym.(*Scope); ok {
				next = ns
				break
			}
		}
		if next == nil {
			next = NewNamespace(part)
			cur.Add(next)
		}
		cur = next
	}
	return cur
}

type lookupState struct {
	visited   map[*Scope]bool
	nominated map[*Scope]bool // namespaces already searched through a using-directive
}

// Lookup resolves a possibly qualified name from this scope. A leading "::"
// anchors at the root. Unqualified heads are searched here, then through using
// declarations and directives, then in enclosing scopes. Template arguments are
// ignored when matching names.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	st := &lookupState{visited: make(map[*Scope]bool), nominated: make(map[*Scope]bool)}
	sym := s.lookup(name, st)
	return sym, sym != nil
}

func (s *Scope) lookup(name string, st *lookupState) Symbol {
	if st.visited[s] {
		return nil
	}
	st.visited[s] = true

	if strings.HasPrefix(name, "::") {
		return s.Root().descend(strings.TrimPrefix(name, "::"))
	}

	head, tail := splitFirst(name)
	if sym := s.findLocal(head); sym != nil {
		if tail == "" {
			return sym
		}
		if c, ok := sym.(Container); ok {
			if found := c.Members().descend(tail); found != nil {
				return found
			}
		}
	} else {
		if target, ok := s.usingSym[head]; ok {
			if sym := s.resolveOutward(target); sym != nil {
				if tail == "" {
					return sym
				}
				if c, ok := sym.(Container); ok {
					if found := c.Members().descend(tail); found != nil {
						return found
					}
				}
			}
		}
		for _, nsName := range s.usingNS {
			if found := s.viaDirective(nsName, name, st); found != nil {
				return found
			}
		}
	}

	if p := s.Parent(); p != nil {
		return p.lookup(name, st)
	}
	return nil
}

// viaDirective looks name up in the namespace a using-directive nominates and
// in the namespaces that one nominates in turn. The nominated namespace's
// enclosing scopes are not searched.
func (s *Scope) viaDirective(nsName, name string, st *lookupState) Symbol {
	c, ok := s.resolveOutward(nsName).(Container)
	if !ok {
		return nil
	}
	ns := c.Members()
	if st.nominated[ns] {
		return nil
	}
	st.nominated[ns] = true
	if found := ns.descend(name); found != nil {
		return found
	}
	for _, next := range ns.usingNS {
		if found := ns.viaDirective(next, name, st); found != nil {
			return found
		}
	}
	return nil
}

// resolveOutward resolves a qualified path by descending from s and then from
// each enclosing scope. Using directives are not consulted.
func (s *Scope) resolveOutward(path string) Symbol {
	if strings.HasPrefix(path, "::") {
		return s.Root().descend(strings.TrimPrefix(path, "::"))
	}
	for cur := s; cur != nil; cur = cur.Parent() {
		if sym := cur.descend(path); sym != nil {
			return sym
		}
	}
	return nil
}

func (s *Scope) descend(path string) Symbol {
	head, tail := splitFirst(path)
	sym := s.findLocal(head)
	if sym == nil || tail == "" {
		return sym
	}
	c, ok := sym.(Container)
	if !ok {
		return nil
	}
	return c.Members().descend(tail)
}

// findLocal picks by kind when a name is shared: classes and namespaces
// first, then other non-function symbols, then functions. Within a kind the
// first added wins, so the result does not depend on how kinds interleave.
func (s *Scope) findLocal(name string) Symbol {
	syms := s.byName[StripTemplateArgs(name)]
	if len(syms) == 0 {
		return nil
	}
	var other Symbol
	for _, sym := range syms {
		if _, ok := sym.(Container); ok {
			return sym
		}
		if other == nil && sym.Kind() != KindFunction {
			other = sym
		}
	}
	if other != nil {
		return other
	}
	return syms[0]
}

// SplitQualified splits "a::b<c::d>::e" at top-level "::" separators.
func SplitQualified(name string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(name) && name[i+1] == ':' {
				parts = append(parts, strings.TrimSpace(name[start:i]))
				start = i + 2
				i++
			}
		}
	}
	return append(parts, strings.TrimSpace(name[start:]))
}

func splitFirst(name string) (head, tail string) {
	parts := SplitQualified(name)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], "::")
}

func splitLast(name string) (prefix, last string) {
	parts := SplitQualified(strings.TrimPrefix(name, "::"))
	if len(parts) == 1 {
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], "::"), parts[len(parts)-1]
}

// StripTemplateArgs removes a trailing template argument list: "Base<int>" -> "Base".
func StripTemplateArgs(name string) string {
	if i := strings.IndexByte(name, '<'); i > 0 {
		return strings.TrimSpace(name[:i])
	}
	return strings.TrimSpace(name)
}
