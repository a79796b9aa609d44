package symtab

import (
	"regexp"
	"strings"
)

// Role distinguishes ordinary member functions from special members.
type Role int

const (
	RoleMethod Role = iota
	RoleConstructor
	RoleDestructor
)

func (r Role) String() string {
	switch r {
	case RoleConstructor:
		return "constructor"
	case RoleDestructor:
		return "destructor"
	}
	return "method"
}

// FuncFlags are declaration specifiers captured for a function.
type FuncFlags uint16

const (
	FuncVirtual FuncFlags = 1 << iota
	FuncPureVirtual
	FuncStatic
	FuncConst
	FuncInline
	FuncDeleted
	FuncDefaulted
	FuncOverride
	FuncFinal
	FuncTemplate
)

// Function is a free or member function symbol.
type Function struct {
	Base

	Params []string
	Return string
	Role   Role
	Flags  FuncFlags
	Decl   string
}

// NewFunction creates a function symbol. params are parameter types as written.
func NewFunction(name string, params []string, access Access, role Role, flags FuncFlags) *Function {
	canon := make([]string, 0, len(params))
	for _, p := range params {
		if p = CanonicalType(p); p != "" && p != "void" {
			canon = append(canon, p)
		}
	}
	if flags&FuncPureVirtual != 0 {
		flags |= FuncVirtual
	}
	return &Function{
		Base:   NewBase(name, access),
		Params: canon,
		Role:   role,
		Flags:  flags,
	}
}

func (f *Function) Kind() Kind { return KindFunction }

func (f *Function) IsVirtual() bool { return f.Flags&FuncVirtual != 0 }

func (f *Function) IsPureVirtual() bool { return f.Flags&FuncPureVirtual != 0 }

func (f *Function) IsStatic() bool { return f.Flags&FuncStatic != 0 }

func (f *Function) IsConst() bool { return f.Flags&FuncConst != 0 }

func (f *Function) IsConstructor() bool { return f.Role == RoleConstructor }

func (f *Function) IsDestructor() bool { return f.Role == RoleDestructor }

// Signature is the canonical lookup key: name, parameter types, cv-qualifier.
func (f *Function) Signature() string {
	var b strings.Builder
	b.WriteString(f.Name())
	b.WriteByte('(')
	b.WriteString(strings.Join(f.Params, ", "))
	b.WriteByte(')')
	if f.IsConst() {
		b.WriteString(" const")
	}
	return b.String()
}

func (f *Function) String() string {
	if f.Decl != "" {
		return f.Decl
	}
	return f.Signature()
}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	ptrRefRe   = regexp.MustCompile(`\s*([*&]+)`)
	punctSpace = regexp.MustCompile(`\s*([<>,()])\s*`)
	sigRe      = regexp.MustCompile(`^\s*(~?[\w:]+|operator\s*\S+?)\s*\((.*)\)\s*(const)?\s*$`)
)

// CanonicalType normalises a parameter type: single spaces, "*"/"&" bound to the
// preceding token, no padding around template brackets and commas.
func CanonicalType(t string) string {
	t = strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
	if t == "" {
		return ""
	}
	t = punctSpace.ReplaceAllString(t, "$1")
	t = strings.ReplaceAll(t, ",", ", ")
	t = ptrRefRe.ReplaceAllString(t, "$1")
	return t
}

// CanonicalSignature normalises a user-supplied signature string such as
// "foo( const std::string & , int )const" to the Signature() form.
func CanonicalSignature(sig string) string {
	m := sigRe.FindStringSubmatch(sig)
	if m == nil {
		return strings.TrimSpace(spaceRe.ReplaceAllString(sig, " "))
	}
	name := strings.ReplaceAll(m[1], " ", "")
	var params []string
	for _, p := range splitParams(m[2]) {
		if p = CanonicalType(p); p != "" && p != "void" {
			params = append(params, p)
		}
	}
	out := name + "(" + strings.Join(params, ", ") + ")"
	if m[3] != "" {
		out += " const"
	}
	return out
}

// splitParams splits on commas that are not nested in template brackets or parens.
func splitParams(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}
