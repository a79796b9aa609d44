package extractor

import (
	"strings"

	"classgraph/internal/ir"
	"classgraph/internal/symtab"

	sitter "github.com/smacker/go-tree-sitter"
)

// cppWalker walks a tree-sitter C++ syntax tree and collects declarations.
// scope holds the qualified path of the enclosing namespaces and classes.
type cppWalker struct {
	src   []byte
	path  string
	scope []string
}

func (w *cppWalker) namespaceBody(body *sitter.Node, ns *ir.Namespace) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		w.topLevel(body.NamedChild(i), ns, false, false)
	}
}

func (w *cppWalker) topLevel(n *sitter.Node, ns *ir.Namespace, tmpl, spec bool) {
	switch n.Type() {
	case "namespace_definition":
		child := ir.Namespace{Evidence: w.evidence(n)}
		if name := n.ChildByFieldName("name"); name != nil {
			child.Name = w.text(name)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.push(child.Name)
			w.namespaceBody(body, &child)
			w.pop(child.Name)
		}
		ns.Namespaces = append(ns.Namespaces, child)

	case "class_specifier", "struct_specifier":
		if c, ok := w.class(n, symtab.AccessPublic.String(), tmpl, spec); ok {
			ns.Classes = append(ns.Classes, c)
		}

	case "declaration":
		if t := n.ChildByFieldName("type"); t != nil && isClassSpecifier(t) {
			w.topLevel(t, ns, tmpl, spec)
			return
		}
		if fn, ok := w.function(n, "", symtab.AccessPublic.String(), tmpl); ok {
			ns.Functions = append(ns.Functions, fn)
		}

	case "function_definition":
		if fn, ok := w.function(n, "", symtab.AccessPublic.String(), tmpl); ok {
			ns.Functions = append(ns.Functions, fn)
		}

	case "template_declaration":
		inner, explicit := templateBody(n)
		if inner != nil {
			w.topLevel(inner, ns, true, explicit)
		}

	case "type_definition", "alias_declaration":
		if c, ok := w.typedefClass(n, symtab.AccessPublic.String(), tmpl); ok {
			ns.Classes = append(ns.Classes, c)
		}
		ns.Aliases = append(ns.Aliases, w.aliases(n, symtab.AccessPublic.String())...)

	case "using_declaration":
		if u, ok := w.using(n); ok {
			ns.Using = append(ns.Using, u)
		}

	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "declaration_list" {
				w.namespaceBody(body, ns)
			} else {
				w.topLevel(body, ns, tmpl, spec)
			}
		}

	case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "declaration_list":
		w.namespaceBody(n, ns)
	}
}

// class extracts a class or struct definition. Forward declarations and
// anonymous types yield false.
func (w *cppWalker) class(n *sitter.Node, access string, tmpl, spec bool) (ir.Class, bool) {
	return w.classAs(n, "", access, tmpl, spec)
}

// typedefClass extracts a class defined inside a typedef. An anonymous class
// takes the first typedef name, as in typedef struct { ... } Name;.
func (w *cppWalker) typedefClass(n *sitter.Node, access string, tmpl bool) (ir.Class, bool) {
	if n.Type() != "type_definition" {
		return ir.Class{}, false
	}
	t := n.ChildByFieldName("type")
	if t == nil || !isClassSpecifier(t) {
		return ir.Class{}, false
	}
	return w.classAs(t, w.firstTypedefName(n), access, tmpl, false)
}

func (w *cppWalker) classAs(n *sitter.Node, fallback, access string, tmpl, spec bool) (ir.Class, bool) {
	body := n.ChildByFieldName("body")
	nameNode := n.ChildByFieldName("name")
	if body == nil || (nameNode == nil && fallback == "") {
		return ir.Class{}, false
	}

	isClass := n.Type() == "class_specifier"
	decl := canonicalize(string(w.src[n.StartByte():body.StartByte()]))

	name := fallback
	if nameNode == nil {
		decl = kindOf(isClass) + " " + name
	} else {
		name = w.text(nameNode)
		switch nameNode.Type() {
		case "template_type":
			if inner := nameNode.ChildByFieldName("name"); inner != nil {
				name = w.text(inner)
			}
			spec = true
		case "qualified_identifier":
			parts := symtab.SplitQualified(name)
			name = parts[len(parts)-1]
		}
	}

	defaultAccess := symtab.AccessPublic.String()
	if isClass {
		defaultAccess = symtab.AccessPrivate.String()
	}

	c := ir.Class{
		Name:           name,
		Decl:           decl,
		IsClass:        isClass,
		Access:         access,
		Template:       tmpl,
		Specialization: spec,
		Evidence:       w.evidence(n),
	}
	c.ID = BuildStableSymbolID(kindOf(isClass), w.qualify(name), c.Decl)

	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == "base_class_clause" {
			c.Bases = append(c.Bases, w.bases(child, defaultAccess)...)
		}
	}

	w.push(name)
	current := defaultAccess
	for i := 0; i < int(body.ChildCount()); i++ {
		w.member(body.Child(i), &c, &current, false)
	}
	w.pop(name)
	return c, true
}

// bases reads a base_class_clause. Access and virtual may appear in either
// order before each base name.
func (w *cppWalker) bases(clause *sitter.Node, defaultAccess string) []ir.Base {
	var out []ir.Base
	access, virtual := "", false
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "type_identifier", "qualified_identifier", "template_type":
			a := access
			if a == "" {
				a = defaultAccess
			}
			out = append(out, ir.Base{Name: canonicalize(w.text(child)), Access: a, Virtual: virtual})
			access, virtual = "", false
		case ",":
			access, virtual = "", false
		default:
			text := w.text(child)
			if text == "virtual" {
				virtual = true
			} else if a, ok := symtab.ParseAccess(text); ok {
				access = a.String()
			}
		}
	}
	return out
}

func (w *cppWalker) member(n *sitter.Node, c *ir.Class, access *string, tmpl bool) {
	switch n.Type() {
	case "access_specifier":
		if a, ok := symtab.ParseAccess(w.text(n)); ok {
			*access = a.String()
		}

	case "field_declaration":
		if t := n.ChildByFieldName("type"); t != nil && isClassSpecifier(t) {
			if nested, ok := w.class(t, *access, tmpl, false); ok {
				c.Classes = append(c.Classes, nested)
			}
			return
		}
		if fn, ok := w.function(n, c.Name, *access, tmpl); ok {
			c.Functions = append(c.Functions, fn)
			return
		}
		c.Fields = append(c.Fields, w.fields(n, *access)...)

	case "declaration", "function_definition":
		if fn, ok := w.function(n, c.Name, *access, tmpl); ok {
			c.Functions = append(c.Functions, fn)
		}

	case "class_specifier", "struct_specifier":
		if nested, ok := w.class(n, *access, tmpl, false); ok {
			c.Classes = append(c.Classes, nested)
		}

	case "template_declaration":
		inner, explicit := templateBody(n)
		if inner == nil {
			return
		}
		if isClassSpecifier(inner) {
			if nested, ok := w.class(inner, *access, true, explicit); ok {
				c.Classes = append(c.Classes, nested)
			}
			return
		}
		w.member(inner, c, access, true)

	case "type_definition", "alias_declaration":
		if nested, ok := w.typedefClass(n, *access, tmpl); ok {
			c.Classes = append(c.Classes, nested)
		}
		c.Aliases = append(c.Aliases, w.aliases(n, *access)...)

	case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif":
		for i := 0; i < int(n.ChildCount()); i++ {
			w.member(n.Child(i), c, access, tmpl)
		}
	}
}

// function extracts a function declaration or definition from n. className is
// empty at namespace scope. Qualified names (out-of-line member definitions)
// are skipped since the declaration inside the class is authoritative.
func (w *cppWalker) function(n *sitter.Node, className, access string, tmpl bool) (ir.Function, bool) {
	fd, pointers := functionDeclarator(n.ChildByFieldName("declarator"))
	if fd == nil {
		return ir.Function{}, false
	}
	nameNode := fd.ChildByFieldName("declarator")
	if nameNode == nil {
		return ir.Function{}, false
	}
	switch nameNode.Type() {
	case "qualified_identifier", "parenthesized_declarator":
		return ir.Function{}, false
	}

	name := canonicalize(w.text(nameNode))
	fn := ir.Function{
		Name:     name,
		Role:     ir.RoleMethod,
		Access:   access,
		Template: tmpl,
		Evidence: w.evidence(n),
	}
	switch {
	case nameNode.Type() == "destructor_name" || strings.HasPrefix(name, "~"):
		fn.Role = ir.RoleDestructor
	case className != "" && symtab.StripTemplateArgs(name) == className:
		fn.Role = ir.RoleConstructor
	}

	if t := n.ChildByFieldName("type"); t != nil {
		fn.Return = canonicalize(w.text(t)) + pointers
	}
	fn.Params = w.params(fd.ChildByFieldName("parameters"))

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "virtual", "virtual_function_specifier":
			fn.Virtual = true
		case "storage_class_specifier":
			switch w.text(child) {
			case "static":
				fn.Static = true
			case "inline":
				fn.Inline = true
			}
		case "default_method_clause":
			fn.Defaulted = true
		case "delete_method_clause":
			fn.Deleted = true
		case "pure_virtual_clause":
			fn.Pure = true
		case "=":
			if next := n.Child(i + 1); next != nil {
				switch w.text(next) {
				case "0":
					fn.Pure = true
				case "default":
					fn.Defaulted = true
				case "delete":
					fn.Deleted = true
				}
			}
		}
	}
	for i := 0; i < int(fd.ChildCount()); i++ {
		child := fd.Child(i)
		switch child.Type() {
		case "type_qualifier":
			if w.text(child) == "const" {
				fn.Const = true
			}
		case "virtual_specifier":
			switch w.text(child) {
			case "override":
				fn.Override = true
			case "final":
				fn.Final = true
			}
		}
	}
	if fn.Override || fn.Final {
		fn.Virtual = true
	}

	decl := w.text(n)
	if body := n.ChildByFieldName("body"); body != nil {
		decl = string(w.src[n.StartByte():body.StartByte()])
		if className != "" {
			fn.Inline = true
		}
	}
	fn.Decl = strings.TrimSpace(strings.TrimSuffix(canonicalize(decl), ";"))

	sig := symtab.NewFunction(name, fn.Params, symtab.AccessPublic, symtab.RoleMethod, 0)
	if fn.Const {
		sig.Flags |= symtab.FuncConst
	}
	fn.ID = BuildStableSymbolID("function", w.qualify(name), sig.Signature())
	return fn, true
}

func (w *cppWalker) params(list *sitter.Node) []string {
	if list == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(list.ChildCount()); i++ {
		child := list.Child(i)
		switch child.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			out = append(out, w.paramType(child))
		case "variadic_parameter_declaration", "...":
			out = append(out, "...")
		}
	}
	return out
}

// paramType returns the parameter's text without its name and default value.
func (w *cppWalker) paramType(n *sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == "=" {
			end = child.StartByte()
			break
		}
	}
	text := string(w.src[start:end])
	if id := declaredName(n.ChildByFieldName("declarator")); id != nil {
		text = string(w.src[start:id.StartByte()]) + string(w.src[id.EndByte():end])
	}
	return symtab.CanonicalType(text)
}

func (w *cppWalker) fields(n *sitter.Node, access string) []ir.Field {
	typ := ""
	if t := n.ChildByFieldName("type"); t != nil {
		typ = w.text(t)
	}
	static := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "storage_class_specifier" && w.text(child) == "static" {
			static = true
		}
	}

	var out []ir.Field
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		d := n.Child(i)
		id := declaredName(d)
		if id == nil {
			continue
		}
		suffix := string(w.src[d.StartByte():id.StartByte()]) + string(w.src[id.EndByte():d.EndByte()])
		out = append(out, ir.Field{
			Name:     w.text(id),
			Type:     symtab.CanonicalType(typ + " " + suffix),
			Access:   access,
			Static:   static,
			Evidence: w.evidence(n),
		})
	}
	return out
}

// aliases records the names a typedef or alias-declaration introduces. When
// the typedef defines a class, the target is the class name and a typedef
// repeating that name is dropped.
func (w *cppWalker) aliases(n *sitter.Node, access string) []ir.Alias {
	target := ""
	if t := n.ChildByFieldName("type"); t != nil {
		if isClassSpecifier(t) {
			if name := t.ChildByFieldName("name"); name != nil {
				target = w.text(name)
			} else {
				target = w.firstTypedefName(n)
			}
		} else {
			target = canonicalize(w.text(t))
		}
	}

	if n.Type() == "alias_declaration" {
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []ir.Alias{{Name: w.text(name), Target: target, Access: access, Evidence: w.evidence(n)}}
	}

	var out []ir.Alias
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		if id := declaredName(n.Child(i)); id != nil && w.text(id) != target {
			out = append(out, ir.Alias{Name: w.text(id), Target: target, Access: access, Evidence: w.evidence(n)})
		}
	}
	return out
}

func (w *cppWalker) firstTypedefName(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		if id := declaredName(n.Child(i)); id != nil {
			return w.text(id)
		}
	}
	return ""
}

func (w *cppWalker) using(n *sitter.Node) (ir.Using, bool) {
	var u ir.Using
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "namespace":
			u.Namespace = true
		case "identifier", "qualified_identifier", "namespace_identifier", "type_identifier":
			u.Target = canonicalize(w.text(child))
		}
	}
	return u, u.Target != ""
}

func (w *cppWalker) evidence(n *sitter.Node) ir.Evidence {
	return ir.Evidence{
		Filepath:  w.path,
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
	}
}

func (w *cppWalker) text(n *sitter.Node) string {
	return strings.TrimSpace(n.Content(w.src))
}

func (w *cppWalker) push(name string) {
	if name != "" {
		w.scope = append(w.scope, name)
	}
}

func (w *cppWalker) pop(name string) {
	if name != "" && len(w.scope) > 0 {
		w.scope = w.scope[:len(w.scope)-1]
	}
}

func (w *cppWalker) qualify(name string) string {
	if len(w.scope) == 0 {
		return name
	}
	return strings.Join(w.scope, "::") + "::" + name
}

// templateBody returns the declaration wrapped by a template_declaration and
// whether it is an explicit specialization (empty parameter list).
func templateBody(n *sitter.Node) (*sitter.Node, bool) {
	explicit := false
	var inner *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "template_parameter_list" {
			explicit = child.NamedChildCount() == 0
			continue
		}
		inner = child
	}
	return inner, explicit
}

// functionDeclarator unwraps pointer and reference declarators around a
// function_declarator. The returned suffix is the unwrapped "*" and "&".
func functionDeclarator(d *sitter.Node) (*sitter.Node, string) {
	suffix := ""
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d, suffix
		case "pointer_declarator":
			suffix += "*"
		case "reference_declarator":
			if d.ChildCount() > 0 && d.Child(0).Type() == "&&" {
				suffix += "&&"
			} else {
				suffix += "&"
			}
		default:
			return nil, ""
		}
		d = innerDeclarator(d)
	}
	return nil, ""
}

// declaredName finds the identifier introduced by a declarator, or nil for
// abstract declarators.
func declaredName(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "identifier", "field_identifier", "type_identifier":
			return d
		case "function_declarator", "qualified_identifier":
			return nil
		}
		d = innerDeclarator(d)
	}
	return nil
}

func innerDeclarator(d *sitter.Node) *sitter.Node {
	if next := d.ChildByFieldName("declarator"); next != nil {
		return next
	}
	if count := int(d.NamedChildCount()); count > 0 {
		last := d.NamedChild(count - 1)
		if last.Type() == "type_qualifier" {
			return nil
		}
		return last
	}
	return nil
}

func isClassSpecifier(n *sitter.Node) bool {
	return n.Type() == "class_specifier" || n.Type() == "struct_specifier"
}

func kindOf(isClass bool) string {
	if isClass {
		return string(symtab.KindClass)
	}
	return string(symtab.KindStruct)
}
