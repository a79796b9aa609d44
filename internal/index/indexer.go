package index

import (
	"context"
	"fmt"

	"classgraph/internal/crawler"
	"classgraph/internal/graph"
	"classgraph/internal/ir"
	"classgraph/internal/resolver"
	"classgraph/internal/symtab"

	"github.com/sirupsen/logrus"
)

// Indexer orchestrates codebase indexing and graph management.
type Indexer struct {
	crawler *crawler.Crawler
	chain   *resolver.ResolverChain
	logger  *logrus.Logger
}

// Result is a resolved graph together with what it took to build it.
type Result struct {
	Graph  *graph.Graph
	Units  []*ir.TranslationUnit
	Scan   crawler.ScanStats
	Stages []resolver.StageResult
}

// NewIndexer creates a new indexer. A nil chain uses the default resolver chain.
func NewIndexer(c *crawler.Crawler, chain *resolver.ResolverChain, logger *logrus.Logger) *Indexer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if chain == nil {
		chain = resolver.NewDefaultChain(logger, false)
	}
	return &Indexer{
		crawler: c,
		chain:   chain,
		logger:  logger,
	}
}

// BuildGraph scans the project root, registers every translation unit in path
// order and runs the resolver chain once all of them are loaded.
func (i *Indexer) BuildGraph(ctx context.Context, root string) (*Result, error) {
	g := graph.NewGraph()
	res := &Result{Graph: g}

	var regErr error
	stats, err := i.crawler.ScanProject(ctx, root, func(unit *ir.TranslationUnit) {
		if regErr != nil {
			return
		}
		res.Units = append(res.Units, unit)
		regErr = Register(g, unit, i.logger)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if regErr != nil {
		return nil, fmt.Errorf("register failed: %w", regErr)
	}
	res.Scan = stats

	res.Stages = i.chain.Run(g)
	for _, st := range res.Stages {
		if st.Err != nil {
			return nil, fmt.Errorf("resolver %s failed: %w", st.Resolver, st.Err)
		}
	}
	return res, nil
}

// Register adds the declarations of one translation unit to g. It must run
// before the resolver pass.
func Register(g *graph.Graph, unit *ir.TranslationUnit, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &registrar{g: g, unit: unit, logger: logger, seen: make(map[string]bool)}
	return r.namespace(g.Root(), &unit.Global)
}

type registrar struct {
	g      *graph.Graph
	unit   *ir.TranslationUnit
	logger *logrus.Logger
	seen   map[string]bool
}

// namespace registers one namespace body. Within a scope, nested namespaces
// come first, then classes, then aliases and functions: the order a stored
// snapshot is restored in.
func (r *registrar) namespace(scope *symtab.Scope, ns *ir.Namespace) error {
	for _, u := range ns.Using {
		if u.Namespace {
			scope.ImportNamespace(u.Target)
		} else {
			scope.ImportSymbol(u.Target)
		}
	}
	children := make([]*symtab.Scope, len(ns.Namespaces))
	for i := range ns.Namespaces {
		children[i] = scope.EnsureNamespace(ns.Namespaces[i].Name)
	}
	for i := range ns.Classes {
		if err := r.class(scope, &ns.Classes[i]); err != nil {
			return err
		}
	}
	for _, a := range ns.Aliases {
		scope.Add(newAlias(a))
	}
	for _, fn := range ns.Functions {
		if r.seen[fn.ID] {
			continue
		}
		r.seen[fn.ID] = true
		scope.Add(newFunction(fn))
	}
	for i := range ns.Namespaces {
		if err := r.namespace(children[i], &ns.Namespaces[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *registrar) class(scope *symtab.Scope, c *ir.Class) error {
	access, _ := symtab.ParseAccess(c.Access)
	node, err := r.g.NewClass(scope, c.Name, c.Decl, c.IsClass, access)
	if err != nil {
		return fmt.Errorf("class %s: %w", c.Name, err)
	}
	node.Loc = location(c.Evidence)
	if c.Template {
		node.MarkTemplate()
	}
	if c.Specialization {
		node.MarkTemplateSpecialization()
	}
	if r.unit.IsSource {
		node.MakeInline()
	}

	for _, b := range c.Bases {
		a, _ := symtab.ParseAccess(b.Access)
		if err := node.AddBase(b.Name, a, b.Virtual); err != nil {
			return fmt.Errorf("class %s: %w", node.FullName(), err)
		}
	}
	for _, a := range c.Aliases {
		node.Add(newAlias(a))
	}
	for _, f := range c.Fields {
		access, _ := symtab.ParseAccess(f.Access)
		v := symtab.NewVariable(f.Name, f.Type, access)
		v.Loc = location(f.Evidence)
		node.Add(v)
	}
	for _, fn := range c.Functions {
		node.Add(newFunction(fn))
	}
	if dtors := node.Destructors(); len(dtors) > 1 {
		r.logger.WithFields(logrus.Fields{
			"class": node.FullName(),
			"count": len(dtors),
			"file":  c.Evidence.Filepath,
		}).Warn("multiple destructors declared, using the first")
	}

	for i := range c.Classes {
		if err := r.class(node.Scope, &c.Classes[i]); err != nil {
			return err
		}
	}
	return nil
}

func newFunction(fn ir.Function) *symtab.Function {
	access, _ := symtab.ParseAccess(fn.Access)
	role := symtab.RoleMethod
	switch fn.Role {
	case ir.RoleConstructor:
		role = symtab.RoleConstructor
	case ir.RoleDestructor:
		role = symtab.RoleDestructor
	}

	var flags symtab.FuncFlags
	for _, f := range []struct {
		on   bool
		flag symtab.FuncFlags
	}{
		{fn.Virtual, symtab.FuncVirtual},
		{fn.Pure, symtab.FuncPureVirtual},
		{fn.Static, symtab.FuncStatic},
		{fn.Const, symtab.FuncConst},
		{fn.Inline, symtab.FuncInline},
		{fn.Deleted, symtab.FuncDeleted},
		{fn.Defaulted, symtab.FuncDefaulted},
		{fn.Override, symtab.FuncOverride},
		{fn.Final, symtab.FuncFinal},
		{fn.Template, symtab.FuncTemplate},
	} {
		if f.on {
			flags |= f.flag
		}
	}

	out := symtab.NewFunction(fn.Name, fn.Params, access, role, flags)
	out.Return = fn.Return
	out.Decl = fn.Decl
	out.Loc = location(fn.Evidence)
	return out
}

func newAlias(a ir.Alias) *symtab.Typedef {
	access, _ := symtab.ParseAccess(a.Access)
	t := symtab.NewTypedef(a.Name, a.Target, access)
	t.Loc = location(a.Evidence)
	return t
}

func location(ev ir.Evidence) symtab.Location {
	return symtab.Location{File: ev.Filepath, StartLine: ev.StartLine, EndLine: ev.EndLine}
}
