package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"classgraph/internal/graph"
	"classgraph/internal/symtab"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS snapshot (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS symbols (
			seq INTEGER PRIMARY KEY,
			parent INTEGER NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			full_name TEXT NOT NULL,
			access TEXT NOT NULL,
			node_id INTEGER,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER,
			details JSON
		);`,
		`CREATE TABLE IF NOT EXISTS usings (
			scope INTEGER NOT NULL,
			target TEXT NOT NULL,
			is_namespace INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inherits (
			from_id INTEGER NOT NULL,
			to_id INTEGER NOT NULL,
			base_index INTEGER NOT NULL,
			PRIMARY KEY (from_id, base_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_full_name ON symbols(full_name);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(filepath);`,
		`CREATE INDEX IF NOT EXISTS idx_inherits_to ON inherits(to_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

type baseDetails struct {
	Name    string `json:"name"`
	Access  string `json:"access"`
	Virtual bool   `json:"virtual,omitempty"`
}

type classDetails struct {
	Decl    string        `json:"decl"`
	IsClass bool          `json:"is_class"`
	Flags   int           `json:"flags"`
	Bases   []baseDetails `json:"bases,omitempty"`
}

type functionDetails struct {
	Params []string `json:"params,omitempty"`
	Return string   `json:"return,omitempty"`
	Role   string   `json:"role"`
	Flags  int      `json:"flags"`
	Decl   string   `json:"decl,omitempty"`
}

type valueDetails struct {
	Type string `json:"type"`
}

type symbolRow struct {
	seq      int64
	parent   int64
	kind     string
	name     string
	fullName string
	access   string
	nodeID   sql.NullInt64
	loc      symtab.Location
	details  []byte
}

// SaveGraph replaces the snapshot. Symbols are written in scope pre-order so
// every row's parent precedes it.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph, root string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot", "symbols", "usings", "inherits"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	symStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (seq, parent, kind, name, full_name, access, node_id, filepath, start_line, end_line, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer symStmt.Close()

	usingStmt, err := tx.PrepareContext(ctx, `INSERT INTO usings (scope, target, is_namespace) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer usingStmt.Close()

	var seq int64
	var walk func(scope *symtab.Scope, parent int64) error
	writeUsings := func(scope *symtab.Scope, id int64) error {
		for _, ns := range scope.UsingDirectives() {
			if _, err := usingStmt.ExecContext(ctx, id, ns, 1); err != nil {
				return err
			}
		}
		for _, sym := range scope.UsingDeclarations() {
			if _, err := usingStmt.ExecContext(ctx, id, sym, 0); err != nil {
				return err
			}
		}
		return nil
	}
	walk = func(scope *symtab.Scope, parent int64) error {
		for _, sym := range scope.Symbols() {
			seq++
			row, err := encodeSymbol(sym)
			if err != nil {
				return err
			}
			if _, err := symStmt.ExecContext(ctx, seq, parent, row.kind, sym.Name(), sym.FullName(), sym.Access().String(),
				row.nodeID, row.loc.File, row.loc.StartLine, row.loc.EndLine, row.details); err != nil {
				return fmt.Errorf("failed to save %s: %w", sym.FullName(), err)
			}
			if c, ok := sym.(symtab.Container); ok {
				id := seq
				if err := writeUsings(c.Members(), id); err != nil {
					return err
				}
				if err := walk(c.Members(), id); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := writeUsings(g.Root(), 0); err != nil {
		return err
	}
	if err := walk(g.Root(), 0); err != nil {
		return err
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO inherits (from_id, to_id, base_index) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	edges := 0
	for _, n := range g.Nodes() {
		for i, e := range n.BaseEdges() {
			if !e.IsResolved() {
				continue
			}
			if _, err := edgeStmt.ExecContext(ctx, int64(n.ID()), int64(e.Resolved), i); err != nil {
				return err
			}
			edges++
		}
	}

	meta := map[string]string{
		"root":     root,
		"saved_at": time.Now().UTC().Format(time.RFC3339),
		"classes":  strconv.Itoa(g.Len()),
		"edges":    strconv.Itoa(edges),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func encodeSymbol(sym symtab.Symbol) (symbolRow, error) {
	var row symbolRow
	var details any
	switch v := sym.(type) {
	case *graph.ClassNode:
		row.kind = string(v.Kind())
		row.nodeID = sql.NullInt64{Int64: int64(v.ID()), Valid: true}
		row.loc = v.Loc
		cd := classDetails{Decl: v.Declaration(), IsClass: v.IsClass(), Flags: v.Flags().Bits()}
		for _, e := range v.BaseEdges() {
			cd.Bases = append(cd.Bases, baseDetails{Name: e.Name, Access: e.Access.String(), Virtual: e.Virtual})
		}
		details = cd
	case *symtab.Scope:
		row.kind = string(symtab.KindNamespace)
		row.loc = v.Loc
	case *symtab.Function:
		row.kind = string(symtab.KindFunction)
		row.loc = v.Loc
		details = functionDetails{
			Params: v.Params,
			Return: v.Return,
			Role:   v.Role.String(),
			Flags:  int(v.Flags),
			Decl:   v.Decl,
		}
	case *symtab.Typedef:
		row.kind = string(symtab.KindTypedef)
		row.loc = v.Loc
		details = valueDetails{Type: v.Target}
	case *symtab.Variable:
		row.kind = string(symtab.KindVariable)
		row.loc = v.Loc
		details = valueDetails{Type: v.Type}
	default:
		return row, fmt.Errorf("unsupported symbol %s of kind %s", sym.FullName(), sym.Kind())
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return row, err
		}
		row.details = b
	}
	return row, nil
}

// LoadGraph rebuilds namespaces first, then classes in their original arena
// order, then the remaining symbols in declaration order.
func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	if _, err := s.Info(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, parent, kind, name, full_name, access, node_id, filepath, start_line, end_line, details
		FROM symbols ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var all []symbolRow
	for rows.Next() {
		var r symbolRow
		var file sql.NullString
		var start, end sql.NullInt64
		if err := rows.Scan(&r.seq, &r.parent, &r.kind, &r.name, &r.fullName, &r.access, &r.nodeID, &file, &start, &end, &r.details); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		r.loc = symtab.Location{File: file.String, StartLine: int(start.Int64), EndLine: int(end.Int64)}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	g := graph.NewGraph()
	scopes := map[int64]*symtab.Scope{0: g.Root()}
	parentOf := func(r symbolRow) (*symtab.Scope, error) {
		p, ok := scopes[r.parent]
		if !ok {
			return nil, fmt.Errorf("corrupt snapshot: %s has no parent %d", r.fullName, r.parent)
		}
		return p, nil
	}

	var classes, others []symbolRow
	for _, r := range all {
		switch {
		case r.kind == string(symtab.KindNamespace):
			parent, err := parentOf(r)
			if err != nil {
				return nil, err
			}
			ns := symtab.NewNamespace(r.name)
			ns.Loc = r.loc
			parent.Add(ns)
			scopes[r.seq] = ns
		case r.nodeID.Valid:
			classes = append(classes, r)
		default:
			others = append(others, r)
		}
	}

	sort.SliceStable(classes, func(i, j int) bool { return classes[i].nodeID.Int64 < classes[j].nodeID.Int64 })
	for _, r := range classes {
		parent, err := parentOf(r)
		if err != nil {
			return nil, err
		}
		var cd classDetails
		if err := json.Unmarshal(r.details, &cd); err != nil {
			return nil, fmt.Errorf("failed to decode class %s: %w", r.fullName, err)
		}
		access, _ := symtab.ParseAccess(r.access)
		n, err := g.NewClass(parent, r.name, cd.Decl, cd.IsClass, access)
		if err != nil {
			return nil, err
		}
		n.Loc = r.loc
		restoreFlags(n, cd.Flags)
		for _, b := range cd.Bases {
			a, _ := symtab.ParseAccess(b.Access)
			if err := n.AddBase(b.Name, a, b.Virtual); err != nil {
				return nil, err
			}
		}
		scopes[r.seq] = n.Scope
	}

	for _, r := range others {
		parent, err := parentOf(r)
		if err != nil {
			return nil, err
		}
		sym, err := decodeSymbol(r)
		if err != nil {
			return nil, err
		}
		parent.Add(sym)
	}

	if err := s.loadUsings(ctx, scopes); err != nil {
		return nil, err
	}
	return g, nil
}

func restoreFlags(n *graph.ClassNode, bits int) {
	if bits&int(graph.FlagTemplate) != 0 {
		n.MarkTemplate()
	}
	if bits&int(graph.FlagInline) != 0 {
		n.MakeInline()
	}
	if bits&int(graph.FlagTemplateSpecialization) != 0 {
		n.MarkTemplateSpecialization()
	}
}

func decodeSymbol(r symbolRow) (symtab.Symbol, error) {
	access, _ := symtab.ParseAccess(r.access)
	switch symtab.Kind(r.kind) {
	case symtab.KindFunction:
		var fd functionDetails
		if err := json.Unmarshal(r.details, &fd); err != nil {
			return nil, fmt.Errorf("failed to decode function %s: %w", r.fullName, err)
		}
		role := symtab.RoleMethod
		switch fd.Role {
		case symtab.RoleConstructor.String():
			role = symtab.RoleConstructor
		case symtab.RoleDestructor.String():
			role = symtab.RoleDestructor
		}
		fn := symtab.NewFunction(r.name, fd.Params, access, role, symtab.FuncFlags(fd.Flags))
		fn.Return = fd.Return
		fn.Decl = fd.Decl
		fn.Loc = r.loc
		return fn, nil
	case symtab.KindTypedef, symtab.KindVariable:
		var vd valueDetails
		if err := json.Unmarshal(r.details, &vd); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", r.fullName, err)
		}
		if symtab.Kind(r.kind) == symtab.KindTypedef {
			t := symtab.NewTypedef(r.name, vd.Type, access)
			t.Loc = r.loc
			return t, nil
		}
		v := symtab.NewVariable(r.name, vd.Type, access)
		v.Loc = r.loc
		return v, nil
	}
	return nil, fmt.Errorf("corrupt snapshot: unknown kind %q for %s", r.kind, r.fullName)
}

func (s *SQLiteStore) loadUsings(ctx context.Context, scopes map[int64]*symtab.Scope) error {
	rows, err := s.db.QueryContext(ctx, `SELECT scope, target, is_namespace FROM usings ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("failed to query usings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scope int64
		var target string
		var isNamespace bool
		if err := rows.Scan(&scope, &target, &isNamespace); err != nil {
			return fmt.Errorf("failed to scan using: %w", err)
		}
		sc, ok := scopes[scope]
		if !ok {
			continue
		}
		if isNamespace {
			sc.ImportNamespace(target)
		} else {
			sc.ImportSymbol(target)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Info(ctx context.Context) (SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM snapshot`)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return SnapshotInfo{}, err
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return SnapshotInfo{}, err
	}
	if len(meta) == 0 {
		return SnapshotInfo{}, ErrNoSnapshot
	}

	info := SnapshotInfo{Root: meta["root"]}
	info.SavedAt, _ = time.Parse(time.RFC3339, meta["saved_at"])
	info.Classes, _ = strconv.Atoi(meta["classes"])
	info.Edges, _ = strconv.Atoi(meta["edges"])
	return info, nil
}

func (s *SQLiteStore) DerivedOf(ctx context.Context, fullName string) ([]string, error) {
	var nodeID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT node_id FROM symbols WHERE full_name = ? AND node_id IS NOT NULL ORDER BY seq LIMIT 1`, fullName,
	).Scan(&nodeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, fullName)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.full_name FROM symbols s
		WHERE s.node_id IN (SELECT from_id FROM inherits WHERE to_id = ?)
		ORDER BY s.node_id
	`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
