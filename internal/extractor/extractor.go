package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"classgraph/internal/ir"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// Languages accepted by NewExtractor.
const (
	LangCpp = "cpp"
)

var sourceExtensions = map[string]bool{
	".cpp": true,
	".cc":  true,
	".cxx": true,
	".c++": true,
}

// IsSourceFile reports whether path is an implementation file rather than a
// header. Classes defined in source files are local to that file.
func IsSourceFile(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// Extractor turns C++ files into translation-unit IR.
type Extractor struct {
	language *sitter.Language
	langName string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	switch lang {
	case LangCpp, "c++":
		return &Extractor{language: cpp.GetLanguage(), langName: LangCpp}, nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// ExtractFromFile reads and parses a single source file.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string) (*ir.TranslationUnit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.Extract(ctx, path, src)
}

// Extract parses src as the contents of path. Syntax errors do not fail the
// extraction; whatever the parser recovered is returned.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) (*ir.TranslationUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	w := &cppWalker{src: src, path: path}
	unit := &ir.TranslationUnit{
		ID:          BuildUnitID(path),
		Path:        path,
		Language:    e.langName,
		IsSource:    IsSourceFile(path),
		ContentHash: fmt.Sprintf("%016x", xxhash.Sum64(src)),
	}
	root := tree.RootNode()
	unit.Global.Evidence = w.evidence(root)
	w.namespaceBody(root, &unit.Global)
	return unit, nil
}
