package extractor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildStableSymbolID creates a deterministic symbol ID from identity fields.
// The same declaration seen in two translation units gets the same ID.
func BuildStableSymbolID(kind, qualified, signature string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "symbol"
	}
	qualified = strings.TrimSpace(qualified)
	if qualified == "" {
		qualified = "_"
	}

	fingerprint := strings.Join([]string{
		LangCpp,
		kind,
		qualified,
		canonicalize(signature),
	}, "|")

	return fmt.Sprintf("%s/%s:%s:%016x", LangCpp, kind, qualified, xxhash.Sum64String(fingerprint))
}

// BuildUnitID identifies a translation unit by its cleaned path.
func BuildUnitID(path string) string {
	return fmt.Sprintf("%s/unit:%016x", LangCpp, xxhash.Sum64String(filepath.ToSlash(filepath.Clean(path))))
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
