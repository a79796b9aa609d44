package graph

import "strings"

// Flag is a single class declaration property.
type Flag uint8

const (
	FlagTemplate               Flag = 1
	FlagInline                 Flag = 2 // whole class defined inside a source file
	FlagTemplateSpecialization Flag = 4
)

// Flags is a monotonic flag set: bits can be added, never cleared.
type Flags struct {
	bits Flag
}

// Has reports whether every bit of f is set.
func (s Flags) Has(f Flag) bool { return s.bits&f == f && f != 0 }

// Bits returns the raw value.
func (s Flags) Bits() int { return int(s.bits) }

func (s *Flags) set(f Flag) { s.bits |= f }

func (s Flags) String() string {
	var parts []string
	if s.Has(FlagTemplate) {
		parts = append(parts, "template")
	}
	if s.Has(FlagInline) {
		parts = append(parts, "inline")
	}
	if s.Has(FlagTemplateSpecialization) {
		parts = append(parts, "specialization")
	}
	return strings.Join(parts, "|")
}
