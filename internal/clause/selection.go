package clause

import (
	"strings"

	"smf/internal/qv"
)

// SelectionKind discriminates the three Selection shapes.
type SelectionKind int

const (
	SelAll SelectionKind = iota
	SelNone
	SelExplicit
)

// Selection is a sum type with exactly three shapes: All ("every
// column from the FROM table plus every joined table, in that order"),
// None, or Explicit(ordered list of columns).
type Selection struct {
	Kind    SelectionKind
	Columns []ColumnRef // meaningful only when Kind == SelExplicit
}

var _ Clause = Selection{}

// All returns the All selection.
func All() Selection { return Selection{Kind: SelAll} }

// None returns the None selection.
func None() Selection { return Selection{Kind: SelNone} }

// Explicit returns a Selection projecting exactly the given columns,
// in order.
func Explicit(cols ...ColumnRef) Selection {
	return Selection{Kind: SelExplicit, Columns: cols}
}

// Plus combines two selections. All absorbs everything; Explicit
// merges preserving insertion order and deduplicating by identity
// (table, column).
func (s Selection) Plus(other Selection) Selection {
	if s.Kind == SelAll || other.Kind == SelAll {
		return All()
	}
	if s.Kind == SelNone {
		return other
	}
	if other.Kind == SelNone {
		return s
	}
	seen := map[ColumnRef]bool{}
	merged := make([]ColumnRef, 0, len(s.Columns)+len(other.Columns))
	for _, c := range append(append([]ColumnRef{}, s.Columns...), other.Columns...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		merged = append(merged, c)
	}
	return Explicit(merged...)
}

func (s Selection) ToSQL() (string, error) {
	switch s.Kind {
	case SelAll:
		return "SELECT *", nil
	case SelNone:
		return "SELECT NULL", nil
	default:
		parts := make([]string, 0, len(s.Columns))
		for _, c := range s.Columns {
			parts = append(parts, c.Qualified())
		}
		return "SELECT " + strings.Join(parts, ", "), nil
	}
}

func (s Selection) Values() []qv.Value { return nil }
