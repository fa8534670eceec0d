// Package namemap implements a bidirectional, rule-based map between
// database column names and caller-visible logical names.
package namemap

import (
	"fmt"
	"strings"
)

// NoLogicalForColumn is returned when no rule or override resolves a
// column name to a logical name.
type NoLogicalForColumn struct {
	Column string
}

func (e *NoLogicalForColumn) Error() string {
	return fmt.Sprintf("no logical name for column %q", e.Column)
}

// NoColumnForLogical is returned when no known column of the given
// table carries the requested logical name.
type NoColumnForLogical struct {
	Logical, Table string
}

func (e *NoColumnForLogical) Error() string {
	return fmt.Sprintf("no column for logical name %q in table %q", e.Logical, e.Table)
}

// Rule is a partial function from a column name to a logical name. A
// false second return means "I don't know about this column" and
// resolution continues to the next rule.
type Rule interface {
	ColumnToLogical(column string) (string, bool)
}

// RuleFunc adapts a plain function to the Rule interface.
type RuleFunc func(column string) (string, bool)

func (f RuleFunc) ColumnToLogical(column string) (string, bool) { return f(column) }

// NameMapping resolves column names to logical names and back. Direct
// overrides are consulted first; then rules, in the order they were
// added. The first definite hit wins.
type NameMapping struct {
	overrides map[string]string
	rules     []Rule
}

// New constructs an empty NameMapping with the default SnakeToCamelRule
// registered, matching the teacher's snake_case table/column naming
// convention.
func New() *NameMapping {
	m := &NameMapping{overrides: map[string]string{}}
	m.AddRule(SnakeToCamelRule{})
	return m
}

// AddRule appends a resolution rule, tried after all prior rules and
// direct overrides have failed to resolve a column.
func (m *NameMapping) AddRule(r Rule) {
	m.rules = append(m.rules, r)
}

// AddDirectMapping registers an exact column -> logical override,
// consulted before any rule.
func (m *NameMapping) AddDirectMapping(column, logical string) {
	m.overrides[strings.ToLower(column)] = logical
}

// LogicalNameOf resolves a column name to its logical name.
func (m *NameMapping) LogicalNameOf(column string) (string, error) {
	if logical, ok := m.overrides[strings.ToLower(column)]; ok {
		return logical, nil
	}
	for _, r := range m.rules {
		if logical, ok := r.ColumnToLogical(column); ok {
			return logical, nil
		}
	}
	return "", &NoLogicalForColumn{Column: column}
}

// ColumnNameOf resolves a logical name back to a column name, linearly
// scanning the column names supplied by the caller (typically a
// table's known columns). table is used only for error reporting.
func (m *NameMapping) ColumnNameOf(logical string, table string, knownColumns []string) (string, error) {
	for _, col := range knownColumns {
		resolved, err := m.LogicalNameOf(col)
		if err == nil && resolved == logical {
			return col, nil
		}
	}
	return "", &NoColumnForLogical{Logical: logical, Table: table}
}

// SnakeToCamelRule converts snake_case column names (e.g. role_id) into
// upper-camel logical names (e.g. RoleID), the default rule new
// NameMappings are seeded with.
type SnakeToCamelRule struct{}

// commonInitialisms mirrors the small set of acronyms the teacher's
// schema touches most often (ID, URL) so that camel-casing reads
// naturally instead of producing "Id"/"Url".
var commonInitialisms = map[string]string{
	"id":  "ID",
	"url": "URL",
	"api": "API",
}

func (SnakeToCamelRule) ColumnToLogical(column string) (string, bool) {
	if column == "" {
		return "", false
	}
	parts := strings.Split(column, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if up, ok := commonInitialisms[strings.ToLower(p)]; ok {
			sb.WriteString(up)
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			sb.WriteString(strings.ToLower(p[1:]))
		}
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}
