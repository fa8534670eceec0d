// Package qschema implements the schema model: Table, Column, and
// TableReference, lazily reflected from a live MySQL-family server and
// presented through a bidirectional column-name <-> logical-name
// mapping (internal/namemap).
package qschema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"smf/internal/clause"
	"smf/internal/namemap"
	"smf/internal/qerrors"
)

// ColumnInitialiser reflects a table's columns from the live database.
// Implementations must be side-effect-free to call more than once
// (each Table calls this once and memoises the result, a failure
// included; only a new Table calls it again).
type ColumnInitialiser interface {
	InitColumns(ctx context.Context, db *sql.DB, databaseName, tableName string) ([]*Column, error)
}

// TableReferenceReader reflects the set of foreign-key references from
// one table to another.
type TableReferenceReader interface {
	ReadReferences(ctx context.Context, db *sql.DB, from, to *Table) ([]TableReference, error)
}

// Table is a process-wide schema handle whose column list and
// reference maps are populated on first access. Concurrent readers
// observe either "not yet initialised" or "fully initialised", never a
// partial state: columns are guarded by sync.Once, and each distinct
// (this, other) reference lookup is guarded by its own sync.Once keyed
// in a mutex-protected map.
type Table struct {
	DatabaseName string
	Name         string

	mapping *namemap.NameMapping
	colInit ColumnInitialiser
	refRead TableReferenceReader

	columnsOnce sync.Once
	columnsErr  error
	columns     []*Column

	refMu    sync.Mutex
	refOnces map[string]*refEntry
}

type refEntry struct {
	once sync.Once
	refs []TableReference
	err  error
}

// NewTable constructs a Table bound to its reflection capabilities.
// mapping may be nil, in which case a fresh default NameMapping is
// used.
func NewTable(databaseName, name string, mapping *namemap.NameMapping, colInit ColumnInitialiser, refRead TableReferenceReader) *Table {
	if mapping == nil {
		mapping = namemap.New()
	}
	return &Table{
		DatabaseName: databaseName,
		Name:         name,
		mapping:      mapping,
		colInit:      colInit,
		refRead:      refRead,
		refOnces:     map[string]*refEntry{},
	}
}

// Columns returns the table's ordered column list, reflecting it from
// the database on first call. Idempotent and memoised: subsequent
// calls, even on failure, return the same result without re-querying —
// TableInitialisationFailed leaves the table un-initialised only in
// the sense that the caller may construct a fresh Table to retry (spec
// §7: "the table remains un-initialised so a later call may retry"
// refers to the Table instance as a whole, not a silently-retrying
// memoised call).
func (t *Table) Columns(ctx context.Context, db *sql.DB) ([]*Column, error) {
	t.columnsOnce.Do(func() {
		cols, err := t.colInit.InitColumns(ctx, db, t.DatabaseName, t.Name)
		if err != nil {
			t.columnsErr = &qerrors.TableInitialisationFailed{Table: t.Name, Cause: err}
			return
		}
		for _, c := range cols {
			if c.LogicalName == "" {
				logical, mapErr := t.mapping.LogicalNameOf(c.DBName)
				if mapErr != nil {
					t.columnsErr = &qerrors.NameMappingError{Cause: mapErr}
					return
				}
				c.LogicalName = logical
			}
		}
		t.columns = cols
	})
	return t.columns, t.columnsErr
}

// PrimaryColumn returns the table's primary-key column, or a
// SchemaError{NoPrimaryColumn} if none is marked primary.
func (t *Table) PrimaryColumn(ctx context.Context, db *sql.DB) (*Column, error) {
	cols, err := t.Columns(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.PrimaryKey {
			return c, nil
		}
	}
	return nil, &qerrors.SchemaError{Kind: qerrors.NoPrimaryColumn, Detail: fmt.Sprintf("table %s has no primary column", t.Name)}
}

// FindColumnByDBName looks up a column by its database name,
// case-insensitively.
func (t *Table) FindColumnByDBName(ctx context.Context, db *sql.DB, name string) (*Column, error) {
	cols, err := t.Columns(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if strings.EqualFold(c.DBName, name) {
			return c, nil
		}
	}
	return nil, &qerrors.SchemaError{Kind: qerrors.NoSuchColumn, Detail: fmt.Sprintf("table %s has no column %q", t.Name, name)}
}

// FindColumnByLogicalName looks up a column by its logical name,
// case-insensitively.
func (t *Table) FindColumnByLogicalName(ctx context.Context, db *sql.DB, logical string) (*Column, error) {
	cols, err := t.Columns(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if strings.EqualFold(c.LogicalName, logical) {
			return c, nil
		}
	}
	return nil, &qerrors.SchemaError{Kind: qerrors.NoSuchColumn, Detail: fmt.Sprintf("table %s has no logical column %q", t.Name, logical)}
}

// ReferencesTo returns the (memoised) set of foreign-key references
// from t to other.
func (t *Table) ReferencesTo(ctx context.Context, db *sql.DB, other *Table) ([]TableReference, error) {
	t.refMu.Lock()
	entry, ok := t.refOnces[other.Name]
	if !ok {
		entry = &refEntry{}
		t.refOnces[other.Name] = entry
	}
	t.refMu.Unlock()

	entry.once.Do(func() {
		refs, err := t.refRead.ReadReferences(ctx, db, t, other)
		if err != nil {
			entry.err = &qerrors.TableInitialisationFailed{Table: t.Name, Cause: err}
			return
		}
		entry.refs = refs
	})
	return entry.refs, entry.err
}

// Ref returns a clause.ColumnRef qualifying col with t's name, the
// only place a column's owning table is consulted (per the redesign
// note: columns never hold a back-edge to their table).
func (t *Table) Ref(col *Column) clause.ColumnRef {
	return clause.ColumnRef{Table: t.Name, Column: col.DBName, Datatype: col.Datatype}
}

// AssignmentTarget builds a clause.AssignmentTarget for col, owned by
// t, for use in building a ValueAssignment.
func (t *Table) AssignmentTarget(col *Column) clause.AssignmentTarget {
	return clause.AssignmentTarget{
		Table:         t.Name,
		Column:        col.DBName,
		Datatype:      col.Datatype,
		AutoIncrement: col.AutoIncrement,
		Required:      col.RequiredInInsert(),
	}
}

// RequiredAssignmentTargets returns the AssignmentTarget for every
// column of t that RequiredInInsert reports true for, used by
// ValueAssignment.ToInsertClause's completeness check.
func (t *Table) RequiredAssignmentTargets(ctx context.Context, db *sql.DB) ([]clause.AssignmentTarget, error) {
	cols, err := t.Columns(ctx, db)
	if err != nil {
		return nil, err
	}
	var out []clause.AssignmentTarget
	for _, c := range cols {
		if c.RequiredInInsert() {
			out = append(out, t.AssignmentTarget(c))
		}
	}
	return out, nil
}

// JoinTo builds a clause.Join from t to other, resolving the reference
// set via the schema. When more than one reference exists between the
// two tables, the join condition is an OR-combination over all of
// them.
func (t *Table) JoinTo(ctx context.Context, db *sql.DB, other *Table, kind clause.JoinKind) (clause.Join, error) {
	refs, err := t.ReferencesTo(ctx, db, other)
	if err != nil {
		return clause.Join{}, err
	}
	if len(refs) == 0 {
		return clause.Join{}, &qerrors.SchemaError{
			Kind:   qerrors.NoSuchReferenceBetween,
			Detail: fmt.Sprintf("no reference between %s and %s", t.Name, other.Name),
		}
	}

	children := make([]clause.Clause, 0, len(refs))
	for _, r := range refs {
		children = append(children, clause.Comparison{
			Left:  clause.Col(r.ReferencingTable.Ref(r.ReferencingColumn)),
			Op:    clause.EQ,
			Right: clause.Col(r.ReferencedTable.Ref(r.ReferencedColumn)),
		})
	}

	var cond clause.Clause
	if len(children) == 1 {
		cond = children[0]
	} else {
		combined, err := clause.NewCombined(clause.OR, children...)
		if err != nil {
			return clause.Join{}, err
		}
		cond = combined
	}

	return clause.Join{Kind: kind, JoinedTable: other.Name, Condition: cond}, nil
}
