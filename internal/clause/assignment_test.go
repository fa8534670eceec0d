package clause

import (
	"testing"

	"smf/internal/qv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idTarget() AssignmentTarget {
	return AssignmentTarget{Table: "users", Column: "id", Datatype: qv.Int, AutoIncrement: true}
}

func nameTarget() AssignmentTarget {
	return AssignmentTarget{Table: "users", Column: "name", Datatype: qv.String, Required: true}
}

// property 3
func TestFilterToTableDropsAutoIncrement(t *testing.T) {
	a := NewValueAssignment(false)
	a.Append(idTarget(), Val(qv.New(qv.Int, int64(7))))
	a.Append(nameTarget(), Val(qv.New(qv.String, "bob")))

	filtered := a.FilterToTable("users", true)
	for _, e := range filtered.Entries() {
		assert.Equal(t, "users", e.Target.Table)
		assert.False(t, e.Target.AutoIncrement)
	}
	assert.Len(t, filtered.Entries(), 1)
}

func TestDropNullsOmitsAtAppendTime(t *testing.T) {
	a := NewValueAssignment(true)
	a.Append(nameTarget(), Val(qv.NullOf(qv.String)))
	assert.Empty(t, a.Entries())
}

func TestToSetClausePreservesOrder(t *testing.T) {
	a := NewValueAssignment(false)
	a.Append(AssignmentTarget{Table: "users", Column: "a", Datatype: qv.Int}, Val(qv.New(qv.Int, int64(1))))
	a.Append(AssignmentTarget{Table: "users", Column: "b", Datatype: qv.Int}, Col(usersCol("c", qv.Int)))
	sql, err := a.ToSetClause()
	require.NoError(t, err)
	assert.Equal(t, " SET a=?, b=users.c", sql)
	assert.Equal(t, []qv.Value{qv.New(qv.Int, int64(1))}, a.Values())
}

func TestToInsertClauseRequiresRequiredColumns(t *testing.T) {
	a := NewValueAssignment(false)
	a.Append(idTarget(), Val(qv.New(qv.Int, int64(5))))
	_, err := a.ToInsertClause("users", []AssignmentTarget{nameTarget()})
	require.Error(t, err)

	a.Append(nameTarget(), Val(qv.New(qv.String, "bob")))
	sql, err := a.ToInsertClause("users", []AssignmentTarget{nameTarget()})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id, name) VALUES (?, ?)", sql)
}

// property 11: an update whose filtered set is empty performs no
// query; here we verify the precondition the executor relies on: an
// empty filtered assignment has no entries and an empty SET clause.
func TestEmptyFilteredAssignmentHasNoEntries(t *testing.T) {
	a := NewValueAssignment(false)
	a.Append(AssignmentTarget{Table: "roles", Column: "x", Datatype: qv.Int}, Val(qv.New(qv.Int, int64(1))))
	filtered := a.FilterToTable("users", true)
	assert.Empty(t, filtered.Entries())
	sql, err := filtered.ToSetClause()
	require.NoError(t, err)
	assert.Equal(t, "", sql)
}
