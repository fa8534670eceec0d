package clause

import (
	"strings"
	"testing"

	"smf/internal/qv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersCol(name string, dt qv.Datatype) ColumnRef {
	return ColumnRef{Table: "users", Column: name, Datatype: dt}
}

// property 1: |C.values()| == number of '?' in C.to_sql()
func countPlaceholders(sql string) int {
	return strings.Count(sql, "?")
}

func TestComparisonPlaceholderCountMatchesValues(t *testing.T) {
	c := Comparison{Left: Col(usersCol("name", qv.String)), Op: EQ, Right: Val(qv.New(qv.String, "alice"))}
	sql, err := c.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "users.name <=> ?", sql)
	assert.Equal(t, countPlaceholders(sql), len(c.Values()))
	assert.Equal(t, []qv.Value{qv.New(qv.String, "alice")}, c.Values())
}

func TestComparisonNonEQNullIsParseError(t *testing.T) {
	c := Comparison{Left: Col(usersCol("name", qv.String)), Op: GT, Right: Val(qv.NullOf(qv.String))}
	_, err := c.ToSQL()
	require.Error(t, err)
}

func TestComparisonEQNullIsOK(t *testing.T) {
	c := Comparison{Left: Col(usersCol("name", qv.String)), Op: EQ, Right: Val(qv.NullOf(qv.String))}
	sql, err := c.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, "<=>")
}

// property 2
func TestCombinedAndEmitsFlatSQLAndOrderedValues(t *testing.T) {
	a := Comparison{Left: Col(usersCol("a", qv.Int)), Op: EQ, Right: Val(qv.New(qv.Int, int64(1)))}
	b := Comparison{Left: Col(usersCol("b", qv.Int)), Op: EQ, Right: Val(qv.New(qv.Int, int64(2)))}
	c := Comparison{Left: Col(usersCol("c", qv.Int)), Op: EQ, Right: Val(qv.New(qv.Int, int64(3)))}

	combined, err := NewCombined(AND, a, b, c)
	require.NoError(t, err)

	sql, err := combined.ToSQL()
	require.NoError(t, err)

	aSQL, _ := a.ToSQL()
	bSQL, _ := b.ToSQL()
	cSQL, _ := c.ToSQL()
	assert.Equal(t, "("+aSQL+" AND "+bSQL+" AND "+cSQL+")", sql)

	values := combined.Values()
	require.Len(t, values, 3)
	assert.Equal(t, int64(1), values[0].Raw())
	assert.Equal(t, int64(2), values[1].Raw())
	assert.Equal(t, int64(3), values[2].Raw())
}

func TestCombinedSingleChildCollapses(t *testing.T) {
	a := IsNull{Col: usersCol("name", qv.String)}
	combined, err := NewCombined(AND, a)
	require.NoError(t, err)
	sql, err := combined.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "users.name IS NULL", sql)
}

// property 7
func TestXORRequiresExactlyTwoChildren(t *testing.T) {
	a := IsNull{Col: usersCol("a", qv.Int)}
	b := IsNull{Col: usersCol("b", qv.Int)}
	c := IsNull{Col: usersCol("c", qv.Int)}

	_, err := NewCombined(XOR, a, b, c)
	require.Error(t, err)

	_, err = NewCombined(XOR, a, b)
	require.NoError(t, err)
}

func TestEmptyCombinedErrors(t *testing.T) {
	_, err := NewCombined(AND)
	require.Error(t, err)
}

// property 8
func TestEmptyInEmitsFalseLiteral(t *testing.T) {
	in := In{Probe: Col(usersCol("id", qv.Int))}
	sql, err := in.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "0", sql)
	assert.Empty(t, in.Values())
}

func TestInWithThreeValues(t *testing.T) {
	in := In{
		Probe: Col(usersCol("name", qv.String)),
		Set: []Operand{
			Val(qv.New(qv.String, "a")),
			Val(qv.New(qv.String, "b")),
			Val(qv.New(qv.String, "c")),
		},
	}
	sql, err := in.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "users.name IN (?, ?, ?)", sql)
	values := in.Values()
	require.Len(t, values, 3)
	assert.Equal(t, "a", values[0].Raw())
	assert.Equal(t, "b", values[1].Raw())
	assert.Equal(t, "c", values[2].Raw())
}

// property 10
func TestToWhereClauseEmptyIsEmpty(t *testing.T) {
	empty := OrderBy{} // not a Condition, but shares Clause with empty ToSQL
	// Use Selection-like stand-in: build an always-empty-SQL clause via Combined collapse isn't directly empty;
	// exercise ToWhereClause(nil) and a clause whose ToSQL returns "".
	sql, err := ToWhereClause(nil)
	require.NoError(t, err)
	assert.Equal(t, "", sql)

	sql2, err := ToWhereClause(emptySQLClause{})
	require.NoError(t, err)
	assert.Equal(t, "", sql2)
	_ = empty
}

type emptySQLClause struct{}

func (emptySQLClause) ToSQL() (string, error) { return "", nil }
func (emptySQLClause) Values() []qv.Value     { return nil }

func TestToWhereClauseNonEmpty(t *testing.T) {
	cond := IsNull{Col: usersCol("name", qv.String)}
	sql, err := ToWhereClause(cond)
	require.NoError(t, err)
	assert.Equal(t, " WHERE users.name IS NULL", sql)
}

func TestBetween(t *testing.T) {
	b := Between{
		Probe: Col(usersCol("age", qv.Int)),
		Lo:    Val(qv.New(qv.Int, int64(18))),
		Hi:    Val(qv.New(qv.Int, int64(65))),
	}
	sql, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "users.age BETWEEN ? AND ?", sql)
	assert.Len(t, b.Values(), 2)
}

func TestLikeRejectsNullPattern(t *testing.T) {
	l := Like{Col: usersCol("name", qv.String), Pattern: qv.NullOf(qv.String)}
	_, err := l.ToSQL()
	require.Error(t, err)
}

func TestNotDelegatesValues(t *testing.T) {
	inner := Comparison{Left: Col(usersCol("a", qv.Int)), Op: EQ, Right: Val(qv.New(qv.Int, int64(1)))}
	n := Not{Child: inner}
	sql, err := n.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "NOT (users.a <=> ?)", sql)
	assert.Equal(t, inner.Values(), n.Values())
}
