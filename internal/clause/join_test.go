package clause

import (
	"testing"

	"smf/internal/qv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinEmitsKindAndCondition(t *testing.T) {
	cond := Comparison{
		Left:  Col(ColumnRef{Table: "users", Column: "role_id", Datatype: qv.Int}),
		Op:    EQ,
		Right: Col(ColumnRef{Table: "roles", Column: "id", Datatype: qv.Int}),
	}
	j := Join{Kind: InnerJoin, JoinedTable: "roles", Condition: cond}
	sql, err := j.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, " INNER JOIN roles ON users.role_id <=> roles.id", sql)
	assert.Empty(t, j.Values())
}

func TestJoinListConcatenatesInOrder(t *testing.T) {
	j1 := Join{Kind: InnerJoin, JoinedTable: "roles", Condition: IsNull{Col: usersCol("a", qv.Int)}}
	j2 := Join{Kind: LeftJoin, JoinedTable: "teams", Condition: IsNull{Col: usersCol("b", qv.Int)}}
	sql, err := JoinList{j1, j2}.ToSQL()
	require.NoError(t, err)
	s1, _ := j1.ToSQL()
	s2, _ := j2.ToSQL()
	assert.Equal(t, s1+s2, sql)
}
