package query

import (
	"testing"

	"smf/internal/clause"
	"smf/internal/qv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5 — delete with join, delete_from_joined = true.
func TestBuildDeleteS5(t *testing.T) {
	users := newTestTable("users")
	joins := clause.JoinList{{
		Kind:        clause.InnerJoin,
		JoinedTable: "roles",
		Condition:   clause.Comparison{Left: clause.Col(col("users", "role_id", qv.Int)), Op: clause.EQ, Right: clause.Col(col("roles", "id", qv.Int))},
	}}
	where := clause.Comparison{Left: clause.Col(col("roles", "name", qv.String)), Op: clause.EQ, Right: clause.Val(qv.New(qv.String, "guest"))}

	sql, values, err := buildDelete(users, joins, []string{"roles"}, where, true)
	require.NoError(t, err)
	assert.Equal(t, "DELETE users, roles FROM users INNER JOIN roles ON users.role_id <=> roles.id WHERE roles.name <=> ?", sql)
	assert.Equal(t, []qv.Value{qv.New(qv.String, "guest")}, values)
}

func TestBuildDeleteWithoutDeleteFromJoined(t *testing.T) {
	users := newTestTable("users")
	sql, values, err := buildDelete(users, nil, []string{"roles"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "DELETE users FROM users", sql)
	assert.Empty(t, values)
}
