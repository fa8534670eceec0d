package clause

import "smf/internal/qv"

// JoinKind enumerates the supported join kinds.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
)

func (k JoinKind) token() string {
	switch k {
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	default:
		return "INNER"
	}
}

// Join emits " <kind> JOIN <joined-table> ON <condition-sql>". The
// condition is any Clause and participates in the placeholder/value
// pipeline like any other condition. Building a Join from a pair of
// tables (resolving the reference set via the schema, OR-combining
// when more than one reference exists) is the responsibility of
// qschema, which has access to the schema model; Join itself is a
// plain record so that package clause has no dependency on qschema.
type Join struct {
	Kind        JoinKind
	JoinedTable string
	Condition   Clause
}

var _ Clause = Join{}

func (j Join) ToSQL() (string, error) {
	condSQL, err := j.Condition.ToSQL()
	if err != nil {
		return "", err
	}
	return " " + j.Kind.token() + " JOIN " + j.JoinedTable + " ON " + condSQL, nil
}

func (j Join) Values() []qv.Value {
	return j.Condition.Values()
}

// JoinList renders an ordered sequence of joins by concatenating their
// SQL and values in order, matching the "composite clauses delegate to
// their children" contract.
type JoinList []Join

func (jl JoinList) ToSQL() (string, error) {
	var sb []byte
	for _, j := range jl {
		sql, err := j.ToSQL()
		if err != nil {
			return "", err
		}
		sb = append(sb, sql...)
	}
	return string(sb), nil
}

func (jl JoinList) Values() []qv.Value {
	var values []qv.Value
	for _, j := range jl {
		values = append(values, j.Values()...)
	}
	return values
}
