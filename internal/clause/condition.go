package clause

import (
	"strings"

	"smf/internal/qerrors"
	"smf/internal/qv"
)

// Operator enumerates the comparison operators a Comparison condition
// may use. Only EQ tolerates a null operand.
type Operator int

const (
	EQ Operator = iota // NULL-safe equality, emits <=>
	NE
	LT
	LE
	GT
	GE
)

func (op Operator) token() string {
	switch op {
	case EQ:
		return "<=>"
	case NE:
		return "<>"
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	default:
		return "?"
	}
}

func (op Operator) String() string {
	switch op {
	case EQ:
		return "EQ"
	case NE:
		return "NE"
	case LT:
		return "LT"
	case LE:
		return "LE"
	case GT:
		return "GT"
	case GE:
		return "GE"
	default:
		return "unknown"
	}
}

// Comparison emits "<left> <op> <right>" using the dialect tokens
// (<=>, <>, <, <=, >, >=). When either side is a value it is rendered
// as a placeholder and cast to the opposite side's column datatype
// before being bound.
type Comparison struct {
	Left  Operand
	Op    Operator
	Right Operand
}

var _ Clause = Comparison{}

func (c Comparison) operandsNull() bool {
	return (!c.Left.IsColumn() && c.Left.Value().IsNull()) ||
		(!c.Right.IsColumn() && c.Right.Value().IsNull())
}

func (c Comparison) ToSQL() (string, error) {
	if c.Op != EQ && c.operandsNull() {
		return "", qerrors.NullInOperator(c.Op.String())
	}
	var values []qv.Value
	left, right, err := c.render(&values)
	if err != nil {
		return "", err
	}
	return left + " " + c.Op.token() + " " + right, nil
}

// render emits both sides without the surrounding token, used by
// ToSQL. Kept separate so Values() can share the same casting logic
// without re-deriving it.
func (c Comparison) render(values *[]qv.Value) (left, right string, err error) {
	leftDT, leftHas := c.Left.datatypeHint()
	rightDT, rightHas := c.Right.datatypeHint()

	left, err = renderOperand(c.Left, rightDT, rightHas && !c.Left.IsColumn(), values)
	if err != nil {
		return "", "", err
	}
	right, err = renderOperand(c.Right, leftDT, leftHas && !c.Right.IsColumn(), values)
	if err != nil {
		return "", "", err
	}
	return left, right, nil
}

func (c Comparison) Values() []qv.Value {
	if c.Op != EQ && c.operandsNull() {
		return nil
	}
	var values []qv.Value
	_, _, _ = c.render(&values)
	return values
}

// In emits "<probe> IN (v1, v2, ...)". An empty set emits the literal
// false-predicate "0" and binds zero values, preserving truth
// semantics without an empty, invalid parenthesis.
type In struct {
	Probe Operand
	Set   []Operand
}

var _ Clause = In{}

func (c In) ToSQL() (string, error) {
	if len(c.Set) == 0 {
		return "0", nil
	}
	probeDT, probeHas := c.Probe.datatypeHint()

	probeSQL, err := renderOperandNoValue(c.Probe)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(c.Set))
	var dummy []qv.Value
	for _, item := range c.Set {
		if item.IsColumn() {
			parts = append(parts, item.Column().Qualified())
			continue
		}
		if probeHas {
			if _, castErr := item.Value().CastTo(probeDT); castErr != nil {
				return "", castErr
			}
		}
		tok, renderErr := renderOperand(item, probeDT, probeHas, &dummy)
		if renderErr != nil {
			return "", renderErr
		}
		parts = append(parts, tok)
	}
	return probeSQL + " IN (" + strings.Join(parts, ", ") + ")", nil
}

func renderOperandNoValue(o Operand) (string, error) {
	if o.IsColumn() {
		return o.Column().Qualified(), nil
	}
	return "?", nil
}

func (c In) Values() []qv.Value {
	if len(c.Set) == 0 {
		return nil
	}
	var values []qv.Value
	if !c.Probe.IsColumn() {
		values = append(values, c.Probe.Value())
	}
	probeDT, probeHas := c.Probe.datatypeHint()
	for _, item := range c.Set {
		if item.IsColumn() {
			continue
		}
		v := item.Value()
		if probeHas {
			if casted, err := v.CastTo(probeDT); err == nil {
				v = casted
			}
		}
		values = append(values, v)
	}
	return values
}

// IsNull emits "<col> IS NULL" and binds no values.
type IsNull struct {
	Col ColumnRef
}

var _ Clause = IsNull{}

func (c IsNull) ToSQL() (string, error) { return c.Col.Qualified() + " IS NULL", nil }
func (c IsNull) Values() []qv.Value     { return nil }

// Between emits "<probe> BETWEEN <lo> AND <hi>" (or NOT BETWEEN when
// Inverted). Datatype specialisation is taken from the first column
// appearing among probe/lo/hi.
type Between struct {
	Probe, Lo, Hi Operand
	Inverted      bool
}

var _ Clause = Between{}

func (c Between) datatype() (qv.Datatype, bool) {
	for _, o := range []Operand{c.Probe, c.Lo, c.Hi} {
		if dt, ok := o.datatypeHint(); ok {
			return dt, true
		}
	}
	return 0, false
}

func (c Between) ToSQL() (string, error) {
	dt, has := c.datatype()
	var values []qv.Value
	probeSQL, err := renderOperand(c.Probe, dt, has && !c.Probe.IsColumn(), &values)
	if err != nil {
		return "", err
	}
	loSQL, err := renderOperand(c.Lo, dt, has && !c.Lo.IsColumn(), &values)
	if err != nil {
		return "", err
	}
	hiSQL, err := renderOperand(c.Hi, dt, has && !c.Hi.IsColumn(), &values)
	if err != nil {
		return "", err
	}
	kw := "BETWEEN"
	if c.Inverted {
		kw = "NOT BETWEEN"
	}
	return probeSQL + " " + kw + " " + loSQL + " AND " + hiSQL, nil
}

func (c Between) Values() []qv.Value {
	dt, has := c.datatype()
	var values []qv.Value
	for _, o := range []Operand{c.Probe, c.Lo, c.Hi} {
		if o.IsColumn() {
			continue
		}
		v := o.Value()
		if has {
			if casted, err := v.CastTo(dt); err == nil {
				v = casted
			}
		}
		values = append(values, v)
	}
	return values
}

// Like emits "<col> LIKE ?" (or NOT LIKE when Inverted). Wildcards %
// and _ pass through verbatim in Pattern. A null Pattern is a parse
// error.
type Like struct {
	Col      ColumnRef
	Pattern  qv.Value
	Inverted bool
}

var _ Clause = Like{}

func (c Like) ToSQL() (string, error) {
	if c.Pattern.IsNull() {
		return "", &qerrors.ClauseParseError{Reason: "LIKE pattern must not be null"}
	}
	kw := "LIKE"
	if c.Inverted {
		kw = "NOT LIKE"
	}
	return c.Col.Qualified() + " " + kw + " ?", nil
}

func (c Like) Values() []qv.Value {
	if c.Pattern.IsNull() {
		return nil
	}
	return []qv.Value{c.Pattern}
}

// LikeColumn emits "? LIKE CONCAT(<prefix>, <col>, <suffix>)": the
// probe value is matched against a per-row template built from the
// target column. A null probe is a parse error.
type LikeColumn struct {
	Probe          qv.Value
	Col            ColumnRef
	Prefix, Suffix string
	Inverted       bool
}

var _ Clause = LikeColumn{}

func (c LikeColumn) ToSQL() (string, error) {
	if c.Probe.IsNull() {
		return "", &qerrors.ClauseParseError{Reason: "LIKE probe must not be null"}
	}
	kw := "LIKE"
	if c.Inverted {
		kw = "NOT LIKE"
	}
	return "? " + kw + " CONCAT('" + escapeSingleQuotes(c.Prefix) + "', " + c.Col.Qualified() + ", '" + escapeSingleQuotes(c.Suffix) + "')", nil
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (c LikeColumn) Values() []qv.Value {
	if c.Probe.IsNull() {
		return nil
	}
	return []qv.Value{c.Probe}
}

// Not emits "NOT (<child>)", delegating values unchanged.
type Not struct {
	Child Clause
}

var _ Clause = Not{}

func (c Not) ToSQL() (string, error) {
	sql, err := c.Child.ToSQL()
	if err != nil {
		return "", err
	}
	return "NOT (" + sql + ")", nil
}

func (c Not) Values() []qv.Value { return c.Child.Values() }

// CombineOp is the boolean operator joining a Combined condition's
// children.
type CombineOp int

const (
	AND CombineOp = iota
	OR
	XOR
)

func (op CombineOp) String() string {
	switch op {
	case AND:
		return "AND"
	case OR:
		return "OR"
	case XOR:
		return "XOR"
	default:
		return "?"
	}
}

// Combined emits "(c1 <op> c2 <op> c3 ...)". An empty Children list is
// a construction-time error. A single child collapses to that child
// with no surrounding parens. XOR is restricted to exactly two
// children.
type Combined struct {
	Op       CombineOp
	Children []Clause
}

var _ Clause = Combined{}

// NewCombined validates arity before returning a usable Combined
// condition, matching the spec's "construction fails before emission"
// contract for XOR arity and empty children.
func NewCombined(op CombineOp, children ...Clause) (Combined, error) {
	c := Combined{Op: op, Children: children}
	if len(children) == 0 {
		return Combined{}, &qerrors.ClauseParseError{Reason: "combined condition requires at least one child"}
	}
	if op == XOR && len(children) != 2 {
		return Combined{}, &qerrors.ClauseParseError{Reason: "XOR requires exactly two children"}
	}
	return c, nil
}

func (c Combined) ToSQL() (string, error) {
	if len(c.Children) == 0 {
		return "", &qerrors.ClauseParseError{Reason: "combined condition requires at least one child"}
	}
	if c.Op == XOR && len(c.Children) != 2 {
		return "", &qerrors.ClauseParseError{Reason: "XOR requires exactly two children"}
	}
	if len(c.Children) == 1 {
		return c.Children[0].ToSQL()
	}
	parts := make([]string, 0, len(c.Children))
	for _, child := range c.Children {
		sql, err := child.ToSQL()
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return "(" + strings.Join(parts, " "+c.Op.String()+" ") + ")", nil
}

func (c Combined) Values() []qv.Value {
	var values []qv.Value
	for _, child := range c.Children {
		values = append(values, child.Values()...)
	}
	return values
}

// ToWhereClause renders cond's SQL prefixed by " WHERE "; if cond is
// nil or its SQL is empty, it returns the empty string (no stray
// " WHERE ").
func ToWhereClause(cond Clause) (string, error) {
	if cond == nil {
		return "", nil
	}
	sql, err := cond.ToSQL()
	if err != nil {
		return "", err
	}
	if sql == "" {
		return "", nil
	}
	return " WHERE " + sql, nil
}

// WhereValues returns cond's bound values, or nil if cond is nil.
func WhereValues(cond Clause) []qv.Value {
	if cond == nil {
		return nil
	}
	return cond.Values()
}
