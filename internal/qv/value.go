// Package qv implements the Value & Type Bridge: an ordered sum of
// primitive SQL-compatible values, a closed conversion graph between
// them, and null semantics that never silently upcast to a non-null
// value.
package qv

import (
	"fmt"
	"time"
)

// Datatype is the closed set of SQL-compatible value kinds a Value can
// carry.
type Datatype int

const (
	String Datatype = iota
	Int
	Long
	Double
	Bool
	Date
	Time
	DateTime
)

func (d Datatype) String() string {
	switch d {
	case String:
		return "String"
	case Int:
		return "Int"
	case Long:
		return "Long"
	case Double:
		return "Double"
	case Bool:
		return "Bool"
	case Date:
		return "Date"
	case Time:
		return "Time"
	case DateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("Datatype(%d)", int(d))
	}
}

// UncastableValue reports that no conversion edge exists (or the edge
// exists but the payload could not be converted) between two datatypes.
type UncastableValue struct {
	From, To Datatype
	Cause    error
}

func (e *UncastableValue) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot cast %s to %s: %v", e.From, e.To, e.Cause)
	}
	return fmt.Sprintf("cannot cast %s to %s", e.From, e.To)
}

func (e *UncastableValue) Unwrap() error { return e.Cause }

// Value is an immutable tagged record: a datatype plus its payload, or
// a null marker for that datatype. A Null(T) value is never upcast
// silently to a non-null value — CastTo always preserves the null flag.
type Value struct {
	dt      Datatype
	isNull  bool
	payload any
}

// New constructs a non-null Value of dt from a raw payload. The caller
// is responsible for passing a payload matching dt's Go representation
// (string, int64, float64, bool, or time.Time); New does not itself
// cast between Go types.
func New(dt Datatype, payload any) Value {
	return Value{dt: dt, payload: payload}
}

// NullOf constructs a null Value carrying datatype dt.
func NullOf(dt Datatype) Value {
	return Value{dt: dt, isNull: true}
}

// Datatype reports the value's datatype tag.
func (v Value) Datatype() Datatype { return v.dt }

// IsNull reports whether v is the null variant of its datatype.
func (v Value) IsNull() bool { return v.isNull }

// Raw returns the underlying Go payload. It is meaningless when IsNull
// is true.
func (v Value) Raw() any { return v.payload }

// ConversionReliability labels an edge in the static conversion graph.
type ConversionReliability int

const (
	// Perfect conversions never lose information (e.g. Int -> Long).
	Perfect ConversionReliability = iota
	// Lossy conversions may lose precision or truncate (e.g. Double -> Int).
	Lossy
	// NoConversion marks the absence of an edge.
	NoConversion
)

type convertFunc func(any) (any, error)

type edge struct {
	reliability ConversionReliability
	convert     convertFunc
}

// conversionGraph[from][to] describes how (and how reliably) a payload
// of datatype `from` converts to datatype `to`. Absence of an entry
// means NoConversion.
var conversionGraph = map[Datatype]map[Datatype]edge{}

func init() {
	reg := func(from, to Datatype, rel ConversionReliability, fn convertFunc) {
		if conversionGraph[from] == nil {
			conversionGraph[from] = map[Datatype]edge{}
		}
		conversionGraph[from][to] = edge{reliability: rel, convert: fn}
	}

	identity := func(v any) (any, error) { return v, nil }
	for _, dt := range []Datatype{String, Int, Long, Double, Bool, Date, Time, DateTime} {
		reg(dt, dt, Perfect, identity)
	}

	reg(Int, Long, Perfect, func(v any) (any, error) { return int64(v.(int64)), nil })
	reg(Long, Int, Lossy, func(v any) (any, error) {
		l := v.(int64)
		if l > 2147483647 || l < -2147483648 {
			return nil, fmt.Errorf("value %d overflows Int", l)
		}
		return l, nil
	})
	reg(Int, Double, Perfect, func(v any) (any, error) { return float64(v.(int64)), nil })
	reg(Long, Double, Lossy, func(v any) (any, error) { return float64(v.(int64)), nil })
	reg(Double, Int, Lossy, func(v any) (any, error) { return int64(v.(float64)), nil })
	reg(Double, Long, Lossy, func(v any) (any, error) { return int64(v.(float64)), nil })

	reg(Bool, Int, Perfect, func(v any) (any, error) {
		if v.(bool) {
			return int64(1), nil
		}
		return int64(0), nil
	})
	reg(Int, Bool, Lossy, func(v any) (any, error) { return v.(int64) != 0, nil })

	reg(Int, String, Perfect, func(v any) (any, error) { return fmt.Sprintf("%d", v.(int64)), nil })
	reg(Long, String, Perfect, func(v any) (any, error) { return fmt.Sprintf("%d", v.(int64)), nil })
	reg(Double, String, Perfect, func(v any) (any, error) { return fmt.Sprintf("%v", v.(float64)), nil })
	reg(Bool, String, Perfect, func(v any) (any, error) { return fmt.Sprintf("%v", v.(bool)), nil })

	reg(String, Int, Lossy, func(v any) (any, error) {
		var i int64
		if _, err := fmt.Sscanf(v.(string), "%d", &i); err != nil {
			return nil, err
		}
		return i, nil
	})
	reg(String, Long, Lossy, func(v any) (any, error) {
		var i int64
		if _, err := fmt.Sscanf(v.(string), "%d", &i); err != nil {
			return nil, err
		}
		return i, nil
	})
	reg(String, Double, Lossy, func(v any) (any, error) {
		var f float64
		if _, err := fmt.Sscanf(v.(string), "%g", &f); err != nil {
			return nil, err
		}
		return f, nil
	})

	reg(Date, DateTime, Perfect, func(v any) (any, error) { return v.(time.Time), nil })
	reg(DateTime, Date, Lossy, func(v any) (any, error) {
		t := v.(time.Time)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	})
	reg(Time, DateTime, Lossy, func(v any) (any, error) { return v.(time.Time), nil })
	reg(DateTime, Time, Lossy, func(v any) (any, error) { return v.(time.Time), nil })
	reg(Date, String, Perfect, func(v any) (any, error) { return v.(time.Time).Format("2006-01-02"), nil })
	reg(DateTime, String, Perfect, func(v any) (any, error) { return v.(time.Time).Format("2006-01-02 15:04:05"), nil })
	reg(Time, String, Perfect, func(v any) (any, error) { return v.(time.Time).Format("15:04:05"), nil })
}

// CastTo converts v to the target datatype. Applied to a value already
// of the target datatype it is the identity. Null values cast freely
// between any two datatypes reachable in the conversion graph: the tag
// changes but the null-ness is preserved.
func (v Value) CastTo(target Datatype) (Value, error) {
	if v.dt == target {
		return v, nil
	}

	row, ok := conversionGraph[v.dt]
	if !ok {
		return Value{}, &UncastableValue{From: v.dt, To: target}
	}
	e, ok := row[target]
	if !ok {
		return Value{}, &UncastableValue{From: v.dt, To: target}
	}

	if v.isNull {
		return Value{dt: target, isNull: true}, nil
	}

	converted, err := e.convert(v.payload)
	if err != nil {
		return Value{}, &UncastableValue{From: v.dt, To: target, Cause: err}
	}
	return Value{dt: target, payload: converted}, nil
}

// MostReliableCastTo behaves like CastTo but is provided for callers
// that want to express "cast to any SQL-compatible type" intent at the
// call site; the conversion graph already picks the only (hence most
// reliable) path between two datatypes, so this is an alias kept for
// readability at call sites that reason about reliability explicitly.
func (v Value) MostReliableCastTo(target Datatype) (Value, ConversionReliability, error) {
	if v.dt == target {
		return v, Perfect, nil
	}
	row, ok := conversionGraph[v.dt]
	if !ok {
		return Value{}, NoConversion, &UncastableValue{From: v.dt, To: target}
	}
	e, ok := row[target]
	if !ok {
		return Value{}, NoConversion, &UncastableValue{From: v.dt, To: target}
	}
	out, err := v.CastTo(target)
	if err != nil {
		return Value{}, NoConversion, err
	}
	return out, e.reliability, nil
}

// Describe renders a single-quoted literal description of v suitable
// for debug rendering (qerrors). Null values render as the bare word
// NULL with no quotes.
func (v Value) Describe() string {
	if v.isNull {
		return "NULL"
	}
	switch v.dt {
	case String, Date, Time, DateTime:
		return fmt.Sprintf("'%v'", v.payload)
	default:
		return fmt.Sprintf("%v", v.payload)
	}
}
