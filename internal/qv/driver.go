package qv

import (
	"fmt"
	"strconv"
	"time"
)

// Arg returns v's payload in the shape database/sql expects for a
// bind parameter: nil for a null value, the raw payload otherwise.
func (v Value) Arg() any {
	if v.isNull {
		return nil
	}
	return v.payload
}

// FromDriver builds a Value of the declared datatype dt from a raw
// value scanned out of *sql.Rows (via an any-typed Scan destination).
// go-sql-driver/mysql hands back int64, float64, bool, []byte, or
// time.Time depending on the column and DSN options; FromDriver
// normalises whichever shape arrives into dt's Go representation.
func FromDriver(dt Datatype, raw any) (Value, error) {
	if raw == nil {
		return NullOf(dt), nil
	}

	switch dt {
	case String:
		return New(String, asString(raw)), nil
	case Int, Long:
		i, err := asInt64(raw)
		if err != nil {
			return Value{}, err
		}
		return New(dt, i), nil
	case Double:
		f, err := asFloat64(raw)
		if err != nil {
			return Value{}, err
		}
		return New(Double, f), nil
	case Bool:
		b, err := asBool(raw)
		if err != nil {
			return Value{}, err
		}
		return New(Bool, b), nil
	case Date, Time, DateTime:
		t, err := asTime(dt, raw)
		if err != nil {
			return Value{}, err
		}
		return New(dt, t), nil
	default:
		return Value{}, fmt.Errorf("qv: unknown datatype %s", dt)
	}
}

// GuessFromDriver builds a Value when no known schema column matched
// the result-set column, inferring a Datatype from raw's Go runtime
// type (database/sql's own default mapping for the driver in use).
func GuessFromDriver(raw any) Value {
	if raw == nil {
		return NullOf(String)
	}
	switch v := raw.(type) {
	case int64:
		return New(Long, v)
	case float64:
		return New(Double, v)
	case bool:
		return New(Bool, v)
	case time.Time:
		return New(DateTime, v)
	case []byte:
		return New(String, string(v))
	case string:
		return New(String, v)
	default:
		return New(String, fmt.Sprintf("%v", v))
	}
}

func asString(raw any) string {
	switch v := raw.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("qv: cannot interpret %T as an integer", raw)
	}
}

func asFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("qv: cannot interpret %T as a float", raw)
	}
}

func asBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		s := string(v)
		if s == "1" {
			return true, nil
		}
		if s == "0" {
			return false, nil
		}
		return strconv.ParseBool(s)
	default:
		return false, fmt.Errorf("qv: cannot interpret %T as a bool", raw)
	}
}

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func asTime(dt Datatype, raw any) (time.Time, error) {
	if t, ok := raw.(time.Time); ok {
		return t, nil
	}

	var s string
	switch v := raw.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return time.Time{}, fmt.Errorf("qv: cannot interpret %T as %s", raw, dt)
	}

	layout := dateTimeLayout
	switch dt {
	case Date:
		layout = dateLayout
	case Time:
		layout = timeLayout
	}
	return time.Parse(layout, s)
}
