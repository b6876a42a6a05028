// Package safe converts loosely typed scraped values into nullable SQL values.
// None of the functions panic; anything that cannot be converted comes back
// as an invalid (absent) value.
package safe

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// String formats v as trimmed text. Empty text is absent.
func String(v any) (out sql.NullString) {
	defer func() {
		if recover() != nil {
			out = sql.NullString{}
		}
	}()

	v, ok := unwrap(v)
	if !ok {
		return sql.NullString{}
	}

	var text string
	switch t := v.(type) {
	case string:
		text = t
	case []byte:
		text = string(t)
	case fmt.Stringer:
		text = t.String()
	case float32:
		text = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		text = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		text = fmt.Sprint(t)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: text, Valid: true}
}

// Int converts v to an integer. Floats are truncated toward zero; strings must
// hold a base-10 integer literal.
func Int(v any) (out sql.NullInt64) {
	defer func() {
		if recover() != nil {
			out = sql.NullInt64{}
		}
	}()

	v, ok := unwrap(v)
	if !ok {
		return sql.NullInt64{}
	}

	switch t := v.(type) {
	case bool:
		if t {
			return sql.NullInt64{Int64: 1, Valid: true}
		}
		return sql.NullInt64{Int64: 0, Valid: true}
	case string:
		return parseInt(t)
	case []byte:
		return parseInt(string(t))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sql.NullInt64{Int64: rv.Int(), Valid: true}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return sql.NullInt64{}
		}
		return sql.NullInt64{Int64: int64(u), Valid: true}
	case reflect.Float32, reflect.Float64:
		return truncate(rv.Float())
	case reflect.String:
		return parseInt(rv.String())
	}
	return sql.NullInt64{}
}

// Float converts v to a float64.
func Float(v any) (out sql.NullFloat64) {
	defer func() {
		if recover() != nil {
			out = sql.NullFloat64{}
		}
	}()

	v, ok := unwrap(v)
	if !ok {
		return sql.NullFloat64{}
	}

	switch t := v.(type) {
	case bool:
		if t {
			return sql.NullFloat64{Float64: 1, Valid: true}
		}
		return sql.NullFloat64{Float64: 0, Valid: true}
	case string:
		return parseFloat(t)
	case []byte:
		return parseFloat(string(t))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sql.NullFloat64{Float64: float64(rv.Int()), Valid: true}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return sql.NullFloat64{Float64: float64(rv.Uint()), Valid: true}
	case reflect.Float32, reflect.Float64:
		return sql.NullFloat64{Float64: rv.Float(), Valid: true}
	case reflect.String:
		return parseFloat(rv.String())
	}
	return sql.NullFloat64{}
}

// unwrap strips pointers and driver.Valuer wrappers (sql.Null*), reporting
// false when nothing is left.
func unwrap(v any) (any, bool) {
	for i := 0; i < 8; i++ {
		if v == nil {
			return nil, false
		}
		if valuer, ok := v.(driver.Valuer); ok {
			val, err := valuer.Value()
			if err != nil {
				return nil, false
			}
			// Valuers that return themselves would loop forever.
			if reflect.TypeOf(val) == reflect.TypeOf(v) {
				return val, true
			}
			v = val
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v, true
		}
		if rv.IsNil() {
			return nil, false
		}
		v = rv.Elem().Interface()
	}
	return nil, false
}

func parseInt(s string) sql.NullInt64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func parseFloat(s string) sql.NullFloat64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func truncate(f float64) sql.NullInt64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullInt64{}
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(t), Valid: true}
}
