package core

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrIncomparable is returned by Compare for values without a natural order.
var ErrIncomparable = errors.New("golem: values are not comparable")

var timeType = reflect.TypeOf(time.Time{})

// Ordered reports whether v has a natural order usable by GT, LT and
// BETWEEN: numbers, strings, time.Time, and types with a Cmp or Compare
// method taking their own type (decimal.Decimal, for instance). Pointers
// are dereferenced.
func Ordered(v any) bool {
	rv, ok := indirect(v)
	if !ok {
		return false
	}
	return orderedType(rv.Type())
}

func orderedType(t reflect.Type) bool {
	if t == timeType || compareMethod(t) != nil {
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	}
	return false
}

// Compare returns -1, 0 or +1 as a is less than, equal to, or greater than b.
// Numbers of different kinds compare by value. Other values must share the
// same type.
func Compare(a, b any) (int, error) {
	av, aok := indirect(a)
	bv, bok := indirect(b)
	if !aok || !bok {
		return 0, fmt.Errorf("%w: %T and %T", ErrIncomparable, a, b)
	}
	if isNumber(av.Kind()) && isNumber(bv.Kind()) && av.Type() != timeType {
		return compareNumbers(av, bv), nil
	}
	if av.Type() != bv.Type() {
		return 0, fmt.Errorf("%w: %s and %s", ErrIncomparable, av.Type(), bv.Type())
	}
	if av.Type() == timeType {
		return av.Interface().(time.Time).Compare(bv.Interface().(time.Time)), nil
	}
	if m := compareMethod(av.Type()); m != nil {
		out := av.Method(m.Index).Call([]reflect.Value{bv})
		return sign(out[0].Int()), nil
	}
	if av.Kind() == reflect.String {
		switch x, y := av.String(), bv.String(); {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrIncomparable, av.Type())
}

// Equal reports whether a and b hold the same value, comparing numbers by
// value and ordered types through Compare.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, err := Compare(a, b); err == nil {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func indirect(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// compareMethod finds a method "Cmp(T) int" or "Compare(T) int" on t.
func compareMethod(t reflect.Type) *reflect.Method {
	for _, name := range []string{"Cmp", "Compare"} {
		m, ok := t.MethodByName(name)
		if !ok {
			continue
		}
		mt := m.Type // receiver is In(0)
		if mt.NumIn() == 2 && mt.In(1) == t && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Int {
			return &m
		}
	}
	return nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func compareNumbers(a, b reflect.Value) int {
	switch {
	case a.CanInt() && b.CanInt():
		return sign3(a.Int(), b.Int())
	case a.CanUint() && b.CanUint():
		x, y := a.Uint(), b.Uint()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	x, y := toFloat(a), toFloat(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	}
	return v.Float()
}

func sign3(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func sign(n int64) int { return sign3(n, 0) }
