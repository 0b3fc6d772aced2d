package repositories

import (
	"cmp"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// compiled LIKE patterns, shared by every evaluation
var likePatterns = cache.New(10*time.Minute, 20*time.Minute)

// Evaluate applies p to a single entity in memory. Conditions read through a
// capability call the capability accessor, so Evaluate also serves predicates
// that no backend could translate.
func Evaluate[T any](p Predicate, entity T) (bool, error) {
	return evaluate(p, reflect.ValueOf(&entity).Elem())
}

// Filter keeps the entities that satisfy p.
func Filter[T any](p Predicate, entities []T) ([]T, error) {
	if p == nil {
		return entities, nil
	}
	out := make([]T, 0, len(entities))
	for _, entity := range entities {
		ok, err := Evaluate(p, entity)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, entity)
		}
	}
	return out, nil
}

func evaluate(p Predicate, v reflect.Value) (bool, error) {
	switch node := p.(type) {
	case nil:
		return true, nil
	case QueryCondition:
		actual, err := readField(v, node)
		if err != nil {
			return false, err
		}
		return match(actual, node.Operator, node.Value)
	case AndPredicate:
		for _, operand := range node.Operands {
			ok, err := evaluate(operand, v)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OrPredicate:
		for _, operand := range node.Operands {
			ok, err := evaluate(operand, v)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case NotPredicate:
		if node.Operand == nil {
			return false, nil
		}
		ok, err := evaluate(node.Operand, v)
		return !ok, err
	default:
		return false, errors.Wrapf(UnsupportedExpressionError, "predicate node %T", p)
	}
}

func readField(v reflect.Value, cond QueryCondition) (interface{}, error) {
	if cond.Cast != nil {
		return readThroughCapability(v, cond)
	}

	s := v
	for s.Kind() == reflect.Pointer || s.Kind() == reflect.Interface {
		if s.IsNil() {
			return nil, errors.Wrapf(InvalidDataError, "nil entity reading %s", cond.Field)
		}
		s = s.Elem()
	}
	if s.Kind() != reflect.Struct {
		return nil, errors.Wrapf(InvalidDataError, "%s is not a struct", s.Type())
	}
	sf, ok := s.Type().FieldByName(cond.Field)
	if !ok || !sf.IsExported() {
		return nil, errors.Wrapf(InvalidDataError, "%s has no field %s", s.Type(), cond.Field)
	}
	return s.FieldByIndex(sf.Index).Interface(), nil
}

func readThroughCapability(v reflect.Value, cond QueryCondition) (interface{}, error) {
	c := cond.Cast
	accessor, ok := c.Accessors[cond.Field]
	if !ok {
		return nil, errors.Wrapf(CapabilityError, "%s exposes no field %s", c.Name, cond.Field)
	}

	receiver := v
	if !receiver.Type().Implements(c.Type) {
		if !receiver.CanAddr() || !reflect.PointerTo(receiver.Type()).Implements(c.Type) {
			return nil, errors.Wrapf(CapabilityError, "%s does not implement %s", v.Type(), c.Name)
		}
		receiver = receiver.Addr()
	}
	if (receiver.Kind() == reflect.Pointer || receiver.Kind() == reflect.Interface) && receiver.IsNil() {
		return nil, errors.Wrapf(InvalidDataError, "nil entity reading %s", cond.Field)
	}
	return receiver.MethodByName(accessor).Call(nil)[0].Interface(), nil
}

func match(actual interface{}, operator string, expected interface{}) (bool, error) {
	switch operator {
	case OpEQ:
		return equalValues(actual, expected), nil
	case OpNEQ:
		return !equalValues(actual, expected), nil
	case OpGT, OpGTE, OpLT, OpLTE:
		c, err := compareValues(actual, expected)
		if err != nil {
			return false, err
		}
		switch operator {
		case OpGT:
			return c > 0, nil
		case OpGTE:
			return c >= 0, nil
		case OpLT:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case OpIN:
		values := reflect.ValueOf(expected)
		if values.Kind() != reflect.Slice && values.Kind() != reflect.Array {
			return false, errors.Wrapf(InvalidDataError, "IN expects a slice, got %T", expected)
		}
		for i := 0; i < values.Len(); i++ {
			if equalValues(actual, values.Index(i).Interface()) {
				return true, nil
			}
		}
		return false, nil
	case OpLIKE:
		s, ok := stringValue(actual)
		pattern, patternOK := stringValue(expected)
		if !ok || !patternOK {
			return false, errors.Wrapf(InvalidDataError, "LIKE expects strings, got %T and %T", actual, expected)
		}
		re, err := likePattern(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	default:
		return false, errors.Wrapf(UnsupportedExpressionError, "operator %q", operator)
	}
}

// LikeRegexp translates an SQL LIKE pattern into an anchored regular
// expression. Matching ignores case the way SQLite's LIKE does for ASCII text.
func LikeRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func likePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := likePatterns.Get(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(LikeRegexp(pattern))
	if err != nil {
		return nil, errors.Wrapf(InvalidDataError, "LIKE pattern %q: %v", pattern, err)
	}
	likePatterns.SetDefault(pattern, re)
	return re, nil
}

func indirect(value interface{}) interface{} {
	v := reflect.ValueOf(value)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func equalValues(a, b interface{}) bool {
	a, b = indirect(a), indirect(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) {
		c, ok := compareNumbers(a, b)
		return ok && c == 0
	}
	if x, ok := stringValue(a); ok {
		y, ok := stringValue(b)
		return ok && x == y
	}
	if x, ok := a.(time.Time); ok {
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.Bool && bv.Kind() == reflect.Bool {
		return av.Bool() == bv.Bool()
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b interface{}) (int, error) {
	a, b = indirect(a), indirect(b)
	if c, ok := compareNumbers(a, b); ok {
		return c, nil
	}
	if x, ok := stringValue(a); ok {
		if y, ok := stringValue(b); ok {
			return strings.Compare(x, y), nil
		}
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}
	return 0, errors.Wrapf(InvalidDataError, "cannot order %T against %T", a, b)
}

type numberKind int

const (
	notNumber numberKind = iota
	signedNumber
	unsignedNumber
	floatNumber
)

func kindOfNumber(v reflect.Value) numberKind {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signedNumber
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsignedNumber
	case reflect.Float32, reflect.Float64:
		return floatNumber
	}
	return notNumber
}

func isNumber(value interface{}) bool {
	return kindOfNumber(reflect.ValueOf(value)) != notNumber
}

// compareNumbers orders two numeric values. Integers compare exactly, whatever
// their width or signedness; float64 is used only when either side is a float.
func compareNumbers(a, b interface{}) (int, bool) {
	x, y := reflect.ValueOf(a), reflect.ValueOf(b)
	xk, yk := kindOfNumber(x), kindOfNumber(y)
	switch {
	case xk == notNumber || yk == notNumber:
		return 0, false
	case xk == floatNumber || yk == floatNumber:
		return cmp.Compare(toFloat(x, xk), toFloat(y, yk)), true
	case xk == signedNumber && yk == signedNumber:
		return cmp.Compare(x.Int(), y.Int()), true
	case xk == unsignedNumber && yk == unsignedNumber:
		return cmp.Compare(x.Uint(), y.Uint()), true
	case xk == signedNumber:
		if x.Int() < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(x.Int()), y.Uint()), true
	default:
		if y.Int() < 0 {
			return 1, true
		}
		return cmp.Compare(x.Uint(), uint64(y.Int())), true
	}
}

func toFloat(v reflect.Value, kind numberKind) float64 {
	switch kind {
	case signedNumber:
		return float64(v.Int())
	case unsignedNumber:
		return float64(v.Uint())
	}
	return v.Float()
}

func stringValue(value interface{}) (string, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.String {
		return v.String(), true
	}
	return "", false
}
