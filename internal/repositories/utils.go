package repositories

import (
	"reflect"

	"github.com/pkg/errors"
)

// UpdateField sets fieldName on input, converting newValue to the field's type.
// A pointer input is modified in place; a struct input is copied and the copy returned.
func UpdateField[T interface{}](input T, fieldName string, newValue interface{}) (T, error) {
	target := reflect.ValueOf(&input).Elem()
	if target.Kind() == reflect.Ptr {
		if target.IsNil() {
			return input, errors.Wrapf(InvalidDataError, "nil %T setting %s", input, fieldName)
		}
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return input, errors.Wrapf(InvalidDataError, "%T is not a struct", input)
	}

	field := target.FieldByName(fieldName)
	switch {
	case !field.IsValid():
		return input, errors.Wrapf(InvalidDataError, "%s has no field %s", target.Type(), fieldName)
	case !field.CanSet():
		return input, errors.Wrapf(InvalidDataError, "%s.%s cannot be set", target.Type(), fieldName)
	case newValue == nil || !reflect.TypeOf(newValue).ConvertibleTo(field.Type()):
		return input, errors.Wrapf(InvalidDataError, "%v does not fit %s.%s", newValue, target.Type(), fieldName)
	}

	field.Set(reflect.ValueOf(newValue).Convert(field.Type()))
	return input, nil
}

// FieldValue reads an exported field of a struct or a pointer to a struct.
func FieldValue(input interface{}, fieldName string) (interface{}, error) {
	val := reflect.ValueOf(input)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, errors.Wrapf(InvalidDataError, "nil %T reading %s", input, fieldName)
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, errors.Wrapf(InvalidDataError, "%T is not a struct", input)
	}
	sf, ok := val.Type().FieldByName(fieldName)
	if !ok || !sf.IsExported() {
		return nil, errors.Wrapf(InvalidDataError, "%s has no field %s", val.Type(), fieldName)
	}
	return val.FieldByIndex(sf.Index).Interface(), nil
}

// IsEmptyValue reports whether value is nil, a nil pointer, or the zero value
// of its type (after one pointer indirection).
func IsEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}

	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return true
		}
		val = val.Elem()
	}

	return val.IsZero()
}

// ByExample builds an equality conjunction from the non-zero exported fields of
// instance. Slices, maps and nested structs other than time values are skipped.
func ByExample[T any](instance T) Predicate {
	if IsEmptyValue(instance) {
		return nil
	}
	val := reflect.ValueOf(instance)
	for val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	var conditions []Predicate
	for i := 0; i < val.NumField(); i++ {
		sf := val.Type().Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array, reflect.Func, reflect.Chan, reflect.Interface, reflect.Ptr:
			continue
		case reflect.Struct:
			if sf.Type.String() != "time.Time" {
				continue
			}
		}
		fieldValue := val.Field(i).Interface()
		if !IsEmptyValue(fieldValue) {
			conditions = append(conditions, EQ(sf.Name, fieldValue))
		}
	}
	return And(conditions...)
}
