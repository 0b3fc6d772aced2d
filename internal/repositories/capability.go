package repositories

import (
	"reflect"

	"github.com/pkg/errors"
)

// Capability describes an interface an entity type may implement, together with
// the fields it exposes. Accessors maps a field name to the interface method that reads it.
type Capability struct {
	Name      string
	Type      reflect.Type
	Accessors map[string]string
}

// NewCapability describes the interface I. It panics when I is not an interface
// type or when an accessor names a method I does not have, both programming errors.
func NewCapability[I any](name string, accessors map[string]string) *Capability {
	t := reflect.TypeOf((*I)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic("repositories: capability type must be an interface, got " + t.String())
	}
	for field, method := range accessors {
		m, ok := t.MethodByName(method)
		if !ok || m.Type.NumIn() != 0 || m.Type.NumOut() != 1 {
			panic("repositories: capability " + name + " has no accessor " + method + " for " + field)
		}
	}
	return &Capability{Name: name, Type: t, Accessors: accessors}
}

// Implements reports whether entities of type T satisfy the capability, either
// directly or through their pointer type.
func Implements[T any](c *Capability) bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t.Implements(c.Type) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(c.Type))
}

// RemoveCast rewrites every condition of p that reads a field through c into a
// condition reading the field of the same name directly on T. Backends that only
// know T's mapped fields can then translate the predicate.
//
// The rewrite requires T to implement c and to declare each referenced field with
// the accessor's result type. Conditions read through other capabilities are kept.
func RemoveCast[T any](p Predicate, c *Capability) (Predicate, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if !Implements[T](c) {
		return nil, errors.Wrapf(CapabilityError, "%s does not implement %s", t, c.Name)
	}
	structType := t
	for structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	return Walk(p, func(cond QueryCondition) (Predicate, error) {
		if cond.Cast != c {
			return cond, nil
		}
		accessor, ok := c.Accessors[cond.Field]
		if !ok {
			return nil, errors.Wrapf(CapabilityError, "%s exposes no field %s", c.Name, cond.Field)
		}
		method, _ := c.Type.MethodByName(accessor)
		want := method.Type.Out(0)

		if structType.Kind() != reflect.Struct {
			return nil, errors.Wrapf(CapabilityError, "%s is not a struct", t)
		}
		field, ok := structType.FieldByName(cond.Field)
		if !ok || !field.IsExported() || field.Type != want {
			return nil, errors.Wrapf(CapabilityError, "%s has no field %s of type %s", t, cond.Field, want)
		}

		cond.Cast = nil
		return cond, nil
	})
}
