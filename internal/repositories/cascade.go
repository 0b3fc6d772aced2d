package repositories

import (
	"reflect"
	"strings"
)

// Cascade walks the object graph below root depth first and calls action for
// every (parent, child) pair where child is reachable through an exported field
// of a type assignable to T, or through a slice or array of such elements.
//
// Every node is visited at most once, tracked by pointer identity, so cyclic
// graphs terminate. When paths are given ("Lines", "Lines.Product"), only fields
// named by the segment of a matching path at the current depth are followed.
func Cascade[T any](root T, action func(parent, child T), paths ...string) {
	w := &cascadeWalker[T]{
		target:  reflect.TypeOf((*T)(nil)).Elem(),
		action:  action,
		visited: make(map[nodeKey]struct{}),
	}
	if len(paths) > 0 {
		w.paths = make([][]string, 0, len(paths))
		for _, p := range paths {
			w.paths = append(w.paths, strings.Split(p, "."))
		}
	}
	w.walk(root, nil)
}

type nodeKey struct {
	t reflect.Type
	p uintptr
}

type cascadeWalker[T any] struct {
	target  reflect.Type
	action  func(parent, child T)
	paths   [][]string
	visited map[nodeKey]struct{}
}

// enter records node and reports whether it was seen before.
func (w *cascadeWalker[T]) enter(node T) bool {
	v := reflect.ValueOf(node)
	if !v.IsValid() || v.Kind() != reflect.Pointer {
		// values without identity cannot form cycles
		return false
	}
	key := nodeKey{t: v.Type(), p: v.Pointer()}
	if _, seen := w.visited[key]; seen {
		return true
	}
	w.visited[key] = struct{}{}
	return false
}

func (w *cascadeWalker[T]) allowed(prefix []string) map[string]bool {
	if w.paths == nil {
		return nil
	}
	names := make(map[string]bool)
	for _, path := range w.paths {
		if len(path) <= len(prefix) {
			continue
		}
		matches := true
		for i, segment := range prefix {
			if path[i] != segment {
				matches = false
				break
			}
		}
		if matches {
			names[path[len(prefix)]] = true
		}
	}
	return names
}

func (w *cascadeWalker[T]) walk(node T, prefix []string) {
	w.enter(node)

	v := reflect.ValueOf(node)
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return
	}

	allowed := w.allowed(prefix)
	t := v.Type()
	var collections []reflect.StructField

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous || (allowed != nil && !allowed[f.Name]) {
			continue
		}
		if f.Type.AssignableTo(w.target) {
			w.visit(node, v.FieldByIndex(f.Index), append(prefix[:len(prefix):len(prefix)], f.Name))
			continue
		}
		if (f.Type.Kind() == reflect.Slice || f.Type.Kind() == reflect.Array) && f.Type.Elem().AssignableTo(w.target) {
			collections = append(collections, f)
		}
	}

	for _, f := range collections {
		items := v.FieldByIndex(f.Index)
		childPrefix := append(prefix[:len(prefix):len(prefix)], f.Name)
		for i := 0; i < items.Len(); i++ {
			w.visit(node, items.Index(i), childPrefix)
		}
	}
}

func (w *cascadeWalker[T]) visit(parent T, field reflect.Value, prefix []string) {
	if (field.Kind() == reflect.Pointer || field.Kind() == reflect.Interface) && field.IsNil() {
		return
	}
	child, ok := field.Interface().(T)
	if !ok || w.enter(child) {
		return
	}
	w.action(parent, child)
	w.walk(child, prefix)
}
