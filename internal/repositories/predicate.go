package repositories

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Comparison operators understood by every backend.
const (
	OpEQ   = "="
	OpNEQ  = "!="
	OpGT   = ">"
	OpGTE  = ">="
	OpLT   = "<"
	OpLTE  = "<="
	OpIN   = "IN"
	OpLIKE = "LIKE"
)

// Predicate is a boolean expression over an entity type, kept as a tree so that
// backends can translate it into their own query language after composition.
// A nil Predicate matches every entity.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// QueryCondition is a struct representing a query condition.
type QueryCondition struct {
	Field    string      // Field specifies the database or struct field to which the condition applies.
	Operator string      // Operator defines the comparison operator (e.g., "=", ">", "<").
	Value    interface{} // Value is the expected value for the given field.
	Cast     *Capability // Cast, when set, reads Field through the capability instead of the concrete type.
}

// AndPredicate is satisfied when every operand is.
type AndPredicate struct {
	Operands []Predicate
}

// OrPredicate is satisfied when at least one operand is.
type OrPredicate struct {
	Operands []Predicate
}

// NotPredicate negates its operand.
type NotPredicate struct {
	Operand Predicate
}

func (QueryCondition) predicate() {}
func (AndPredicate) predicate()   {}
func (OrPredicate) predicate()    {}
func (NotPredicate) predicate()   {}

func (c QueryCondition) String() string {
	field := c.Field
	if c.Cast != nil {
		field = fmt.Sprintf("(%s).%s", c.Cast.Name, c.Field)
	}
	return fmt.Sprintf("%s %s %v", field, c.Operator, c.Value)
}

func (p AndPredicate) String() string { return joinOperands(p.Operands, " AND ") }
func (p OrPredicate) String() string  { return joinOperands(p.Operands, " OR ") }
func (p NotPredicate) String() string { return fmt.Sprintf("NOT (%v)", p.Operand) }

func joinOperands(operands []Predicate, sep string) string {
	parts := make([]string, 0, len(operands))
	for _, operand := range operands {
		parts = append(parts, fmt.Sprintf("%v", operand))
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// And conjoins predicates. Nil operands are dropped and nested conjunctions are
// flattened, so And(And(a, b), c) and And(a, And(b, c)) build the same tree.
func And(predicates ...Predicate) Predicate {
	operands := make([]Predicate, 0, len(predicates))
	for _, p := range predicates {
		switch v := p.(type) {
		case nil:
			continue
		case AndPredicate:
			operands = append(operands, v.Operands...)
		default:
			operands = append(operands, p)
		}
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	}
	return AndPredicate{Operands: operands}
}

// Or disjoins predicates. A nil operand matches everything, so it makes the whole disjunction nil.
func Or(predicates ...Predicate) Predicate {
	operands := make([]Predicate, 0, len(predicates))
	for _, p := range predicates {
		switch v := p.(type) {
		case nil:
			return nil
		case OrPredicate:
			operands = append(operands, v.Operands...)
		default:
			operands = append(operands, p)
		}
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return OrPredicate{Operands: operands}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	if inner, ok := p.(NotPredicate); ok {
		return inner.Operand
	}
	return NotPredicate{Operand: p}
}

// EQ creates a QueryCondition for equality comparison.
// It takes a field name and a value and returns a QueryCondition with the equality operator.
func EQ(field string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpEQ, Value: value}
}

// NEQ creates a QueryCondition for inequality comparison.
func NEQ(field string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpNEQ, Value: value}
}

// GT creates a QueryCondition for greater-than comparison.
// It takes a field name and a value and returns a QueryCondition with the greater-than operator.
func GT(field string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpGT, Value: value}
}

// GTE creates a QueryCondition for greater-than or equal comparison.
// It takes a field name and a value and returns a QueryCondition with the greater-than or equal operator.
func GTE(field string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpGTE, Value: value}
}

// LT creates a QueryCondition for less-than comparison.
// It takes a field name and a value and returns a QueryCondition with the less-than operator.
func LT(field string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpLT, Value: value}
}

// LTE creates a QueryCondition for less-than or equal comparison.
// It takes a field name and a value and returns a QueryCondition with the less-than or equal operator.
func LTE(field string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpLTE, Value: value}
}

// IN creates a QueryCondition for an "IN" comparison.
// It takes a field name and a slice of values and returns a QueryCondition with the "IN" operator.
func IN(field string, values []interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: OpIN, Value: values}
}

// LIKE creates a QueryCondition for a "LIKE" comparison.
// It takes a field name and a pattern and returns a QueryCondition with the "LIKE" operator.
// The pattern uses SQL wildcards: % for any run of characters, _ for a single character.
func LIKE(field, pattern string) QueryCondition {
	return QueryCondition{Field: field, Operator: OpLIKE, Value: pattern}
}

// As returns a builder for conditions that read fields through the capability c,
// the equivalent of casting the entity to an interface before reading a property.
func As(c *Capability) CapabilityRef {
	return CapabilityRef{capability: c}
}

// CapabilityRef builds conditions read through a capability.
type CapabilityRef struct {
	capability *Capability
}

// Condition builds a condition with an arbitrary operator.
func (r CapabilityRef) Condition(field, operator string, value interface{}) QueryCondition {
	return QueryCondition{Field: field, Operator: operator, Value: value, Cast: r.capability}
}

// EQ builds an equality condition read through the capability.
func (r CapabilityRef) EQ(field string, value interface{}) QueryCondition {
	return r.Condition(field, OpEQ, value)
}

// NEQ builds an inequality condition read through the capability.
func (r CapabilityRef) NEQ(field string, value interface{}) QueryCondition {
	return r.Condition(field, OpNEQ, value)
}

// Walk rewrites a predicate bottom-up. fn is called for every leaf condition and
// returns its replacement; inner nodes are rebuilt around the rewritten children.
// The input tree is never modified.
func Walk(p Predicate, fn func(QueryCondition) (Predicate, error)) (Predicate, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case QueryCondition:
		return fn(v)
	case AndPredicate:
		operands, err := walkOperands(v.Operands, fn)
		if err != nil {
			return nil, err
		}
		return AndPredicate{Operands: operands}, nil
	case OrPredicate:
		operands, err := walkOperands(v.Operands, fn)
		if err != nil {
			return nil, err
		}
		return OrPredicate{Operands: operands}, nil
	case NotPredicate:
		operand, err := Walk(v.Operand, fn)
		if err != nil {
			return nil, err
		}
		return NotPredicate{Operand: operand}, nil
	default:
		return nil, errors.Wrapf(UnsupportedExpressionError, "predicate node %T", p)
	}
}

func walkOperands(operands []Predicate, fn func(QueryCondition) (Predicate, error)) ([]Predicate, error) {
	out := make([]Predicate, len(operands))
	for i, operand := range operands {
		rewritten, err := Walk(operand, fn)
		if err != nil {
			return nil, err
		}
		out[i] = rewritten
	}
	return out, nil
}
