package repositories_clover

import (
	"reflect"

	clover_q "github.com/ostafen/clover/v2/query"
	"github.com/pkg/errors"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

// every document carries an _id
var (
	matchAll  = clover_q.Field(pkField).Exists()
	matchNone = matchAll.Not()
)

// toCriteria translates a predicate into clover criteria. A nil predicate
// returns nil criteria, which callers skip.
func toCriteria[T any](p repositories.Predicate) (clover_q.Criteria, error) {
	if p == nil {
		return nil, nil
	}
	return criteriaOf[T](p)
}

func criteriaOf[T any](p repositories.Predicate) (clover_q.Criteria, error) {
	switch node := p.(type) {
	case nil:
		return matchAll, nil
	case repositories.QueryCondition:
		return conditionOf[T](node)
	case repositories.AndPredicate:
		return fold[T](node.Operands, matchAll, clover_q.Criteria.And)
	case repositories.OrPredicate:
		return fold[T](node.Operands, matchNone, clover_q.Criteria.Or)
	case repositories.NotPredicate:
		if node.Operand == nil {
			return matchNone, nil
		}
		inner, err := criteriaOf[T](node.Operand)
		if err != nil {
			return nil, err
		}
		return inner.Not(), nil
	default:
		return nil, errors.Wrapf(repositories.UnsupportedExpressionError, "predicate node %T", p)
	}
}

func fold[T any](
	operands []repositories.Predicate,
	empty clover_q.Criteria,
	combine func(clover_q.Criteria, clover_q.Criteria) clover_q.Criteria,
) (clover_q.Criteria, error) {
	var result clover_q.Criteria
	for _, operand := range operands {
		c, err := criteriaOf[T](operand)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = c
		} else {
			result = combine(result, c)
		}
	}
	if result == nil {
		return empty, nil
	}
	return result, nil
}

func conditionOf[T any](c repositories.QueryCondition) (clover_q.Criteria, error) {
	if c.Cast != nil {
		return nil, errors.Wrapf(repositories.UnsupportedExpressionError, "condition read through %s: %v", c.Cast.Name, c)
	}
	name, ok := documentField[T](c.Field)
	if !ok {
		return nil, errors.Wrapf(repositories.InvalidDataError, "%T has no field %s", *new(T), c.Field)
	}
	field := clover_q.Field(name)

	switch c.Operator {
	case repositories.OpEQ:
		return field.Eq(c.Value), nil
	case repositories.OpNEQ:
		return field.Neq(c.Value), nil
	case repositories.OpGT:
		return field.Gt(c.Value), nil
	case repositories.OpGTE:
		return field.GtEq(c.Value), nil
	case repositories.OpLT:
		return field.Lt(c.Value), nil
	case repositories.OpLTE:
		return field.LtEq(c.Value), nil
	case repositories.OpIN:
		values := reflect.ValueOf(c.Value)
		if values.Kind() != reflect.Slice && values.Kind() != reflect.Array {
			return nil, errors.Wrapf(repositories.InvalidDataError, "IN expects a slice, got %T", c.Value)
		}
		if values.Len() == 0 {
			return matchNone, nil
		}
		items := make([]interface{}, values.Len())
		for i := range items {
			items[i] = values.Index(i).Interface()
		}
		return field.In(items...), nil
	case repositories.OpLIKE:
		pattern, ok := c.Value.(string)
		if !ok {
			return nil, errors.Wrapf(repositories.InvalidDataError, "LIKE expects a string, got %T", c.Value)
		}
		return field.Like(repositories.LikeRegexp(pattern)), nil
	default:
		return nil, errors.Wrapf(repositories.UnsupportedExpressionError, "operator %q", c.Operator)
	}
}

// applyConditions applies the predicate, sorting, limiting and offsetting of a
// query to a clover query. Sorting and the window are applied only when paged is set.
func applyConditions[T any](
	q *clover_q.Query,
	query repositories.Query[T],
	paged bool,
) (*clover_q.Query, error) {
	criteria, err := toCriteria[T](query.Where)
	if err != nil {
		return nil, err
	}
	// Where replaces earlier criteria, so the whole predicate goes in at once
	if criteria != nil {
		q = q.Where(criteria)
	}
	if !paged {
		return q, nil
	}

	if len(query.OrderBy) > 0 {
		options := make([]clover_q.SortOption, 0, len(query.OrderBy))
		for _, s := range query.OrderBy {
			name, ok := documentField[T](s.Field)
			if !ok {
				return nil, errors.Wrapf(repositories.InvalidDataError, "%T has no field %s", *new(T), s.Field)
			}
			dir := 1
			if s.Descending {
				dir = -1
			}
			options = append(options, clover_q.SortOption{Field: name, Direction: dir})
		}
		q = q.Sort(options...)
	}
	if query.Offset > 0 {
		q = q.Skip(query.Offset)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	return q, nil
}
