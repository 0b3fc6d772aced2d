package repositories_gorm

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

const (
	sqlTrue  = "1 = 1"
	sqlFalse = "1 = 0"
)

// translator turns a predicate tree into a parameterised SQL condition over the
// columns of one parsed schema.
type translator struct {
	db     *gorm.DB
	schema *schema.Schema
}

// where returns the condition and its arguments. A nil predicate yields an
// empty condition, which callers skip.
func (t translator) where(p repositories.Predicate) (string, []interface{}, error) {
	if p == nil {
		return "", nil, nil
	}
	var args []interface{}
	sql, err := t.node(p, &args)
	return sql, args, err
}

func (t translator) node(p repositories.Predicate, args *[]interface{}) (string, error) {
	switch node := p.(type) {
	case nil:
		return sqlTrue, nil
	case repositories.QueryCondition:
		return t.condition(node, args)
	case repositories.AndPredicate:
		return t.join(node.Operands, " AND ", sqlTrue, args)
	case repositories.OrPredicate:
		return t.join(node.Operands, " OR ", sqlFalse, args)
	case repositories.NotPredicate:
		if node.Operand == nil {
			return sqlFalse, nil
		}
		inner, err := t.node(node.Operand, args)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", errors.Wrapf(repositories.UnsupportedExpressionError, "predicate node %T", p)
	}
}

func (t translator) join(operands []repositories.Predicate, sep, empty string, args *[]interface{}) (string, error) {
	if len(operands) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(operands))
	for _, operand := range operands {
		part, err := t.node(operand, args)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+part+")")
	}
	return strings.Join(parts, sep), nil
}

func (t translator) condition(c repositories.QueryCondition, args *[]interface{}) (string, error) {
	if c.Cast != nil {
		// casts must be rewritten away before a predicate reaches SQL
		return "", errors.Wrapf(repositories.UnsupportedExpressionError, "condition read through %s: %v", c.Cast.Name, c)
	}
	column, err := t.column(c.Field)
	if err != nil {
		return "", err
	}

	switch c.Operator {
	case repositories.OpEQ, repositories.OpNEQ:
		if isNilValue(c.Value) {
			if c.Operator == repositories.OpEQ {
				return column + " IS NULL", nil
			}
			return column + " IS NOT NULL", nil
		}
	case repositories.OpGT, repositories.OpGTE, repositories.OpLT, repositories.OpLTE:
	case repositories.OpIN:
		values := reflect.ValueOf(c.Value)
		if values.Kind() != reflect.Slice && values.Kind() != reflect.Array {
			return "", errors.Wrapf(repositories.InvalidDataError, "IN expects a slice, got %T", c.Value)
		}
		if values.Len() == 0 {
			return sqlFalse, nil
		}
		*args = append(*args, c.Value)
		return column + " IN ?", nil
	case repositories.OpLIKE:
		if _, ok := c.Value.(string); !ok {
			return "", errors.Wrapf(repositories.InvalidDataError, "LIKE expects a string, got %T", c.Value)
		}
	default:
		return "", errors.Wrapf(repositories.UnsupportedExpressionError, "operator %q", c.Operator)
	}

	operator := c.Operator
	if operator == repositories.OpNEQ {
		operator = "<>"
	}
	*args = append(*args, c.Value)
	return fmt.Sprintf("%s %s ?", column, operator), nil
}

func (t translator) column(field string) (string, error) {
	name, err := columnName(t.schema, field)
	if err != nil {
		return "", err
	}
	return t.db.Statement.Quote(name), nil
}

// order maps a sorting to ORDER BY columns.
func (t translator) order(sorting repositories.Sorting) ([]clause.OrderByColumn, error) {
	columns := make([]clause.OrderByColumn, 0, len(sorting))
	for _, s := range sorting {
		name, err := columnName(t.schema, s.Field)
		if err != nil {
			return nil, err
		}
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: name}, Desc: s.Descending})
	}
	return columns, nil
}

// applyConditions applies the predicate, sorting, limiting and offsetting of a
// query to a GORM query. Sorting and the window are applied only when paged is set.
func applyConditions[T any](
	db *gorm.DB,
	t translator,
	query repositories.Query[T],
	paged bool,
) (*gorm.DB, error) {
	sql, args, err := t.where(query.Where)
	if err != nil {
		return nil, err
	}
	if sql != "" {
		db = db.Where(sql, args...)
	}
	if !paged {
		return db, nil
	}

	columns, err := t.order(query.OrderBy)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		db = db.Order(clause.OrderBy{Columns: columns})
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}
	return db, nil
}

func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
