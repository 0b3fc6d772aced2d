package repositories_gorm

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"gitlab.com/nunet/yarn-data/internal/logger"
	"gitlab.com/nunet/yarn-data/internal/repositories"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("repositories_gorm")
}

// handleDBError maps gorm errors onto the repository sentinels. Errors that
// already carry a repository sentinel are returned unchanged.
func handleDBError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		repositories.NotFoundError,
		repositories.InvalidDataError,
		repositories.UnsupportedExpressionError,
		repositories.NotImplementedError,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.NotFoundError
	case errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidField),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrMissingWhereClause),
		errors.Is(err, gorm.ErrPrimaryKeyRequired):
		return repositories.InvalidDataError
	default:
		zlog.Debug("database error", zap.Error(err))
		return repositories.DatabaseError
	}
}

// parseSchema returns the parsed GORM schema of T. GORM caches parsed schemas per db.
func parseSchema[T any](db *gorm.DB) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("%w: parse schema of %T: %v", repositories.InvalidDataError, *new(T), err)
	}
	return stmt.Schema, nil
}

// primaryKey returns the primary key field of T.
func primaryKey(s *schema.Schema) (*schema.Field, error) {
	if s.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("%w: %s has no primary key", repositories.InvalidDataError, s.Name)
	}
	return s.PrioritizedPrimaryField, nil
}

// columnName maps a struct field name, or a column name, to its column.
func columnName(s *schema.Schema, field string) (string, error) {
	f := s.LookUpField(field)
	if f == nil || f.DBName == "" {
		return "", fmt.Errorf("%w: %s has no column for field %s", repositories.InvalidDataError, s.Name, field)
	}
	return f.DBName, nil
}
