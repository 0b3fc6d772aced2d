package repositories_gorm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gitlab.com/nunet/yarn-data/internal/repositories"
	"gitlab.com/nunet/yarn-data/models"
)

func mockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

// TestCountPushDown ensures tenant counts are computed by the database instead
// of by materialising rows.
func TestCountPushDown(t *testing.T) {
	gdb, mock := mockPostgres(t)

	repo, err := NewGenericRepository[models.Order, uint](gdb)
	require.NoError(t, err)
	scoped, err := repositories.NewMultiTenantRepository[models.Order, uint](repo, repositories.Owner{TenantID: 7})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE .*"tenant_id" = \$1.*"status" = \$2`).
		WithArgs(int64(7), models.OrderStatusShipped).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := scoped.CountWhere(context.Background(), repositories.EQ("Status", models.OrderStatusShipped))
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE "tenant_id" = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	count, err = scoped.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 9, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestFindPushDown ensures the tenant filter, ordering and window reach the SQL.
func TestFindPushDown(t *testing.T) {
	gdb, mock := mockPostgres(t)

	repo, err := NewGenericRepository[models.Order, uint](gdb)
	require.NoError(t, err)
	scoped, err := repositories.NewMultiTenantRepository[models.Order, uint](repo, repositories.Owner{TenantID: 7})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE .*"tenant_id" = \$1.*"total" > \$2.*ORDER BY "total" DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "number", "total"}).AddRow(3, 7, "N-3", 12.5))

	orders, err := scoped.FindAll(context.Background(), repositories.GT("Total", 10), repositories.Page{
		Offset:  20,
		Limit:   5,
		OrderBy: repositories.OrderByDescending("Total"),
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "N-3", orders[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestTranslator covers the SQL produced for every node type.
func TestTranslator(t *testing.T) {
	gdb, _ := mockPostgres(t)
	s, err := parseSchema[models.Order](gdb)
	require.NoError(t, err)
	tr := translator{db: gdb, schema: s}

	cases := []struct {
		name string
		in   repositories.Predicate
		sql  string
		args []interface{}
	}{
		{"nil", nil, "", nil},
		{"eq", repositories.EQ("Status", "shipped"), `"status" = ?`, []interface{}{"shipped"}},
		{"neq", repositories.NEQ("Status", "shipped"), `"status" <> ?`, []interface{}{"shipped"}},
		{"is null", repositories.EQ("Notes", nil), `"notes" IS NULL`, nil},
		{"is not null", repositories.NEQ("Notes", nil), `"notes" IS NOT NULL`, nil},
		{"column name", repositories.LTE("total", 3), `"total" <= ?`, []interface{}{3}},
		{
			"and",
			repositories.And(repositories.EQ("TenantID", int64(1)), repositories.LIKE("Customer", "a%")),
			`("tenant_id" = ?) AND ("customer" LIKE ?)`,
			[]interface{}{int64(1), "a%"},
		},
		{
			"or not",
			repositories.Or(repositories.GT("Total", 1), repositories.Not(repositories.LT("Total", 0))),
			`("total" > ?) OR (NOT ("total" < ?))`,
			[]interface{}{1, 0},
		},
		{"in", repositories.IN("Number", []interface{}{"a", "b"}), `"number" IN ?`, []interface{}{[]interface{}{"a", "b"}}},
		{"empty in", repositories.IN("Number", []interface{}{}), sqlFalse, nil},
		{"empty and", repositories.AndPredicate{}, sqlTrue, nil},
		{"empty or", repositories.OrPredicate{}, sqlFalse, nil},
		{"false", repositories.Not(nil), sqlFalse, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args, err := tr.where(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.sql, sql)
			assert.Equal(t, tc.args, args)
		})
	}

	_, _, err = tr.where(repositories.GT("Nope", 1))
	assert.ErrorIs(t, err, repositories.InvalidDataError)
	_, _, err = tr.where(repositories.QueryCondition{Field: "Number", Operator: repositories.OpIN, Value: "a"})
	assert.ErrorIs(t, err, repositories.InvalidDataError)
	_, _, err = tr.where(repositories.QueryCondition{Field: "Customer", Operator: repositories.OpLIKE, Value: 1})
	assert.ErrorIs(t, err, repositories.InvalidDataError)
	_, _, err = tr.where(repositories.As(repositories.TenantCapability).EQ("TenantID", int64(1)))
	assert.ErrorIs(t, err, repositories.UnsupportedExpressionError)
}
