package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nunet/yarn-data/models"
)

type pointerTenant struct {
	TenantID int64
	OwnerID  int64
}

func (p *pointerTenant) GetTenantID() int64 { return p.TenantID }
func (p *pointerTenant) GetOwnerID() int64  { return p.OwnerID }

// narrowTenant implements Tenant but stores the tenant with another type.
type narrowTenant struct {
	TenantID int32
}

func (n narrowTenant) GetTenantID() int64 { return int64(n.TenantID) }
func (n narrowTenant) GetOwnerID() int64  { return 0 }

// renamedTenant implements Tenant without a TenantID field.
type renamedTenant struct {
	Tenant int64
}

func (r renamedTenant) GetTenantID() int64 { return r.Tenant }
func (r renamedTenant) GetOwnerID() int64  { return 0 }

type describer interface {
	Describe() string
}

func TestNewCapabilityPanicsOnProgrammingErrors(t *testing.T) {
	assert.Panics(t, func() { NewCapability[models.Order]("Order", nil) })
	assert.Panics(t, func() {
		NewCapability[Tenant]("Tenant", map[string]string{"TenantID": "TenantID"})
	})
	assert.NotPanics(t, func() {
		NewCapability[describer]("Describer", map[string]string{"Description": "Describe"})
	})
}

func TestImplements(t *testing.T) {
	assert.True(t, Implements[models.Order](TenantCapability))
	assert.True(t, Implements[*models.Order](TenantCapability))
	assert.True(t, Implements[pointerTenant](TenantCapability))
	assert.False(t, Implements[models.Product](TenantCapability))
}

func TestRemoveCast(t *testing.T) {
	rewritten, err := RemoveCast[models.Order](TenantFilter(4), TenantCapability)
	require.NoError(t, err)
	assert.Equal(t, EQ("TenantID", int64(4)), rewritten)

	nested := And(EQ("Status", "shipped"), Not(As(TenantCapability).NEQ("OwnerID", int64(9))))
	rewritten, err = RemoveCast[*models.Order](nested, TenantCapability)
	require.NoError(t, err)
	assert.Equal(t, And(EQ("Status", "shipped"), Not(NEQ("OwnerID", int64(9)))), rewritten)
	assert.Same(t, TenantCapability, nested.(AndPredicate).Operands[1].(NotPredicate).Operand.(QueryCondition).Cast)

	rewritten, err = RemoveCast[pointerTenant](TenantFilter(1), TenantCapability)
	require.NoError(t, err)
	assert.Equal(t, EQ("TenantID", int64(1)), rewritten)

	other := NewCapability[describer]("Describer", map[string]string{"Description": "Describe"})
	kept := As(other).EQ("Description", "x")
	rewritten, err = RemoveCast[models.Order](And(TenantFilter(1), kept), TenantCapability)
	require.NoError(t, err)
	assert.Equal(t, And(EQ("TenantID", int64(1)), kept), rewritten)
}

func TestRemoveCastFailures(t *testing.T) {
	_, err := RemoveCast[models.Product](TenantFilter(1), TenantCapability)
	assert.ErrorIs(t, err, CapabilityError)

	_, err = RemoveCast[narrowTenant](TenantFilter(1), TenantCapability)
	assert.ErrorIs(t, err, CapabilityError)

	_, err = RemoveCast[renamedTenant](TenantFilter(1), TenantCapability)
	assert.ErrorIs(t, err, CapabilityError)

	_, err = RemoveCast[models.Order](As(TenantCapability).EQ("Region", "eu"), TenantCapability)
	assert.ErrorIs(t, err, CapabilityError)
}

func TestRemoveCastPreservesMeaning(t *testing.T) {
	orders := []models.Order{
		{TenantID: 1, OwnerID: 10, Status: models.OrderStatusShipped},
		{TenantID: 1, OwnerID: 11, Status: models.OrderStatusPending},
		{TenantID: 2, OwnerID: 10, Status: models.OrderStatusShipped},
	}
	predicates := []Predicate{
		TenantFilter(1),
		Not(TenantFilter(1)),
		And(TenantFilter(1), EQ("Status", models.OrderStatusShipped)),
		Or(As(TenantCapability).EQ("OwnerID", int64(10)), TenantFilter(2)),
	}

	for _, p := range predicates {
		rewritten, err := RemoveCast[models.Order](p, TenantCapability)
		require.NoError(t, err)
		for _, order := range orders {
			want, err := Evaluate(p, order)
			require.NoError(t, err)
			got, err := Evaluate(rewritten, order)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%v on %+v", p, order)
		}
	}
}
