package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nunet/yarn-data/models"
)

func TestSpecificationComposition(t *testing.T) {
	shipped := NewSpecification[models.Order](EQ("Status", models.OrderStatusShipped))
	large := NewSpecification[models.Order](GT("Total", 100))
	acme := NewSpecification[models.Order](LIKE("Customer", "acme%"))

	left := shipped.AndSpec(large).AndSpec(acme)
	right := shipped.AndSpec(large.AndSpec(acme))
	assert.Equal(t, left.Predicate(), right.Predicate())

	// composition never changes the receiver
	_ = shipped.And(EQ("TenantID", int64(1)))
	assert.Equal(t, EQ("Status", models.OrderStatusShipped), shipped.Predicate())
}

func TestSpecificationIsSatisfiedBy(t *testing.T) {
	order := sampleOrder()
	shipped := NewSpecification[models.Order](EQ("Status", models.OrderStatusShipped))

	ok, err := shipped.IsSatisfiedBy(order)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = shipped.Not().IsSatisfiedBy(order)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = shipped.Not().Or(GT("Total", 100)).IsSatisfiedBy(order)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewSpecification[models.Order](nil).IsSatisfiedBy(order)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSpecificationString(t *testing.T) {
	assert.Equal(t, "TRUE", NewSpecification[models.Order](nil).String())
	assert.Equal(t, "Status = pending", NewSpecification[models.Order](EQ("Status", "pending")).String())
}
