package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/nunet/yarn-data/models"
)

// TestUpdateField covers struct and pointer inputs.
func TestUpdateField(t *testing.T) {
	modified1, err := UpdateField(models.OrderLine{Quantity: 1}, "Quantity", 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, modified1.Quantity)

	line := &models.OrderLine{Quantity: 1}
	modified2, err := UpdateField(line, "Quantity", 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, modified2.Quantity)
	assert.Equal(t, 2, line.Quantity)

	// converted to the field type
	modified3, err := UpdateField(models.Order{}, "TenantID", 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), modified3.TenantID)

	_, err = UpdateField(models.OrderLine{Quantity: 1}, "Qty", 2)
	assert.Error(t, err)

	_, err = UpdateField(models.OrderLine{Quantity: 1}, "Quantity", "a")
	assert.Error(t, err)

	_, err = UpdateField(models.OrderLine{Quantity: 1}, "Quantity", nil)
	assert.Error(t, err)

	_, err = UpdateField(3, "Quantity", 2)
	assert.Error(t, err)
}

func TestFieldValue(t *testing.T) {
	order := models.Order{Number: "A-1"}

	v, err := FieldValue(order, "Number")
	assert.NoError(t, err)
	assert.Equal(t, "A-1", v)

	v, err = FieldValue(&order, "Number")
	assert.NoError(t, err)
	assert.Equal(t, "A-1", v)

	_, err = FieldValue(order, "number")
	assert.Error(t, err)

	var missing *models.Order
	_, err = FieldValue(missing, "Number")
	assert.Error(t, err)
}

// TestEmptyValue checks structs and pointers to structs.
func TestEmptyValue(t *testing.T) {
	assert.Equal(t, true, IsEmptyValue(nil))

	assert.Equal(t, true, IsEmptyValue(models.Product{}))
	assert.Equal(t, true, IsEmptyValue(&models.Product{}))
	var missing *models.Product
	assert.Equal(t, true, IsEmptyValue(missing))

	assert.Equal(t, false, IsEmptyValue(models.Product{Price: 1}))
	assert.Equal(t, false, IsEmptyValue(&models.Product{Price: 1}))
}

func TestByExample(t *testing.T) {
	assert.Nil(t, ByExample(models.Order{}))

	assert.Equal(t, EQ("Status", "shipped"), ByExample(models.Order{Status: "shipped"}))

	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := ByExample(&models.Order{
		TenantID:  1,
		Customer:  "Acme Corp",
		CreatedAt: created,
		Lines:     []models.OrderLine{{Quantity: 1}},
	})
	assert.Equal(t, And(EQ("TenantID", int64(1)), EQ("Customer", "Acme Corp"), EQ("CreatedAt", created)), p)
}
