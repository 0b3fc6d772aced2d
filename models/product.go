package models

import (
	"time"
)

// Product is shared catalogue data, visible to every tenant.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SKU         string    `gorm:"index" json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the primary key.
func (p Product) Key() uint { return p.ID }
