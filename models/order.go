package models

import (
	"time"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

// Order is a tenant-scoped aggregate with its lines.
type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	TenantID  int64       `gorm:"index;not null" json:"tenant_id"`
	OwnerID   int64       `json:"owner_id"`
	Number    string      `gorm:"index" json:"number"`
	Customer  string      `json:"customer"`
	Status    string      `gorm:"index" json:"status"`
	Total     float64     `json:"total"`
	Notes     string      `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Lines     []OrderLine `gorm:"constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

func (o Order) GetTenantID() int64 { return o.TenantID }
func (o Order) GetOwnerID() int64  { return o.OwnerID }

// Key returns the primary key.
func (o Order) Key() uint { return o.ID }

// OrderLine belongs to the tenant of its order.
type OrderLine struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	OrderID   uint     `gorm:"index" json:"order_id"`
	TenantID  int64    `gorm:"index;not null" json:"tenant_id"`
	OwnerID   int64    `json:"owner_id"`
	ProductID uint     `json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
}

func (l OrderLine) GetTenantID() int64 { return l.TenantID }
func (l OrderLine) GetOwnerID() int64  { return l.OwnerID }
