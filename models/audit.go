package models

import (
	"time"
)

// AuditEntry records a write made through the CLI. Entries live in the
// document store and are scoped to the tenant that made the change.
type AuditEntry struct {
	ID        string    `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	OwnerID   int64     `json:"owner_id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func (a AuditEntry) GetTenantID() int64 { return a.TenantID }
func (a AuditEntry) GetOwnerID() int64  { return a.OwnerID }

// Key returns the document id.
func (a AuditEntry) Key() string { return a.ID }
