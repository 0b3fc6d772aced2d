package repositories

import (
	"errors"
)

// InvalidDataError represents an error indicating that the provided data is invalid.
var InvalidDataError = errors.New("Invalid data given")

// NotFoundError represents an error indicating that the requested record was not found.
var NotFoundError = errors.New("Record not found")

// DatabaseError represents a general error related to database operations.
var DatabaseError = errors.New("Database error")

// UnauthorizedError is returned when a write targets an entity that belongs to another tenant.
var UnauthorizedError = errors.New("Operation not permitted for tenant")

// NotImplementedError is returned by operations a repository or load service does not support.
var NotImplementedError = errors.New("Operation not implemented")

// MissingTenantError is returned when a tenant-aware adapter is built without a tenant.
var MissingTenantError = errors.New("Tenant is required")

// CapabilityError is returned when an entity type does not satisfy a capability a predicate is written against.
var CapabilityError = errors.New("Capability not satisfied")

// UnsupportedExpressionError is returned by backends that cannot translate a predicate node.
var UnsupportedExpressionError = errors.New("Unsupported expression")
