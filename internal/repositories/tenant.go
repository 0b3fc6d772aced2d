package repositories

import (
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Tenant is implemented by tenant-scoped entities and by the caller-bound tenant context.
type Tenant interface {
	GetTenantID() int64
	GetOwnerID() int64
}

// Owner is the tenant context a caller is bound to.
type Owner struct {
	TenantID int64
	OwnerID  int64
}

func (o Owner) GetTenantID() int64 { return o.TenantID }
func (o Owner) GetOwnerID() int64  { return o.OwnerID }

// Keyed is implemented by entities that expose their repository key.
type Keyed[ID comparable] interface {
	Key() ID
}

// keyOf returns the key of entity when its type exposes one and it is set.
func keyOf[T any, ID comparable](entity T) (ID, bool) {
	var zero ID
	k, ok := any(entity).(Keyed[ID])
	if !ok {
		if k, ok = any(&entity).(Keyed[ID]); !ok {
			return zero, false
		}
	}
	key := k.Key()
	return key, key != zero
}

// TenantCapability describes the Tenant interface for predicates read through it.
var TenantCapability = NewCapability[Tenant]("Tenant", map[string]string{
	"TenantID": "GetTenantID",
	"OwnerID":  "GetOwnerID",
})

// TenantFilter matches entities of the given tenant, read through TenantCapability.
func TenantFilter(tenantID int64) Predicate {
	return As(TenantCapability).EQ("TenantID", tenantID)
}

// tenantOf returns the tenant of a tenant-scoped entity.
func tenantOf[T any](entity T) (int64, error) {
	if v := reflect.ValueOf(entity); v.Kind() == reflect.Pointer && v.IsNil() {
		return 0, errors.Wrap(InvalidDataError, "nil entity")
	}
	if t, ok := any(entity).(Tenant); ok {
		return t.GetTenantID(), nil
	}
	if t, ok := any(&entity).(Tenant); ok {
		return t.GetTenantID(), nil
	}
	return 0, errors.Wrapf(CapabilityError, "%T is not tenant scoped", entity)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// tenantPolicy holds the tenant decisions shared by the tenant-aware adapters.
// scoped and filter are derived from T once, when the policy is built.
type tenantPolicy[T any] struct {
	owner  Owner
	scoped bool
	filter Predicate
}

func newTenantPolicy[T any](owner Tenant) (tenantPolicy[T], error) {
	if isNil(owner) {
		return tenantPolicy[T]{}, MissingTenantError
	}
	p := tenantPolicy[T]{owner: Owner{TenantID: owner.GetTenantID(), OwnerID: owner.GetOwnerID()}}
	if !Implements[T](TenantCapability) {
		return p, nil
	}
	filter, err := RemoveCast[T](TenantFilter(p.owner.TenantID), TenantCapability)
	if err != nil {
		return tenantPolicy[T]{}, err
	}
	p.scoped = true
	p.filter = filter
	return p, nil
}

// owns reports whether a tenant-scoped entity belongs to the owner's tenant.
func (p tenantPolicy[T]) owns(entity T) (bool, error) {
	if !p.scoped {
		return true, nil
	}
	tenantID, err := tenantOf(entity)
	if err != nil {
		return false, err
	}
	return tenantID == p.owner.TenantID, nil
}

// authorize fails with UnauthorizedError when entity, or a tenant-scoped entity
// reachable from it, belongs to another tenant.
func (p tenantPolicy[T]) authorize(operation string, entity T) error {
	if !p.scoped {
		return nil
	}
	tenantID, err := tenantOf(entity)
	if err != nil {
		return err
	}
	if tenantID != p.owner.TenantID {
		zlog.Warn("cross-tenant write rejected",
			zap.String("operation", operation),
			zap.Int64("tenant_id", p.owner.TenantID),
			zap.Int64("owner_id", p.owner.OwnerID),
			zap.Int64("entity_tenant_id", tenantID),
		)
		return errors.Wrapf(UnauthorizedError, "%s: entity belongs to tenant %d", operation, tenantID)
	}
	if foreign, found := p.foreignNode(entity); found {
		zlog.Warn("cross-tenant association rejected",
			zap.String("operation", operation),
			zap.Int64("tenant_id", p.owner.TenantID),
			zap.Int64("entity_tenant_id", foreign),
		)
		return errors.Wrapf(UnauthorizedError, "%s: associated entity belongs to tenant %d", operation, foreign)
	}
	return nil
}

// authorizeStored fails with UnauthorizedError when stored, the row currently
// kept under the key of an entity being written, belongs to another tenant.
func (p tenantPolicy[T]) authorizeStored(operation string, stored T) error {
	owned, err := p.owns(stored)
	if err != nil || owned {
		return err
	}
	tenantID, _ := tenantOf(stored)
	zlog.Warn("write over a foreign row rejected",
		zap.String("operation", operation),
		zap.Int64("tenant_id", p.owner.TenantID),
		zap.Int64("stored_tenant_id", tenantID),
	)
	return errors.Wrapf(UnauthorizedError, "%s: key addresses a row of tenant %d", operation, tenantID)
}

// foreignNode looks for tenant-scoped entities reachable from entity that belong
// to another tenant. Backends that save associations with their parent would
// otherwise write them unchecked.
func (p tenantPolicy[T]) foreignNode(entity T) (int64, bool) {
	root, ok := any(entity).(Tenant)
	if !ok {
		if root, ok = any(&entity).(Tenant); !ok {
			return 0, false
		}
	}
	var foreign int64
	found := false
	Cascade(root, func(_, child Tenant) {
		if !found && child.GetTenantID() != p.owner.TenantID {
			foreign, found = child.GetTenantID(), true
		}
	})
	return foreign, found
}
