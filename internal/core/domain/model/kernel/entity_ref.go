package kernel

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// EntityType tags the aggregate an EntityRef points at. Readers switch on it
// explicitly instead of resolving the reference dynamically.
type EntityType string

const (
	EntityOrder         EntityType = "order"
	EntityShipment      EntityType = "shipment"
	EntityReturn        EntityType = "return"
	EntitySupplierOrder EntityType = "supplier_order"
	EntityAdjustment    EntityType = "adjustment"
	EntityTransfer      EntityType = "transfer"
	EntityStockRecord   EntityType = "stock_record"
)

func (t EntityType) Validate() error {
	switch t {
	case EntityOrder, EntityShipment, EntityReturn, EntitySupplierOrder, EntityAdjustment, EntityTransfer,
		EntityStockRecord:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("entityType", fmt.Errorf("%q is not a known entity type", string(t)))
	}
}

// EntityRef is the {entityType, entityId} pair stored on stock movements and
// domain events. The id is kept as text because supplier orders are
// identified by external references.
type EntityRef struct {
	entityType EntityType
	entityID   string
}

func NewEntityRef(entityType EntityType, entityID string) (EntityRef, error) {
	if err := entityType.Validate(); err != nil {
		return EntityRef{}, err
	}
	if entityID == "" {
		return EntityRef{}, errs.NewValueIsRequiredError("entityId")
	}
	return EntityRef{entityType: entityType, entityID: entityID}, nil
}

// RefTo builds a reference to one of the service's own aggregates.
func RefTo(entityType EntityType, id UUID) EntityRef {
	return EntityRef{entityType: entityType, entityID: id.String()}
}

func (r EntityRef) Type() EntityType {
	return r.entityType
}

func (r EntityRef) ID() string {
	return r.entityID
}

// IsZero reports a missing reference.
func (r EntityRef) IsZero() bool {
	return r.entityType == "" && r.entityID == ""
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%s", r.entityType, r.entityID)
}
