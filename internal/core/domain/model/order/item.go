package order

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrItemIsNotConstructed = errors.New("Item must be created via NewItem constructor")
)

// Product identifies what an item sells, as resolved from the catalog.
type Product struct {
	ProductID kernel.UUID
	VariantID *kernel.UUID
	SKU       string
	IsDigital bool
}

func (p Product) Validate() error {
	var variantErr error
	if p.VariantID != nil {
		variantErr = p.VariantID.Validate()
	}
	var skuErr error
	if p.SKU == "" {
		skuErr = errs.NewValueIsRequiredError("sku")
	}
	return errors.Join(p.ProductID.Validate(), variantErr, skuErr)
}

// Item is one line of an order. It is owned by its Order and only mutated
// through Order methods, so order totals stay in step with the lines.
type Item struct {
	id          kernel.UUID
	product     Product
	warehouseID *kernel.UUID

	quantity       int
	unitPrice      decimal.Decimal
	taxAmount      decimal.Decimal
	discountAmount decimal.Decimal

	status           ItemStatus
	priorStatus      ItemStatus
	shippedQuantity  int
	returnedQuantity int
	returnID         *kernel.UUID

	isConstructed bool
}

// NewItem creates a pending order line.
//
// Parameters:
//   - id: identifier of the line
//   - product: catalog identity of the product
//   - warehouseID: optional preferred warehouse
//   - quantity: number of units, greater than zero
//   - unitPrice: catalog price, not negative
//   - taxAmount: tax for the whole line, not negative
//   - discountAmount: line level discount, at most subtotal plus tax
//
// Example:
//
//	item, err := order.NewItem(kernel.NewUUID(), product, nil, 2,
//	    decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.Zero)
func NewItem(
	id kernel.UUID,
	product Product,
	warehouseID *kernel.UUID,
	quantity int,
	unitPrice, taxAmount, discountAmount decimal.Decimal,
) (*Item, error) {
	item := &Item{
		product:       product,
		warehouseID:   warehouseID,
		status:        ItemPending,
		isConstructed: true,
	}

	if err := errors.Join(
		id.Validate(),
		product.Validate(),
		item.setQuantity(quantity),
		kernel.ValidateAmount("unitPrice", unitPrice),
		kernel.ValidateAmount("taxAmount", taxAmount),
		kernel.ValidateAmount("discountAmount", discountAmount),
	); err != nil {
		return nil, err
	}

	item.id = id
	item.unitPrice = kernel.RoundMoney(unitPrice)
	item.taxAmount = kernel.RoundMoney(taxAmount)
	item.discountAmount = kernel.RoundMoney(discountAmount)

	if item.discountAmount.GreaterThan(item.Subtotal().Add(item.taxAmount)) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"discountAmount",
			fmt.Errorf("%s exceeds the line amount", item.discountAmount),
		)
	}

	return item, nil
}

// ItemState is the persisted form of an item used by RestoreItem.
type ItemState struct {
	ID               kernel.UUID
	Product          Product
	WarehouseID      *kernel.UUID
	Quantity         int
	UnitPrice        decimal.Decimal
	TaxAmount        decimal.Decimal
	DiscountAmount   decimal.Decimal
	Status           ItemStatus
	PriorStatus      ItemStatus
	ShippedQuantity  int
	ReturnedQuantity int
	ReturnID         *kernel.UUID
}

// RestoreItem rebuilds an item from persistence.
func RestoreItem(state ItemState) (*Item, error) {
	item, err := NewItem(state.ID, state.Product, state.WarehouseID, state.Quantity,
		state.UnitPrice, state.TaxAmount, state.DiscountAmount)
	if err != nil {
		return nil, err
	}
	if err = state.Status.Validate(); err != nil {
		return nil, err
	}
	if state.ShippedQuantity < 0 || state.ShippedQuantity > state.Quantity {
		return nil, errs.NewValueIsOutOfRangeError("shippedQuantity", state.ShippedQuantity, 0, state.Quantity)
	}
	if state.ReturnedQuantity < 0 || state.ReturnedQuantity > state.ShippedQuantity {
		return nil, errs.NewValueIsOutOfRangeError("returnedQuantity", state.ReturnedQuantity, 0, state.ShippedQuantity)
	}

	item.status = state.Status
	item.priorStatus = state.PriorStatus
	item.shippedQuantity = state.ShippedQuantity
	item.returnedQuantity = state.ReturnedQuantity
	item.returnID = state.ReturnID
	return item, nil
}

func (i *Item) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrItemIsNotConstructed
	}
	return nil
}

func (i *Item) ID() kernel.UUID {
	return i.id
}

func (i *Item) Product() Product {
	return i.product
}

// WarehouseID is the preferred warehouse of the line, or the warehouse it
// last shipped from.
func (i *Item) WarehouseID() *kernel.UUID {
	return i.warehouseID
}

func (i *Item) Quantity() int {
	return i.quantity
}

func (i *Item) UnitPrice() decimal.Decimal {
	return i.unitPrice
}

func (i *Item) TaxAmount() decimal.Decimal {
	return i.taxAmount
}

func (i *Item) DiscountAmount() decimal.Decimal {
	return i.discountAmount
}

// Subtotal is unitPrice × quantity.
func (i *Item) Subtotal() decimal.Decimal {
	return kernel.RoundMoney(i.unitPrice.Mul(decimal.NewFromInt(int64(i.quantity))))
}

// Total is subtotal + tax − discount.
func (i *Item) Total() decimal.Decimal {
	return i.Subtotal().Add(i.taxAmount).Sub(i.discountAmount)
}

func (i *Item) Status() ItemStatus {
	return i.status
}

// PriorStatus is the status the item had before it joined its open return.
func (i *Item) PriorStatus() ItemStatus {
	return i.priorStatus
}

func (i *Item) ShippedQuantity() int {
	return i.shippedQuantity
}

// ReturnedQuantity counts the units in returns, open or settled.
func (i *Item) ReturnedQuantity() int {
	return i.returnedQuantity
}

// ReturnableQuantity is the shipped quantity not yet in a return.
func (i *Item) ReturnableQuantity() int {
	return i.shippedQuantity - i.returnedQuantity
}

// RemainingToShip is the quantity not yet dispatched.
func (i *Item) RemainingToShip() int {
	return i.quantity - i.shippedQuantity
}

// ReturnID is the open return of the line, or the return that took its last
// units.
func (i *Item) ReturnID() *kernel.UUID {
	return i.returnID
}

func (i *Item) IsCancelled() bool {
	return i.status == ItemCancelled
}

func (i *Item) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *Item) changeQuantity(quantity int, taxAmount decimal.Decimal) error {
	if quantity < i.shippedQuantity {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, i.shippedQuantity, "unbounded")
	}
	if err := errors.Join(i.setQuantity(quantity), kernel.ValidateAmount("taxAmount", taxAmount)); err != nil {
		return err
	}
	i.taxAmount = kernel.RoundMoney(taxAmount)
	if i.discountAmount.GreaterThan(i.Subtotal().Add(i.taxAmount)) {
		i.discountAmount = i.Subtotal().Add(i.taxAmount)
	}
	switch {
	case i.status == ItemShipped && i.shippedQuantity < i.quantity:
		i.status = ItemProcessing
	case i.status == ItemProcessing && i.shippedQuantity == i.quantity:
		i.status = ItemShipped
	}
	return nil
}

func (i *Item) ship(quantity int, warehouseID kernel.UUID) error {
	if quantity <= 0 || quantity > i.RemainingToShip() {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, i.RemainingToShip())
	}
	if i.status != ItemPending && i.status != ItemProcessing {
		return errs.NewIllegalTransitionError("item", i.status, ItemShipped)
	}
	i.shippedQuantity += quantity
	i.warehouseID = &warehouseID
	if i.shippedQuantity == i.quantity {
		i.status = ItemShipped
	} else {
		i.status = ItemProcessing
	}
	return nil
}

// unship takes back units whose shipment failed or came back undelivered.
func (i *Item) unship(quantity int) error {
	if i.returnID != nil || i.returnedQuantity > 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"orderItemId",
			fmt.Errorf("item %s has units in a return", i.id),
		)
	}
	if i.status != ItemProcessing && i.status != ItemShipped {
		return errs.NewIllegalTransitionError("item", i.status, ItemProcessing)
	}
	if quantity <= 0 || quantity > i.shippedQuantity {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, i.shippedQuantity)
	}
	i.shippedQuantity -= quantity
	if i.shippedQuantity == 0 {
		i.status = ItemPending
	} else {
		i.status = ItemProcessing
	}
	return nil
}

func (i *Item) deliver() {
	if i.status == ItemShipped {
		i.status = ItemDelivered
	}
}

func (i *Item) cancel() {
	i.status = ItemCancelled
}

// markReturned puts quantity units of the line in a return. The line is
// returned once every unit is.
func (i *Item) markReturned(returnID kernel.UUID, quantity int) error {
	if !i.status.IsReturnable() {
		return errs.NewIllegalTransitionError("item", i.status, ItemReturned)
	}
	if i.returnID != nil {
		return errs.NewValueIsInvalidErrorWithCause(
			"orderItemId",
			fmt.Errorf("item %s already belongs to return %s", i.id, i.returnID),
		)
	}
	if quantity <= 0 || quantity > i.ReturnableQuantity() {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, i.ReturnableQuantity())
	}
	i.priorStatus = i.status
	i.returnedQuantity += quantity
	i.returnID = &returnID
	if i.returnedQuantity == i.quantity {
		i.status = ItemReturned
	}
	return nil
}

func (i *Item) revertReturn(returnID kernel.UUID, quantity int) {
	if i.returnID == nil || !i.returnID.IsEqual(returnID) {
		return
	}
	i.returnedQuantity -= min(quantity, i.returnedQuantity)
	i.status = i.priorStatus
	i.priorStatus = UnknownItemStatus
	i.returnID = nil
}

// settleReturn frees a partly returned line for a later return. Fully
// returned lines keep the return that took their last units.
func (i *Item) settleReturn(returnID kernel.UUID) {
	if i.returnID == nil || !i.returnID.IsEqual(returnID) || i.status == ItemReturned {
		return
	}
	i.priorStatus = UnknownItemStatus
	i.returnID = nil
}
