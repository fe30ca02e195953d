package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder factory method.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderIsNotMutable is returned by item and discount changes outside pending/processing.
	ErrOrderIsNotMutable = errors.New("order items can only change while pending or processing")

	// ErrLastItemRemoval is returned when the last item would be removed after payment.
	ErrLastItemRemoval = errors.New("last item can only be removed from a pending, unpaid order")
)

// SystemActor is the actor recorded for transitions not driven by a person.
const SystemActor = "system"

// Addresses holds the opaque references to customer addresses.
type Addresses struct {
	ShippingAddressRef string
	BillingAddressRef  string
}

// ShipLine is a quantity of one item leaving a warehouse.
type ShipLine struct {
	ItemID   kernel.UUID
	Quantity int
}

// ReturnLine is a quantity of one item going back in a return.
type ReturnLine struct {
	ItemID   kernel.UUID
	Quantity int
}

// Order is the aggregate root of a customer purchase. It owns its items, its
// monetary totals and its status log.
//
// Order follows these invariants:
//   - grandTotal = subtotal + taxTotal + shippingTotal − discountTotal after every mutation
//   - grandTotal is never negative; discounts are clamped to keep it so
//   - status changes follow the adjacency of Status and each one appends a Log
//   - items change only while the order is pending or processing
//
// Totals are recomputed by an explicit recalculate call at the end of every
// mutating method.
type Order struct {
	id     kernel.UUID
	number string

	status            Status
	paymentStatus     PaymentStatus
	fulfillmentStatus FulfillmentStatus

	currency      string
	subtotal      decimal.Decimal
	taxTotal      decimal.Decimal
	shippingTotal decimal.Decimal
	orderDiscount decimal.Decimal
	discountTotal decimal.Decimal
	grandTotal    decimal.Decimal

	items            []*Item
	addresses        Addresses
	paymentMethodRef string
	exchangeForID    *kernel.UUID

	logs      []*Log
	createdAt time.Time
	updatedAt time.Time

	events kernel.EventRecorder

	isConstructed bool
}

// NewOrder creates an empty pending order. Items are added with AddItem.
//
// Parameters:
//   - id: unique identifier of the order
//   - number: unique customer facing number, see kernel.NewReferenceNumber
//   - currency: ISO 4217 code of every amount on the order
//   - addresses: shipping and billing address references
//   - paymentMethodRef: opaque reference understood by the payment gateway
//   - now: creation time
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewReferenceNumber(kernel.OrderNumberPrefix, now),
//	    "USD", order.Addresses{ShippingAddressRef: "addr-1"}, "pm_card_visa", now)
func NewOrder(
	id kernel.UUID,
	number string,
	currency string,
	addresses Addresses,
	paymentMethodRef string,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:            Pending,
		paymentStatus:     PaymentPending,
		fulfillmentStatus: Unfulfilled,
		subtotal:          decimal.Zero,
		taxTotal:          decimal.Zero,
		shippingTotal:     decimal.Zero,
		orderDiscount:     decimal.Zero,
		discountTotal:     decimal.Zero,
		grandTotal:        decimal.Zero,
		items:             make([]*Item, 0),
		addresses:         addresses,
		paymentMethodRef:  paymentMethodRef,
		createdAt:         now,
		updatedAt:         now,
		isConstructed:     true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		kernel.ValidateCurrency(currency),
	); err != nil {
		return nil, err
	}
	o.currency = currency

	o.events.Record(kernel.NewEvent("order.created", kernel.RefTo(kernel.EntityOrder, o.id),
		map[string]string{"number": o.number}, now))
	return o, nil
}

// State is the persisted form of an order used by RestoreOrder.
type State struct {
	ID                kernel.UUID
	Number            string
	Status            Status
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	Currency          string
	ShippingTotal     decimal.Decimal
	OrderDiscount     decimal.Decimal
	Items             []*Item
	Addresses         Addresses
	PaymentMethodRef  string
	ExchangeForID     *kernel.UUID
	Logs              []*Log
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RestoreOrder rebuilds an order from persistence. Totals are recomputed from
// the items rather than trusted from storage.
func RestoreOrder(state State) (*Order, error) {
	o, err := NewOrder(state.ID, state.Number, state.Currency, state.Addresses, state.PaymentMethodRef, state.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.events.PullEvents()

	if err = errors.Join(
		state.Status.Validate(),
		state.PaymentStatus.Validate(),
		state.FulfillmentStatus.Validate(),
		kernel.ValidateAmount("shippingTotal", state.ShippingTotal),
		kernel.ValidateAmount("orderDiscount", state.OrderDiscount),
	); err != nil {
		return nil, err
	}

	for _, item := range state.Items {
		if err = item.Validate(); err != nil {
			return nil, err
		}
	}

	o.status = state.Status
	o.paymentStatus = state.PaymentStatus
	o.fulfillmentStatus = state.FulfillmentStatus
	o.shippingTotal = state.ShippingTotal
	o.orderDiscount = state.OrderDiscount
	o.items = state.Items
	o.exchangeForID = state.ExchangeForID
	o.logs = state.Logs
	o.updatedAt = state.UpdatedAt
	o.recalculate()
	return o, nil
}

// Validate ensures the Order instance was properly constructed through NewOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) Number() string {
	return o.number
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) PaymentStatus() PaymentStatus {
	return o.paymentStatus
}

func (o *Order) FulfillmentStatus() FulfillmentStatus {
	return o.fulfillmentStatus
}

func (o *Order) Currency() string {
	return o.currency
}

func (o *Order) Subtotal() decimal.Decimal {
	return o.subtotal
}

func (o *Order) TaxTotal() decimal.Decimal {
	return o.taxTotal
}

func (o *Order) ShippingTotal() decimal.Decimal {
	return o.shippingTotal
}

// OrderDiscount is the order level discount before clamping.
func (o *Order) OrderDiscount() decimal.Decimal {
	return o.orderDiscount
}

// DiscountTotal is the order discount plus line discounts, clamped so the
// grand total stays non negative.
func (o *Order) DiscountTotal() decimal.Decimal {
	return o.discountTotal
}

func (o *Order) GrandTotal() decimal.Decimal {
	return o.grandTotal
}

// Items returns the order lines. The slice must not be modified.
func (o *Order) Items() []*Item {
	return o.items
}

func (o *Order) Addresses() Addresses {
	return o.addresses
}

func (o *Order) PaymentMethodRef() string {
	return o.paymentMethodRef
}

// ExchangeForID is set on orders spawned by an exchange return.
func (o *Order) ExchangeForID() *kernel.UUID {
	return o.exchangeForID
}

// Logs returns the append-only status log.
func (o *Order) Logs() []*Log {
	return o.logs
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// PullEvents hands the recorded domain events to the unit of work.
func (o *Order) PullEvents() []kernel.Event {
	return o.events.PullEvents()
}

// Item finds a line by id.
func (o *Order) Item(itemID kernel.UUID) (*Item, error) {
	for _, item := range o.items {
		if item.ID().IsEqual(itemID) {
			return item, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("orderItemId", itemID.String())
}

// AddItem appends a line and recomputes totals.
func (o *Order) AddItem(item *Item, now time.Time) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if !o.status.IsMutable() {
		return ErrOrderIsNotMutable
	}
	if _, err := o.Item(item.ID()); err == nil {
		return errs.NewValueIsInvalidErrorWithCause("orderItemId", fmt.Errorf("%s is already on the order", item.ID()))
	}

	o.items = append(o.items, item)
	o.touch(now)
	return nil
}

// RemoveItem drops an unshipped line. Removing the last live line is only
// allowed while the order is pending and the payment is not captured.
//
// Returns the removed item so the caller can release its reservations.
func (o *Order) RemoveItem(itemID kernel.UUID, now time.Time) (*Item, error) {
	if !o.status.IsMutable() {
		return nil, ErrOrderIsNotMutable
	}
	item, err := o.Item(itemID)
	if err != nil {
		return nil, err
	}
	if item.ShippedQuantity() > 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("orderItemId", fmt.Errorf("%s has shipped units", itemID))
	}
	if o.liveItemCount() == 1 && !item.IsCancelled() {
		if o.status != Pending || o.paymentStatus.IsCaptured() {
			return nil, ErrLastItemRemoval
		}
	}

	kept := make([]*Item, 0, len(o.items)-1)
	for _, it := range o.items {
		if !it.ID().IsEqual(itemID) {
			kept = append(kept, it)
		}
	}
	o.items = kept
	o.touch(now)
	return item, nil
}

// UpdateItemQuantity changes the quantity of a line. taxAmount is the tax of
// the line at the new quantity. The previous quantity is returned.
func (o *Order) UpdateItemQuantity(itemID kernel.UUID, quantity int, taxAmount decimal.Decimal, now time.Time) (int, error) {
	if !o.status.IsMutable() {
		return 0, ErrOrderIsNotMutable
	}
	item, err := o.Item(itemID)
	if err != nil {
		return 0, err
	}
	if item.IsCancelled() {
		return 0, errs.NewValueIsInvalidErrorWithCause("orderItemId", fmt.Errorf("%s is cancelled", itemID))
	}

	previous := item.Quantity()
	if err = item.changeQuantity(quantity, taxAmount); err != nil {
		return 0, err
	}
	o.touch(now)
	return previous, nil
}

// ApplyDiscount sets the order level discount. The effective discount is
// clamped so that the grand total is never negative.
func (o *Order) ApplyDiscount(amount decimal.Decimal, now time.Time) error {
	if err := kernel.ValidateAmount("discount", amount); err != nil {
		return err
	}
	if !o.status.IsMutable() {
		return ErrOrderIsNotMutable
	}
	o.orderDiscount = kernel.RoundMoney(amount)
	o.touch(now)
	return nil
}

// SetShippingTotal sets the shipping charge of the order.
func (o *Order) SetShippingTotal(amount decimal.Decimal, now time.Time) error {
	if err := kernel.ValidateAmount("shippingTotal", amount); err != nil {
		return err
	}
	if !o.status.IsMutable() {
		return ErrOrderIsNotMutable
	}
	o.shippingTotal = kernel.RoundMoney(amount)
	o.touch(now)
	return nil
}

// UpdateStatus moves the order along a legal edge and appends a Log.
//
// Returns *errs.IllegalTransitionError, leaving the order unchanged, when
// target is not a successor of the current status.
//
// Example:
//
//	err := o.UpdateStatus(order.Delivered, "ops@example.com", "", order.VisibleToCustomer, now)
//	// from Pending: errors.Is(err, errs.ErrIllegalTransition)
func (o *Order) UpdateStatus(target Status, actor, message string, visibility Visibility, now time.Time) error {
	next, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}
	if err = visibility.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(actor) == "" {
		actor = SystemActor
	}

	previous := o.status
	o.status = next
	o.logs = append(o.logs, newLog(previous, next, actor, message, visibility, now))
	o.events.Record(kernel.NewEvent("order.status_changed", kernel.RefTo(kernel.EntityOrder, o.id),
		map[string]string{"from": previous.String(), "to": next.String(), "number": o.number}, now))
	o.updatedAt = now
	return nil
}

// Cancel moves a pending or processing order to Cancelled and cancels every
// unshipped line. An uncaptured authorization is voided; releasing stock is
// the caller's job in the same transaction.
func (o *Order) Cancel(actor, reason string, now time.Time) error {
	if err := o.UpdateStatus(Cancelled, actor, reason, VisibleToCustomer, now); err != nil {
		return err
	}
	for _, item := range o.items {
		if item.ShippedQuantity() == 0 {
			item.cancel()
		}
	}
	if o.paymentStatus == PaymentPending || o.paymentStatus == PaymentAuthorized {
		o.paymentStatus = PaymentVoided
	}
	o.recalculate()
	return nil
}

// MarkPaymentAuthorized records a successful authorization.
func (o *Order) MarkPaymentAuthorized(now time.Time) error {
	if o.paymentStatus != PaymentPending && o.paymentStatus != PaymentFailed {
		return errs.NewIllegalTransitionError("payment", o.paymentStatus, PaymentAuthorized)
	}
	o.paymentStatus = PaymentAuthorized
	o.updatedAt = now
	return nil
}

// MarkPaymentCaptured records the capture and moves the order to Processing.
func (o *Order) MarkPaymentCaptured(actor string, now time.Time) error {
	if o.paymentStatus != PaymentAuthorized {
		return errs.NewIllegalTransitionError("payment", o.paymentStatus, PaymentPaid)
	}
	if err := o.UpdateStatus(Processing, actor, "payment captured", VisibleToCustomer, now); err != nil {
		return err
	}
	o.paymentStatus = PaymentPaid
	return nil
}

// MarkPaymentFailed records a declined or unreachable gateway.
func (o *Order) MarkPaymentFailed(now time.Time) {
	o.paymentStatus = PaymentFailed
	o.updatedAt = now
}

// MarkRefunded records money given back. A full refund of a returned order
// moves it to Refunded.
func (o *Order) MarkRefunded(full bool, actor string, now time.Time) error {
	if !o.paymentStatus.IsCaptured() {
		return errs.NewIllegalTransitionError("payment", o.paymentStatus, PaymentRefunded)
	}
	if !full {
		o.paymentStatus = PaymentPartiallyRefunded
		o.updatedAt = now
		return nil
	}
	o.paymentStatus = PaymentRefunded
	o.updatedAt = now
	if o.status == Returned {
		return o.UpdateStatus(Refunded, actor, "refund issued", VisibleToCustomer, now)
	}
	return nil
}

// ShipItems records dispatched quantities from one warehouse. Digital lines
// ship with the first shipment. When nothing is left to ship the order moves
// to Shipped, otherwise its fulfillment status becomes partially shipped.
// A shipped order takes shipments again only for units given back by
// UnshipItems.
func (o *Order) ShipItems(lines []ShipLine, warehouseID kernel.UUID, actor string, now time.Time) error {
	if !o.CanShip() {
		return errs.NewIllegalTransitionError("order", o.status, Shipped)
	}
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	for _, line := range lines {
		item, err := o.Item(line.ItemID)
		if err != nil {
			return err
		}
		if item.Product().IsDigital {
			continue
		}
		if err = item.ship(line.Quantity, warehouseID); err != nil {
			return err
		}
	}
	for _, item := range o.items {
		if item.Product().IsDigital && !item.IsCancelled() && item.RemainingToShip() > 0 {
			if err := item.ship(item.RemainingToShip(), warehouseID); err != nil {
				return err
			}
		}
	}

	o.updatedAt = now
	if o.remainingToShip() > 0 {
		o.fulfillmentStatus = PartiallyShipped
		return nil
	}
	o.fulfillmentStatus = FullyShipped
	if o.status == Shipped {
		return nil
	}
	return o.UpdateStatus(Shipped, actor, "all items shipped", VisibleToCustomer, now)
}

// CanShip reports whether a shipment may be created for the order.
func (o *Order) CanShip() bool {
	switch o.status {
	case Processing:
		return true
	case Shipped:
		return o.remainingToShip() > 0
	default:
		return false
	}
}

// UnshipItems gives back the units of a shipment that failed or came back
// to the sender, so they can ship again. The order keeps its status.
func (o *Order) UnshipItems(lines []ShipLine, now time.Time) error {
	if o.status != Processing && o.status != Shipped {
		return errs.NewIllegalTransitionError("order", o.status, Processing)
	}

	items := make([]*Item, 0, len(lines))
	for _, line := range lines {
		item, err := o.Item(line.ItemID)
		if err != nil {
			return err
		}
		if item.ReturnID() != nil || item.ReturnedQuantity() > 0 {
			return errs.NewValueIsInvalidErrorWithCause(
				"orderItemId",
				fmt.Errorf("%s has units in a return", line.ItemID),
			)
		}
		if line.Quantity <= 0 || line.Quantity > item.ShippedQuantity() {
			return errs.NewValueIsOutOfRangeError("quantity", line.Quantity, 1, item.ShippedQuantity())
		}
		if item.Status() != ItemProcessing && item.Status() != ItemShipped {
			return errs.NewIllegalTransitionError("item", item.Status(), ItemProcessing)
		}
		items = append(items, item)
	}
	for i, item := range items {
		if err := item.unship(lines[i].Quantity); err != nil {
			return err
		}
	}

	o.fulfillmentStatus = Unfulfilled
	for _, item := range o.items {
		if item.ShippedQuantity() > 0 {
			o.fulfillmentStatus = PartiallyShipped
			break
		}
	}
	o.updatedAt = now
	return nil
}

// DeliverItems marks shipped lines delivered without moving the order, for
// shipments that arrive after the order left Shipped.
func (o *Order) DeliverItems(itemIDs []kernel.UUID, now time.Time) error {
	for _, id := range itemIDs {
		item, err := o.Item(id)
		if err != nil {
			return err
		}
		item.deliver()
	}
	o.updatedAt = now
	return nil
}

// MarkDelivered moves a fully shipped order to Delivered.
func (o *Order) MarkDelivered(actor string, now time.Time) error {
	if o.fulfillmentStatus != FullyShipped {
		return errs.NewIllegalTransitionError("fulfillment", o.fulfillmentStatus, FullyDelivered)
	}
	if err := o.UpdateStatus(Delivered, actor, "all shipments delivered", VisibleToCustomer, now); err != nil {
		return err
	}
	for _, item := range o.items {
		item.deliver()
	}
	o.fulfillmentStatus = FullyDelivered
	return nil
}

// AttachReturn puts quantities of the given lines in a return. Each line must
// have left the warehouse, hold enough units not yet returned and not belong
// to another open return.
func (o *Order) AttachReturn(returnID kernel.UUID, lines []ReturnLine, now time.Time) error {
	if o.status != Shipped && o.status != Delivered && o.status != Returned {
		return errs.NewIllegalTransitionError("order", o.status, Returned)
	}
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	items := make([]*Item, 0, len(lines))
	for _, line := range lines {
		item, err := o.Item(line.ItemID)
		if err != nil {
			return err
		}
		if !item.Status().IsReturnable() || item.ReturnID() != nil {
			return errs.NewValueIsInvalidErrorWithCause(
				"orderItemId",
				fmt.Errorf("%s is %s and cannot be returned", line.ItemID, item.Status()),
			)
		}
		if line.Quantity <= 0 || line.Quantity > item.ReturnableQuantity() {
			return errs.NewValueIsOutOfRangeError("quantity", line.Quantity, 1, item.ReturnableQuantity())
		}
		items = append(items, item)
	}
	for i, item := range items {
		if err := item.markReturned(returnID, lines[i].Quantity); err != nil {
			return err
		}
	}
	o.updatedAt = now
	return nil
}

// DetachReturn takes the quantities of a rejected return back off its lines
// and restores their prior status.
func (o *Order) DetachReturn(returnID kernel.UUID, lines []ReturnLine, now time.Time) {
	for _, line := range lines {
		if item, err := o.Item(line.ItemID); err == nil {
			item.revertReturn(returnID, line.Quantity)
		}
	}
	o.updatedAt = now
}

// SettleReturn closes a restocked return on its lines. Partly returned lines
// may then join another return.
func (o *Order) SettleReturn(returnID kernel.UUID, now time.Time) {
	for _, item := range o.items {
		item.settleReturn(returnID)
	}
	o.updatedAt = now
}

// MarkReturned moves a shipped or delivered order to Returned once a return
// has been restocked.
func (o *Order) MarkReturned(actor string, now time.Time) error {
	if o.status == Returned || o.status == Refunded {
		return nil
	}
	return o.UpdateStatus(Returned, actor, "items returned", VisibleToCustomer, now)
}

// MarkAsExchangeFor links an exchange order to the order it replaces.
func (o *Order) MarkAsExchangeFor(originalID kernel.UUID) error {
	if err := originalID.Validate(); err != nil {
		return err
	}
	o.exchangeForID = &originalID
	return nil
}

// IsFullyReturned reports whether every unit of every live line is in a return.
func (o *Order) IsFullyReturned() bool {
	returned := 0
	for _, item := range o.items {
		if item.IsCancelled() {
			continue
		}
		if item.Status() != ItemReturned {
			return false
		}
		returned++
	}
	return returned > 0
}

func (o *Order) liveItemCount() int {
	count := 0
	for _, item := range o.items {
		if !item.IsCancelled() {
			count++
		}
	}
	return count
}

func (o *Order) remainingToShip() int {
	remaining := 0
	for _, item := range o.items {
		if !item.IsCancelled() {
			remaining += item.RemainingToShip()
		}
	}
	return remaining
}

func (o *Order) touch(now time.Time) {
	o.recalculate()
	o.updatedAt = now
}

// recalculate derives every total from the live lines, shipping and the
// order discount.
func (o *Order) recalculate() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	lineDiscounts := decimal.Zero
	for _, item := range o.items {
		if item.IsCancelled() {
			continue
		}
		subtotal = subtotal.Add(item.Subtotal())
		tax = tax.Add(item.TaxAmount())
		lineDiscounts = lineDiscounts.Add(item.DiscountAmount())
	}

	gross := subtotal.Add(tax).Add(o.shippingTotal)
	discount := decimal.Min(o.orderDiscount.Add(lineDiscounts), gross)

	o.subtotal = kernel.RoundMoney(subtotal)
	o.taxTotal = kernel.RoundMoney(tax)
	o.discountTotal = kernel.RoundMoney(discount)
	o.grandTotal = o.subtotal.Add(o.taxTotal).Add(o.shippingTotal).Sub(o.discountTotal)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return errs.NewValueIsRequiredError("orderNumber")
	}
	o.number = number
	return nil
}
