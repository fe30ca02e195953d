package returns

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrReturnIsNotConstructed = errors.New("Return must be created via NewReturn constructor")
)

// Item is one returned order line. Amount is the refundable value of the
// returned quantity, fixed when the return is requested.
type Item struct {
	OrderItemID kernel.UUID
	Quantity    int
	PriorStatus order.ItemStatus
	Amount      decimal.Decimal
}

// NewItem prices the returned quantity of an order line pro rata of the line total.
func NewItem(line *order.Item, quantity int) (Item, error) {
	if err := line.Validate(); err != nil {
		return Item{}, err
	}
	if quantity <= 0 || quantity > line.Quantity() {
		return Item{}, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, line.Quantity())
	}

	amount := line.Total()
	if quantity < line.Quantity() {
		amount = amount.Mul(decimal.NewFromInt(int64(quantity))).Div(decimal.NewFromInt(int64(line.Quantity())))
	}
	return Item{
		OrderItemID: line.ID(),
		Quantity:    quantity,
		PriorStatus: line.Status(),
		Amount:      kernel.RoundMoney(amount),
	}, nil
}

// Return is the aggregate of one RMA.
//
// Return follows these invariants:
//   - statuses advance one step at a time; rejected and completed are terminal
//   - restock and refund each happen at most once, tracked by flags
//   - completed implies restocked and, for refund returns, refunded
type Return struct {
	id      kernel.UUID
	number  string
	orderID kernel.UUID
	status  Status
	typ     Type
	reason  string
	items   []Item

	restockingFee      decimal.Decimal
	returnShippingCost decimal.Decimal
	refundAmount       decimal.Decimal

	restocked       bool
	refunded        bool
	refundReference string
	exchangeOrderID *kernel.UUID

	createdAt   time.Time
	updatedAt   time.Time
	completedAt *time.Time

	events kernel.EventRecorder

	isConstructed bool
}

// NewReturn opens a requested return. The caller tags the order lines through
// order.Order.AttachReturn in the same unit of work.
func NewReturn(
	id kernel.UUID,
	number string,
	orderID kernel.UUID,
	typ Type,
	reason string,
	items []Item,
	now time.Time,
) (*Return, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		typ.Validate(),
		validateNumber(number),
		validateItems(items),
	); err != nil {
		return nil, err
	}

	r := &Return{
		id:                 id,
		number:             number,
		orderID:            orderID,
		status:             Requested,
		typ:                typ,
		reason:             reason,
		items:              items,
		restockingFee:      decimal.Zero,
		returnShippingCost: decimal.Zero,
		refundAmount:       decimal.Zero,
		createdAt:          now,
		updatedAt:          now,
		isConstructed:      true,
	}
	r.record("return.requested", now)
	return r, nil
}

// State is the persisted form of a return used by RestoreReturn.
type State struct {
	ID                 kernel.UUID
	Number             string
	OrderID            kernel.UUID
	Status             Status
	Type               Type
	Reason             string
	Items              []Item
	RestockingFee      decimal.Decimal
	ReturnShippingCost decimal.Decimal
	RefundAmount       decimal.Decimal
	Restocked          bool
	Refunded           bool
	RefundReference    string
	ExchangeOrderID    *kernel.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
}

func RestoreReturn(state State) (*Return, error) {
	r, err := NewReturn(state.ID, state.Number, state.OrderID, state.Type, state.Reason, state.Items, state.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.events.PullEvents()
	if err = state.Status.Validate(); err != nil {
		return nil, err
	}

	r.status = state.Status
	r.restockingFee = state.RestockingFee
	r.returnShippingCost = state.ReturnShippingCost
	r.refundAmount = state.RefundAmount
	r.restocked = state.Restocked
	r.refunded = state.Refunded
	r.refundReference = state.RefundReference
	r.exchangeOrderID = state.ExchangeOrderID
	r.updatedAt = state.UpdatedAt
	r.completedAt = state.CompletedAt
	return r, nil
}

func (r *Return) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrReturnIsNotConstructed
	}
	return nil
}

func (r *Return) ID() kernel.UUID {
	return r.id
}

func (r *Return) Number() string {
	return r.number
}

func (r *Return) OrderID() kernel.UUID {
	return r.orderID
}

func (r *Return) Status() Status {
	return r.status
}

func (r *Return) Type() Type {
	return r.typ
}

func (r *Return) Reason() string {
	return r.reason
}

func (r *Return) Items() []Item {
	return r.items
}

func (r *Return) RestockingFee() decimal.Decimal {
	return r.restockingFee
}

func (r *Return) ReturnShippingCost() decimal.Decimal {
	return r.returnShippingCost
}

func (r *Return) RefundAmount() decimal.Decimal {
	return r.refundAmount
}

func (r *Return) IsRestocked() bool {
	return r.restocked
}

func (r *Return) IsRefunded() bool {
	return r.refunded
}

func (r *Return) RefundReference() string {
	return r.refundReference
}

func (r *Return) ExchangeOrderID() *kernel.UUID {
	return r.exchangeOrderID
}

func (r *Return) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Return) UpdatedAt() time.Time {
	return r.updatedAt
}

func (r *Return) CompletedAt() *time.Time {
	return r.completedAt
}

func (r *Return) PullEvents() []kernel.Event {
	return r.events.PullEvents()
}

// Lines lists the returned quantity of each order line.
func (r *Return) Lines() []order.ReturnLine {
	lines := make([]order.ReturnLine, 0, len(r.items))
	for _, item := range r.items {
		lines = append(lines, order.ReturnLine{ItemID: item.OrderItemID, Quantity: item.Quantity})
	}
	return lines
}

// ItemsAmount sums the refundable value of the returned lines.
func (r *Return) ItemsAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.items {
		sum = sum.Add(item.Amount)
	}
	return sum
}

func (r *Return) Approve(now time.Time) error {
	return r.moveTo(Approved, now)
}

func (r *Return) Receive(now time.Time) error {
	return r.moveTo(Received, now)
}

// Inspect records the fees charged to the customer and closes inspection.
func (r *Return) Inspect(restockingFee, returnShippingCost decimal.Decimal, now time.Time) error {
	if err := errors.Join(
		kernel.ValidateAmount("restockingFee", restockingFee),
		kernel.ValidateAmount("returnShippingCost", returnShippingCost),
	); err != nil {
		return err
	}
	if err := r.moveTo(Inspected, now); err != nil {
		return err
	}
	r.restockingFee = kernel.RoundMoney(restockingFee)
	r.returnShippingCost = kernel.RoundMoney(returnShippingCost)
	return nil
}

// Reject closes the return without restock or refund. The caller reverts the
// order lines through order.Order.DetachReturn.
func (r *Return) Reject(reason string, now time.Time) error {
	if err := r.moveTo(Rejected, now); err != nil {
		return err
	}
	if reason != "" {
		r.reason = reason
	}
	return nil
}

// SetRefundAmount fixes the amount to refund before completion starts. Once
// the refund is issued the amount can no longer change.
func (r *Return) SetRefundAmount(amount decimal.Decimal) error {
	if r.status != Inspected {
		return errs.NewIllegalTransitionError("return", r.status, Completed)
	}
	if r.refunded {
		return errs.NewValueIsInvalidErrorWithCause("refundAmount", fmt.Errorf("return %s is already refunded", r.number))
	}
	if err := kernel.ValidateAmount("refundAmount", amount); err != nil {
		return err
	}
	r.refundAmount = kernel.RoundMoney(amount)
	return nil
}

// NeedsGatewayRefund reports whether money has to go back through the payment gateway.
func (r *Return) NeedsGatewayRefund() bool {
	return r.typ == Refund && r.refundAmount.IsPositive()
}

func (r *Return) MarkRestocked(now time.Time) error {
	if r.status != Inspected {
		return errs.NewIllegalTransitionError("return", r.status, Completed)
	}
	r.restocked = true
	r.updatedAt = now
	return nil
}

// MarkRefunded records the gateway reference of the refund. An empty
// reference is used when nothing had to go through the gateway.
func (r *Return) MarkRefunded(reference string, now time.Time) error {
	if r.status != Inspected {
		return errs.NewIllegalTransitionError("return", r.status, Completed)
	}
	r.refunded = true
	r.refundReference = reference
	r.updatedAt = now
	return nil
}

func (r *Return) LinkExchangeOrder(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	r.exchangeOrderID = &orderID
	return nil
}

// Complete closes the return once both restock and refund are done.
func (r *Return) Complete(now time.Time) error {
	if !r.restocked || !r.refunded {
		return errs.NewIllegalTransitionErrorWithCause("return", r.status, Completed,
			fmt.Errorf("restocked=%t refunded=%t", r.restocked, r.refunded))
	}
	if err := r.moveTo(Completed, now); err != nil {
		return err
	}
	r.completedAt = &now
	return nil
}

// IsAwaitingCompletion reports an inspected return whose completion started
// but did not finish, typically because the refund failed.
func (r *Return) IsAwaitingCompletion() bool {
	return r.status == Inspected && (r.restocked || r.refunded)
}

func (r *Return) moveTo(target Status, now time.Time) error {
	next, err := r.status.TransitionTo(target)
	if err != nil {
		return err
	}
	r.status = next
	r.updatedAt = now
	r.record("return."+next.String(), now)
	return nil
}

func (r *Return) record(name string, now time.Time) {
	r.events.Record(kernel.NewEvent(name, kernel.RefTo(kernel.EntityReturn, r.id),
		map[string]string{
			"number":  r.number,
			"orderId": r.orderID.String(),
			"type":    r.typ.String(),
		}, now))
}

func validateNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return errs.NewValueIsRequiredError("returnNumber")
	}
	return nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	itemErrs := make([]error, 0, len(items))
	seen := make(map[kernel.UUID]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.OrderItemID]; dup {
			itemErrs = append(itemErrs, errs.NewValueIsInvalidErrorWithCause(
				"orderItemId", fmt.Errorf("%s is listed twice", item.OrderItemID)))
		}
		seen[item.OrderItemID] = struct{}{}
		if item.Quantity <= 0 {
			itemErrs = append(itemErrs, errs.NewValueIsInvalidErrorWithCause(
				"quantity", fmt.Errorf("%d is not greater than 0", item.Quantity)))
		}
		itemErrs = append(itemErrs, item.OrderItemID.Validate(), kernel.ValidateAmount("amount", item.Amount))
	}
	return errors.Join(itemErrs...)
}
