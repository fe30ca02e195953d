package payment

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewPayment constructor")
	ErrNothingToRefund         = errors.New("nothing left to refund")
)

// GatewayResult is what the payment gateway answered to one call.
type GatewayResult struct {
	Success   bool
	Reference string
	Message   string
}

// Transaction is an append-only record of one gateway call.
type Transaction struct {
	ID               kernel.UUID
	Kind             Kind
	Amount           decimal.Decimal
	Success          bool
	GatewayReference string
	IdempotencyKey   string
	Message          string
	CreatedAt        time.Time
}

// IdempotencyKey derives the key sent to the gateway for one logical call, so
// a retried call cannot move money twice.
func IdempotencyKey(kind Kind, subject kernel.EntityRef) string {
	return fmt.Sprintf("%s:%s", kind, subject)
}

// Payment tracks the amounts authorized, captured and refunded for an order.
//
// Payment follows these invariants:
//   - refunded never exceeds captured
//   - transactions are only appended
type Payment struct {
	id        kernel.UUID
	orderID   kernel.UUID
	amount    decimal.Decimal
	currency  string
	methodRef string
	status    Status

	authorizedAmount decimal.Decimal
	capturedAmount   decimal.Decimal
	refundedAmount   decimal.Decimal

	transactions []Transaction

	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

func NewPayment(
	id kernel.UUID,
	orderID kernel.UUID,
	amount decimal.Decimal,
	currency string,
	methodRef string,
	now time.Time,
) (*Payment, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		kernel.ValidateAmount("amount", amount),
		kernel.ValidateCurrency(currency),
	); err != nil {
		return nil, err
	}
	if methodRef == "" {
		return nil, errs.NewValueIsRequiredError("paymentMethodRef")
	}

	return &Payment{
		id:               id,
		orderID:          orderID,
		amount:           kernel.RoundMoney(amount),
		currency:         currency,
		methodRef:        methodRef,
		status:           Pending,
		authorizedAmount: decimal.Zero,
		capturedAmount:   decimal.Zero,
		refundedAmount:   decimal.Zero,
		createdAt:        now,
		updatedAt:        now,
		isConstructed:    true,
	}, nil
}

// State is the persisted form of a payment used by RestorePayment.
type State struct {
	ID               kernel.UUID
	OrderID          kernel.UUID
	Amount           decimal.Decimal
	Currency         string
	MethodRef        string
	Status           Status
	AuthorizedAmount decimal.Decimal
	CapturedAmount   decimal.Decimal
	RefundedAmount   decimal.Decimal
	Transactions     []Transaction
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func RestorePayment(state State) (*Payment, error) {
	p, err := NewPayment(state.ID, state.OrderID, state.Amount, state.Currency, state.MethodRef, state.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err = state.Status.Validate(); err != nil {
		return nil, err
	}
	if state.RefundedAmount.GreaterThan(state.CapturedAmount) {
		return nil, errs.NewValueIsOutOfRangeError("refundedAmount", state.RefundedAmount, 0, state.CapturedAmount)
	}

	p.status = state.Status
	p.authorizedAmount = state.AuthorizedAmount
	p.capturedAmount = state.CapturedAmount
	p.refundedAmount = state.RefundedAmount
	p.transactions = state.Transactions
	p.updatedAt = state.UpdatedAt
	return p, nil
}

func (p *Payment) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPaymentIsNotConstructed
	}
	return nil
}

func (p *Payment) ID() kernel.UUID {
	return p.id
}

func (p *Payment) OrderID() kernel.UUID {
	return p.orderID
}

func (p *Payment) Amount() decimal.Decimal {
	return p.amount
}

func (p *Payment) Currency() string {
	return p.currency
}

func (p *Payment) MethodRef() string {
	return p.methodRef
}

func (p *Payment) Status() Status {
	return p.status
}

func (p *Payment) AuthorizedAmount() decimal.Decimal {
	return p.authorizedAmount
}

func (p *Payment) CapturedAmount() decimal.Decimal {
	return p.capturedAmount
}

func (p *Payment) RefundedAmount() decimal.Decimal {
	return p.refundedAmount
}

func (p *Payment) Transactions() []Transaction {
	return p.transactions
}

func (p *Payment) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Payment) UpdatedAt() time.Time {
	return p.updatedAt
}

// Refundable is captured minus already refunded.
func (p *Payment) Refundable() decimal.Decimal {
	return p.capturedAmount.Sub(p.refundedAmount)
}

// CapRefund limits a requested refund to what is still refundable.
func (p *Payment) CapRefund(amount decimal.Decimal) decimal.Decimal {
	return decimal.Min(amount, p.Refundable())
}

// SucceededTransaction finds a successful call made with the given key.
func (p *Payment) SucceededTransaction(key string) (Transaction, bool) {
	for _, tx := range p.transactions {
		if tx.IdempotencyKey == key && tx.Success {
			return tx, true
		}
	}
	return Transaction{}, false
}

// RecordAuthorization stores the answer to an authorize call.
func (p *Payment) RecordAuthorization(result GatewayResult, key string, now time.Time) error {
	if p.status != Pending && p.status != Failed {
		return errs.NewIllegalTransitionError("payment", p.status, Processing)
	}
	p.append(Authorize, p.amount, result, key, now)
	if !result.Success {
		p.status = Failed
		return nil
	}
	p.authorizedAmount = p.amount
	p.status = Processing
	return nil
}

// RecordCapture stores the answer to a capture call.
func (p *Payment) RecordCapture(result GatewayResult, key string, now time.Time) error {
	if p.status != Processing {
		return errs.NewIllegalTransitionError("payment", p.status, Completed)
	}
	p.append(Capture, p.authorizedAmount, result, key, now)
	if result.Success {
		p.capturedAmount = p.authorizedAmount
		p.status = Completed
	}
	return nil
}

// RecordRefund stores the answer to a refund call. amount must already be
// capped with CapRefund.
func (p *Payment) RecordRefund(amount decimal.Decimal, result GatewayResult, key string, now time.Time) error {
	if p.status != Completed {
		return errs.NewIllegalTransitionError("payment", p.status, Refunded)
	}
	if err := kernel.ValidateAmount("amount", amount); err != nil {
		return err
	}
	if !amount.IsPositive() || amount.GreaterThan(p.Refundable()) {
		return errs.NewValueIsOutOfRangeErrorWithCause("amount", amount, "0.01", p.Refundable(), ErrNothingToRefund)
	}

	p.append(Refund, amount, result, key, now)
	if !result.Success {
		return nil
	}
	p.refundedAmount = p.refundedAmount.Add(amount)
	if p.refundedAmount.Equal(p.capturedAmount) {
		p.status = Refunded
	}
	return nil
}

// RecordVoid stores the answer to a void of an uncaptured authorization.
func (p *Payment) RecordVoid(result GatewayResult, key string, now time.Time) error {
	if p.status != Pending && p.status != Processing {
		return errs.NewIllegalTransitionError("payment", p.status, Cancelled)
	}
	p.append(Void, p.authorizedAmount, result, key, now)
	if result.Success {
		p.status = Cancelled
	}
	return nil
}

// IsFullyRefunded reports a captured payment with nothing left to refund.
func (p *Payment) IsFullyRefunded() bool {
	return p.capturedAmount.IsPositive() && p.Refundable().IsZero()
}

func (p *Payment) append(kind Kind, amount decimal.Decimal, result GatewayResult, key string, now time.Time) {
	p.transactions = append(p.transactions, Transaction{
		ID:               kernel.NewUUID(),
		Kind:             kind,
		Amount:           amount,
		Success:          result.Success,
		GatewayReference: result.Reference,
		IdempotencyKey:   key,
		Message:          result.Message,
		CreatedAt:        now,
	})
	p.updatedAt = now
}
