package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrIllegalTransition  = errors.New("illegal transition")
	ErrReservationDesync  = errors.New("reservation desync")
	ErrExternalService    = errors.New("external service error")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrShipmentFailed     = errors.New("shipment failed")
	ErrObjectAlreadyExist = errors.New("object already exists")
)

// InsufficientStockError is returned when a stock record cannot cover the
// requested quantity. It is a business outcome and is never retried.
type InsufficientStockError struct {
	StockRecordID string
	Requested     int
	Available     int
}

func NewInsufficientStockError(stockRecordID string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{StockRecordID: stockRecordID, Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: stock record %s, requested %d, available %d",
		ErrInsufficientStock, e.StockRecordID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IllegalTransitionError reports a state machine edge that does not exist.
// Cause, when set, narrows the failure (for example an invalid movement transition).
type IllegalTransitionError struct {
	Entity string
	From   string
	To     string
	Cause  error
}

func NewIllegalTransitionError(entity string, from, to fmt.Stringer) *IllegalTransitionError {
	return &IllegalTransitionError{Entity: entity, From: from.String(), To: to.String()}
}

func NewIllegalTransitionErrorWithCause(entity string, from, to fmt.Stringer, cause error) *IllegalTransitionError {
	return &IllegalTransitionError{Entity: entity, From: from.String(), To: to.String(), Cause: cause}
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s cannot move from %s to %s", ErrIllegalTransition, e.Entity, e.From, e.To)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %s)", e.Cause)
	}
	return msg
}

func (e *IllegalTransitionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrIllegalTransition, e.Cause}
	}
	return []error{ErrIllegalTransition}
}

// ReservationDesyncError means a held reservation could not be honored by the
// physical stock. It needs operator reconciliation.
type ReservationDesyncError struct {
	StockRecordID string
	Requested     int
	OnHand        int
	Reserved      int
}

func NewReservationDesyncError(stockRecordID string, requested, onHand, reserved int) *ReservationDesyncError {
	return &ReservationDesyncError{
		StockRecordID: stockRecordID,
		Requested:     requested,
		OnHand:        onHand,
		Reserved:      reserved,
	}
}

func (e *ReservationDesyncError) Error() string {
	return fmt.Sprintf("%s: stock record %s, requested %d, on hand %d, reserved %d",
		ErrReservationDesync, e.StockRecordID, e.Requested, e.OnHand, e.Reserved)
}

func (e *ReservationDesyncError) Unwrap() []error {
	return []error{ErrReservationDesync, ErrInsufficientStock}
}

// ExternalServiceError wraps an I/O failure of a collaborator call.
type ExternalServiceError struct {
	Service   string
	Operation string
	Cause     error
}

func NewExternalServiceError(service, operation string, cause error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Operation: operation, Cause: cause}
}

func (e *ExternalServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s (cause: %s)", ErrExternalService, e.Service, e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", ErrExternalService, e.Service, e.Operation)
}

func (e *ExternalServiceError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrExternalService, e.Cause}
	}
	return []error{ErrExternalService}
}

// PaymentFailedError is surfaced once gateway retries are exhausted or the
// gateway declines.
type PaymentFailedError struct {
	Reference string
	Cause     error
}

func NewPaymentFailedError(reference string, cause error) *PaymentFailedError {
	return &PaymentFailedError{Reference: reference, Cause: cause}
}

func (e *PaymentFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrPaymentFailed, e.Reference, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrPaymentFailed, e.Reference)
}

func (e *PaymentFailedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrPaymentFailed, e.Cause}
	}
	return []error{ErrPaymentFailed}
}

// ShipmentFailedError is surfaced when the carrier side of a shipment
// cannot be completed.
type ShipmentFailedError struct {
	Reference string
	Cause     error
}

func NewShipmentFailedError(reference string, cause error) *ShipmentFailedError {
	return &ShipmentFailedError{Reference: reference, Cause: cause}
}

func (e *ShipmentFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", ErrShipmentFailed, e.Reference, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrShipmentFailed, e.Reference)
}

func (e *ShipmentFailedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrShipmentFailed, e.Cause}
	}
	return []error{ErrShipmentFailed}
}

// ObjectAlreadyExistError reports a unique key collision on insert.
type ObjectAlreadyExistError struct {
	ParamName string
	ID        string
}

func NewObjectAlreadyExistError(paramName, id string) *ObjectAlreadyExistError {
	return &ObjectAlreadyExistError{ParamName: paramName, ID: id}
}

func (e *ObjectAlreadyExistError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrObjectAlreadyExist, e.ParamName, e.ID)
}

func (e *ObjectAlreadyExistError) Unwrap() error {
	return ErrObjectAlreadyExist
}

// IsValidation reports whether err belongs to the field-level validation family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValueIsInvalid) ||
		errors.Is(err, ErrValueIsRequired) ||
		errors.Is(err, ErrValueIsOutOfRange)
}
