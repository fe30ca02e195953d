// Package errs defines the error taxonomy of the fulfillment service.
//
// Field-level validation failures:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//   - ObjectNotFoundError and VersionIsInvalidError for persistence lookups
//
// Business failures of the ledger and the order lifecycle:
//   - InsufficientStockError: stock cannot cover a reservation, decrement or transfer
//   - IllegalTransitionError: a state machine edge does not exist
//   - ReservationDesyncError: a held reservation is not backed by physical stock
//   - ExternalServiceError, PaymentFailedError, ShipmentFailedError: collaborator I/O
//
// Every type pairs a sentinel (ErrValueIsRequired, ErrInsufficientStock, ...)
// with a struct carrying the details. Callers classify with errors.Is and read
// the details with errors.As.
package errs
