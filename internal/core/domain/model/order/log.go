package order

import (
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Visibility decides who may read a log entry.
type Visibility int

const (
	UnknownVisibility Visibility = iota
	VisibleToCustomer
	VisibleToAdmin
)

func (v Visibility) String() string {
	switch v {
	case VisibleToCustomer:
		return "customer"
	case VisibleToAdmin:
		return "admin"
	case UnknownVisibility:
	}
	return "unknown"
}

// ParseVisibility maps "customer" or "admin" to a Visibility. The empty
// string yields UnknownVisibility, which commands replace with their default.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "":
		return UnknownVisibility, nil
	case "customer":
		return VisibleToCustomer, nil
	case "admin":
		return VisibleToAdmin, nil
	}
	return UnknownVisibility, errs.NewValueIsInvalidErrorWithCause("visibility", fmt.Errorf("%q is not a valid visibility", s))
}

func (v Visibility) Validate() error {
	if v != VisibleToCustomer && v != VisibleToAdmin {
		return errs.NewValueIsInvalidErrorWithCause("visibility", fmt.Errorf("%d is not a valid visibility", v))
	}
	return nil
}

// Log is an immutable record of one status change. Logs are only ever
// appended to an order and inserted, never updated.
type Log struct {
	id         kernel.UUID
	previous   Status
	next       Status
	actor      string
	message    string
	visibility Visibility
	createdAt  time.Time
}

func newLog(previous, next Status, actor, message string, visibility Visibility, now time.Time) *Log {
	return &Log{
		id:         kernel.NewUUID(),
		previous:   previous,
		next:       next,
		actor:      actor,
		message:    message,
		visibility: visibility,
		createdAt:  now,
	}
}

// RestoreLog rebuilds a persisted log entry.
func RestoreLog(
	id kernel.UUID,
	previous, next Status,
	actor, message string,
	visibility Visibility,
	createdAt time.Time,
) (*Log, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &Log{
		id:         id,
		previous:   previous,
		next:       next,
		actor:      actor,
		message:    message,
		visibility: visibility,
		createdAt:  createdAt,
	}, nil
}

func (l *Log) ID() kernel.UUID {
	return l.id
}

func (l *Log) Previous() Status {
	return l.previous
}

func (l *Log) Next() Status {
	return l.next
}

func (l *Log) Actor() string {
	return l.actor
}

func (l *Log) Message() string {
	return l.message
}

func (l *Log) Visibility() Visibility {
	return l.visibility
}

func (l *Log) CreatedAt() time.Time {
	return l.createdAt
}
