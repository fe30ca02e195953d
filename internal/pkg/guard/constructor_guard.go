// Package guard holds the constructor guard shared by commands, queries and
// value objects that must not be used as zero values.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks a struct as built by its constructor. The zero value
// is "not constructed", so embedding a guard lets Validate tell a real command
// apart from CreateOrderCommand{} or similar literals.
//
// Example:
//
//	var ErrAdjustStockCommandIsNotConstructed = errors.New("AdjustStockCommand must be created via NewAdjustStockCommand")
//
//	type AdjustStockCommand struct {
//	    delta int
//	    guard guard.ConstructorGuard
//	}
//
//	func (c AdjustStockCommand) Validate() error {
//	    return c.guard.Validate(ErrAdjustStockCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard in the constructed state.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
