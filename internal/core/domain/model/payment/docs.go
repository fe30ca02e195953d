// Package payment keeps the service side record of an order's money flow.
//
// The gateway is the source of truth for money; Payment stores what the
// gateway answered, one append-only Transaction per call, and derives how
// much can still be refunded.
package payment
