// Package returns models a customer return (RMA) of shipped order items.
//
// A Return moves strictly through requested, approved, received and inspected
// before it completes. It may be rejected from any status before completion.
// Completion is split into two retryable steps, restock and refund, tracked
// by flags; the return reaches completed only when both are done.
package returns
