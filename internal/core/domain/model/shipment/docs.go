// Package shipment models a dispatch of order items from one warehouse.
//
// A Shipment moves forward one step at a time from pending to delivered and
// may end as failed or returned from any non-terminal status. Each change
// appends a TrackingEvent.
package shipment
