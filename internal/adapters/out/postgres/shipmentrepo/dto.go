// Package shipmentrepo persists shipments, their items and the carrier
// tracking history.
package shipmentrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"

	"github.com/google/uuid"
)

type ShipmentDTO struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Number         string             `gorm:"type:varchar(32);uniqueIndex;not null"`
	OrderID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	WarehouseID    uuid.UUID          `gorm:"type:uuid;not null"`
	Status         int                `gorm:"not null"`
	Carrier        string             `gorm:"type:varchar(64)"`
	TrackingNumber string             `gorm:"type:varchar(64)"`
	CreatedAt      time.Time          `gorm:"not null"`
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	Items          []ShipmentItemDTO  `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	TrackingEvents []TrackingEventDTO `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
}

func (ShipmentDTO) TableName() string {
	return "shipments"
}

// ShipmentItemDTO rows are written with the shipment and never change.
type ShipmentItemDTO struct {
	ShipmentID    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderItemID   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StockRecordID *uuid.UUID `gorm:"type:uuid"`
	Quantity      int        `gorm:"not null"`
}

func (ShipmentItemDTO) TableName() string {
	return "shipment_items"
}

// TrackingEventDTO is one entry of the append-only tracking history.
type TrackingEventDTO struct {
	ShipmentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq         int       `gorm:"primaryKey;autoIncrement:false"`
	Status      int       `gorm:"not null"`
	Carrier     string    `gorm:"type:varchar(64)"`
	Location    string    `gorm:"type:varchar(128)"`
	Description string    `gorm:"type:text"`
	OccurredAt  time.Time `gorm:"not null"`
}

func (TrackingEventDTO) TableName() string {
	return "shipment_tracking_events"
}

func fromDomain(s *shipment.Shipment) ShipmentDTO {
	dto := ShipmentDTO{
		ID:             s.ID().Bytes(),
		Number:         s.Number(),
		OrderID:        s.OrderID().Bytes(),
		WarehouseID:    s.WarehouseID().Bytes(),
		Status:         int(s.Status()),
		Carrier:        s.Carrier(),
		TrackingNumber: s.TrackingNumber(),
		CreatedAt:      s.CreatedAt(),
		ShippedAt:      s.ShippedAt(),
		DeliveredAt:    s.DeliveredAt(),
		Items:          make([]ShipmentItemDTO, 0, len(s.Items())),
		TrackingEvents: make([]TrackingEventDTO, 0, len(s.TrackingEvents())),
	}

	for _, item := range s.Items() {
		dto.Items = append(dto.Items, ShipmentItemDTO{
			ShipmentID:    dto.ID,
			OrderItemID:   item.OrderItemID.Bytes(),
			StockRecordID: kernel.OptionalBytes(item.StockRecordID),
			Quantity:      item.Quantity,
		})
	}
	for i, event := range s.TrackingEvents() {
		dto.TrackingEvents = append(dto.TrackingEvents, TrackingEventDTO{
			ShipmentID:  dto.ID,
			Seq:         i,
			Status:      int(event.Status),
			Carrier:     event.Carrier,
			Location:    event.Location,
			Description: event.Description,
			OccurredAt:  event.OccurredAt,
		})
	}

	return dto
}

func toDomain(dto ShipmentDTO) (*shipment.Shipment, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	warehouseID, warehouseErr := kernel.UUIDFromBytes(dto.WarehouseID[:])
	if err := errors.Join(idErr, orderErr, warehouseErr); err != nil {
		return nil, err
	}

	items := make([]shipment.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		itemID, itemErr := kernel.UUIDFromBytes(itemDTO.OrderItemID[:])
		stockRecordID, recErr := kernel.OptionalUUIDFromBytes(itemDTO.StockRecordID)
		if err := errors.Join(itemErr, recErr); err != nil {
			return nil, err
		}
		items = append(items, shipment.Item{
			OrderItemID:   itemID,
			StockRecordID: stockRecordID,
			Quantity:      itemDTO.Quantity,
		})
	}

	events := make([]shipment.TrackingEvent, 0, len(dto.TrackingEvents))
	for _, eventDTO := range dto.TrackingEvents {
		events = append(events, shipment.TrackingEvent{
			Status:      shipment.Status(eventDTO.Status),
			Carrier:     eventDTO.Carrier,
			Location:    eventDTO.Location,
			Description: eventDTO.Description,
			OccurredAt:  eventDTO.OccurredAt,
		})
	}

	return shipment.RestoreShipment(shipment.State{
		ID:             id,
		Number:         dto.Number,
		OrderID:        orderID,
		WarehouseID:    warehouseID,
		Status:         shipment.Status(dto.Status),
		Carrier:        dto.Carrier,
		TrackingNumber: dto.TrackingNumber,
		Items:          items,
		TrackingEvents: events,
		CreatedAt:      dto.CreatedAt,
		ShippedAt:      dto.ShippedAt,
		DeliveredAt:    dto.DeliveredAt,
	})
}
