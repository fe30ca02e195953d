// Package stockrepo persists the inventory ledger: stock records, the
// append-only movement log and the reservation index.
package stockrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecordDTO is one row per (product, variant, warehouse). The triple is
// unique with NULL variants treated as equal; the index is created by
// postgres.Migrate because the tag syntax cannot express NULLS NOT DISTINCT.
type StockRecordDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID       *uuid.UUID `gorm:"type:uuid"`
	WarehouseID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	OnHand          int        `gorm:"not null;check:chk_stock_on_hand,on_hand >= 0"`
	Reserved        int        `gorm:"not null;check:chk_stock_reserved,reserved >= 0 AND reserved <= on_hand"`
	InitialQuantity int        `gorm:"not null"`
	MinLevel        int        `gorm:"not null"`
	MaxLevel        int        `gorm:"not null"`
	ReorderPoint    int        `gorm:"not null"`
	Version         int        `gorm:"not null"`
}

func (StockRecordDTO) TableName() string {
	return "stock_records"
}

// MovementDTO is one ledger entry. Completed rows are never updated.
type MovementDTO struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	StockRecordID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type              int              `gorm:"not null"`
	Quantity          int              `gorm:"not null"`
	Status            int              `gorm:"not null;index"`
	ReferenceType     string           `gorm:"type:varchar(32);not null"`
	ReferenceID       string           `gorm:"type:varchar(64);not null"`
	SourceWarehouseID *uuid.UUID       `gorm:"type:uuid"`
	DestWarehouseID   *uuid.UUID       `gorm:"type:uuid"`
	Batch             string           `gorm:"type:varchar(64)"`
	UnitCost          *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Note              string           `gorm:"type:text"`
	CreatedAt         time.Time        `gorm:"not null;index"`
	CompletedAt       *time.Time
}

func (MovementDTO) TableName() string {
	return "stock_movements"
}

// ReservationDTO is the idempotency index of holds, keyed by
// order:item:stock record.
type ReservationDTO struct {
	Key           string    `gorm:"type:varchar(120);primaryKey"`
	StockRecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderItemID   uuid.UUID `gorm:"type:uuid;not null"`
	Quantity      int       `gorm:"not null"`
	Status        int       `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (ReservationDTO) TableName() string {
	return "stock_reservations"
}

func fromDomain(rec *inventory.StockRecord) StockRecordDTO {
	return StockRecordDTO{
		ID:              rec.ID().Bytes(),
		ProductID:       rec.ProductID().Bytes(),
		VariantID:       kernel.OptionalBytes(rec.VariantID()),
		WarehouseID:     rec.WarehouseID().Bytes(),
		OnHand:          rec.OnHand(),
		Reserved:        rec.Reserved(),
		InitialQuantity: rec.InitialQuantity(),
		MinLevel:        rec.Levels().MinLevel(),
		MaxLevel:        rec.Levels().MaxLevel(),
		ReorderPoint:    rec.Levels().ReorderPoint(),
		Version:         rec.Version(),
	}
}

func toDomain(dto StockRecordDTO) (*inventory.StockRecord, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	productID, productErr := kernel.UUIDFromBytes(dto.ProductID[:])
	variantID, variantErr := kernel.OptionalUUIDFromBytes(dto.VariantID)
	warehouseID, warehouseErr := kernel.UUIDFromBytes(dto.WarehouseID[:])
	levels, levelsErr := inventory.NewLevels(dto.MinLevel, dto.MaxLevel, dto.ReorderPoint)
	if err := errors.Join(idErr, productErr, variantErr, warehouseErr, levelsErr); err != nil {
		return nil, err
	}

	return inventory.RestoreStockRecord(id, productID, variantID, warehouseID,
		dto.OnHand, dto.Reserved, dto.InitialQuantity, levels, dto.Version)
}

func movementFromDomain(m *inventory.Movement) MovementDTO {
	details := m.Details()
	return MovementDTO{
		ID:                m.ID().Bytes(),
		StockRecordID:     m.StockRecordID().Bytes(),
		Type:              int(m.Type()),
		Quantity:          m.Quantity(),
		Status:            int(m.Status()),
		ReferenceType:     string(m.Reference().Type()),
		ReferenceID:       m.Reference().ID(),
		SourceWarehouseID: kernel.OptionalBytes(details.SourceWarehouseID),
		DestWarehouseID:   kernel.OptionalBytes(details.DestWarehouseID),
		Batch:             details.Batch,
		UnitCost:          details.UnitCost,
		Note:              details.Note,
		CreatedAt:         m.CreatedAt(),
		CompletedAt:       m.CompletedAt(),
	}
}

func movementToDomain(dto MovementDTO) (*inventory.Movement, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	stockRecordID, recErr := kernel.UUIDFromBytes(dto.StockRecordID[:])
	source, sourceErr := kernel.OptionalUUIDFromBytes(dto.SourceWarehouseID)
	dest, destErr := kernel.OptionalUUIDFromBytes(dto.DestWarehouseID)
	ref, refErr := kernel.NewEntityRef(kernel.EntityType(dto.ReferenceType), dto.ReferenceID)
	if err := errors.Join(idErr, recErr, sourceErr, destErr, refErr); err != nil {
		return nil, err
	}

	return inventory.RestoreMovement(id, stockRecordID, inventory.MovementType(dto.Type), dto.Quantity,
		inventory.MovementStatus(dto.Status), ref, inventory.MovementDetails{
			SourceWarehouseID: source,
			DestWarehouseID:   dest,
			Batch:             dto.Batch,
			UnitCost:          dto.UnitCost,
			Note:              dto.Note,
		}, dto.CreatedAt, dto.CompletedAt)
}

func reservationFromDomain(r *inventory.Reservation) ReservationDTO {
	return ReservationDTO{
		Key:           r.Key(),
		StockRecordID: r.StockRecordID().Bytes(),
		OrderID:       r.OrderID().Bytes(),
		OrderItemID:   r.OrderItemID().Bytes(),
		Quantity:      r.Quantity(),
		Status:        int(r.Status()),
		UpdatedAt:     r.UpdatedAt(),
	}
}

func reservationToDomain(dto ReservationDTO) (*inventory.Reservation, error) {
	stockRecordID, recErr := kernel.UUIDFromBytes(dto.StockRecordID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	itemID, itemErr := kernel.UUIDFromBytes(dto.OrderItemID[:])
	if err := errors.Join(recErr, orderErr, itemErr); err != nil {
		return nil, err
	}

	return inventory.RestoreReservation(stockRecordID, orderID, itemID, dto.Quantity,
		inventory.ReservationStatus(dto.Status), dto.UpdatedAt)
}
