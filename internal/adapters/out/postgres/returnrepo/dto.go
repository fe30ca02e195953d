// Package returnrepo persists returns and their items.
package returnrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/returns"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReturnDTO struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number             string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status             int             `gorm:"not null;index"`
	Type               int             `gorm:"not null"`
	Reason             string          `gorm:"type:text"`
	RestockingFee      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ReturnShippingCost decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RefundAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Restocked          bool            `gorm:"not null"`
	Refunded           bool            `gorm:"not null"`
	RefundReference    string          `gorm:"type:varchar(128)"`
	ExchangeOrderID    *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
	CompletedAt        *time.Time
	Items              []ReturnItemDTO `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
}

func (ReturnDTO) TableName() string {
	return "returns"
}

type ReturnItemDTO struct {
	ReturnID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderItemID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Quantity    int             `gorm:"not null"`
	PriorStatus int             `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (ReturnItemDTO) TableName() string {
	return "return_items"
}

func fromDomain(r *returns.Return) ReturnDTO {
	dto := ReturnDTO{
		ID:                 r.ID().Bytes(),
		Number:             r.Number(),
		OrderID:            r.OrderID().Bytes(),
		Status:             int(r.Status()),
		Type:               int(r.Type()),
		Reason:             r.Reason(),
		RestockingFee:      r.RestockingFee(),
		ReturnShippingCost: r.ReturnShippingCost(),
		RefundAmount:       r.RefundAmount(),
		Restocked:          r.IsRestocked(),
		Refunded:           r.IsRefunded(),
		RefundReference:    r.RefundReference(),
		ExchangeOrderID:    kernel.OptionalBytes(r.ExchangeOrderID()),
		CreatedAt:          r.CreatedAt(),
		UpdatedAt:          r.UpdatedAt(),
		CompletedAt:        r.CompletedAt(),
		Items:              make([]ReturnItemDTO, 0, len(r.Items())),
	}
	for _, item := range r.Items() {
		dto.Items = append(dto.Items, ReturnItemDTO{
			ReturnID:    dto.ID,
			OrderItemID: item.OrderItemID.Bytes(),
			Quantity:    item.Quantity,
			PriorStatus: int(item.PriorStatus),
			Amount:      item.Amount,
		})
	}
	return dto
}

func toDomain(dto ReturnDTO) (*returns.Return, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	exchangeOrderID, exchangeErr := kernel.OptionalUUIDFromBytes(dto.ExchangeOrderID)
	if err := errors.Join(idErr, orderErr, exchangeErr); err != nil {
		return nil, err
	}

	items := make([]returns.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		itemID, err := kernel.UUIDFromBytes(itemDTO.OrderItemID[:])
		if err != nil {
			return nil, err
		}
		items = append(items, returns.Item{
			OrderItemID: itemID,
			Quantity:    itemDTO.Quantity,
			PriorStatus: order.ItemStatus(itemDTO.PriorStatus),
			Amount:      itemDTO.Amount,
		})
	}

	return returns.RestoreReturn(returns.State{
		ID:                 id,
		Number:             dto.Number,
		OrderID:            orderID,
		Status:             returns.Status(dto.Status),
		Type:               returns.Type(dto.Type),
		Reason:             dto.Reason,
		Items:              items,
		RestockingFee:      dto.RestockingFee,
		ReturnShippingCost: dto.ReturnShippingCost,
		RefundAmount:       dto.RefundAmount,
		Restocked:          dto.Restocked,
		Refunded:           dto.Refunded,
		RefundReference:    dto.RefundReference,
		ExchangeOrderID:    exchangeOrderID,
		CreatedAt:          dto.CreatedAt,
		UpdatedAt:          dto.UpdatedAt,
		CompletedAt:        dto.CompletedAt,
	})
}
