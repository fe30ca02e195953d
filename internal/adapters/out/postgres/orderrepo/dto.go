// Package orderrepo maps the order aggregate onto the orders, order_items and
// order_logs tables.
package orderrepo

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the orders row. Totals are stored for reporting; RestoreOrder
// recomputes them from the items.
type OrderDTO struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number             string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	Status             int             `gorm:"not null;index"`
	PaymentStatus      int             `gorm:"not null"`
	FulfillmentStatus  int             `gorm:"not null"`
	Currency           string          `gorm:"type:char(3);not null"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxTotal           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ShippingTotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	OrderDiscount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountTotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	GrandTotal         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ShippingAddressRef string          `gorm:"type:varchar(128)"`
	BillingAddressRef  string          `gorm:"type:varchar(128)"`
	PaymentMethodRef   string          `gorm:"type:varchar(128)"`
	ExchangeForID      *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt          time.Time       `gorm:"not null;index"`
	UpdatedAt          time.Time       `gorm:"not null"`
	Items              []OrderItemDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Logs               []OrderLogDTO   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// OrderItemDTO is one order line. Position keeps the insertion order.
type OrderItemDTO struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position         int             `gorm:"not null"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID        *uuid.UUID      `gorm:"type:uuid"`
	SKU              string          `gorm:"type:varchar(64);not null"`
	IsDigital        bool            `gorm:"not null"`
	WarehouseID      *uuid.UUID      `gorm:"type:uuid"`
	Quantity         int             `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxAmount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status           int             `gorm:"not null"`
	PriorStatus      int             `gorm:"not null"`
	ShippedQuantity  int             `gorm:"not null"`
	ReturnedQuantity int             `gorm:"not null;default:0"`
	ReturnID         *uuid.UUID      `gorm:"type:uuid;index"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

// OrderLogDTO is one status change. Rows are inserted once and never updated;
// Position is the index of the entry in the order's log.
type OrderLogDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Position   int       `gorm:"not null"`
	Previous   int       `gorm:"not null"`
	Next       int       `gorm:"not null"`
	Actor      string    `gorm:"type:varchar(128);not null"`
	Message    string    `gorm:"type:text"`
	Visibility int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (OrderLogDTO) TableName() string {
	return "order_logs"
}

func fromDomain(o *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:                 o.ID().Bytes(),
		Number:             o.Number(),
		Status:             int(o.Status()),
		PaymentStatus:      int(o.PaymentStatus()),
		FulfillmentStatus:  int(o.FulfillmentStatus()),
		Currency:           o.Currency(),
		Subtotal:           o.Subtotal(),
		TaxTotal:           o.TaxTotal(),
		ShippingTotal:      o.ShippingTotal(),
		OrderDiscount:      o.OrderDiscount(),
		DiscountTotal:      o.DiscountTotal(),
		GrandTotal:         o.GrandTotal(),
		ShippingAddressRef: o.Addresses().ShippingAddressRef,
		BillingAddressRef:  o.Addresses().BillingAddressRef,
		PaymentMethodRef:   o.PaymentMethodRef(),
		ExchangeForID:      kernel.OptionalBytes(o.ExchangeForID()),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
		Items:              make([]OrderItemDTO, 0, len(o.Items())),
		Logs:               make([]OrderLogDTO, 0, len(o.Logs())),
	}

	for i, item := range o.Items() {
		product := item.Product()
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:               item.ID().Bytes(),
			OrderID:          dto.ID,
			Position:         i,
			ProductID:        product.ProductID.Bytes(),
			VariantID:        kernel.OptionalBytes(product.VariantID),
			SKU:              product.SKU,
			IsDigital:        product.IsDigital,
			WarehouseID:      kernel.OptionalBytes(item.WarehouseID()),
			Quantity:         item.Quantity(),
			UnitPrice:        item.UnitPrice(),
			TaxAmount:        item.TaxAmount(),
			DiscountAmount:   item.DiscountAmount(),
			Status:           int(item.Status()),
			PriorStatus:      int(item.PriorStatus()),
			ShippedQuantity:  item.ShippedQuantity(),
			ReturnedQuantity: item.ReturnedQuantity(),
			ReturnID:         kernel.OptionalBytes(item.ReturnID()),
		})
	}

	for i, l := range o.Logs() {
		dto.Logs = append(dto.Logs, OrderLogDTO{
			ID:         l.ID().Bytes(),
			OrderID:    dto.ID,
			Position:   i,
			Previous:   int(l.Previous()),
			Next:       int(l.Next()),
			Actor:      l.Actor(),
			Message:    l.Message(),
			Visibility: int(l.Visibility()),
			CreatedAt:  l.CreatedAt(),
		})
	}

	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	exchangeForID, exchangeErr := kernel.OptionalUUIDFromBytes(dto.ExchangeForID)
	if err := errors.Join(idErr, exchangeErr); err != nil {
		return nil, err
	}

	items := make([]*order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, err := itemToDomain(itemDTO)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	logs := make([]*order.Log, 0, len(dto.Logs))
	for _, logDTO := range dto.Logs {
		logID, err := kernel.UUIDFromBytes(logDTO.ID[:])
		if err != nil {
			return nil, err
		}
		l, err := order.RestoreLog(logID, order.Status(logDTO.Previous), order.Status(logDTO.Next),
			logDTO.Actor, logDTO.Message, order.Visibility(logDTO.Visibility), logDTO.CreatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return order.RestoreOrder(order.State{
		ID:                id,
		Number:            dto.Number,
		Status:            order.Status(dto.Status),
		PaymentStatus:     order.PaymentStatus(dto.PaymentStatus),
		FulfillmentStatus: order.FulfillmentStatus(dto.FulfillmentStatus),
		Currency:          dto.Currency,
		ShippingTotal:     dto.ShippingTotal,
		OrderDiscount:     dto.OrderDiscount,
		Items:             items,
		Addresses: order.Addresses{
			ShippingAddressRef: dto.ShippingAddressRef,
			BillingAddressRef:  dto.BillingAddressRef,
		},
		PaymentMethodRef: dto.PaymentMethodRef,
		ExchangeForID:    exchangeForID,
		Logs:             logs,
		CreatedAt:        dto.CreatedAt,
		UpdatedAt:        dto.UpdatedAt,
	})
}

func itemToDomain(dto OrderItemDTO) (*order.Item, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	productID, productErr := kernel.UUIDFromBytes(dto.ProductID[:])
	variantID, variantErr := kernel.OptionalUUIDFromBytes(dto.VariantID)
	warehouseID, warehouseErr := kernel.OptionalUUIDFromBytes(dto.WarehouseID)
	returnID, returnErr := kernel.OptionalUUIDFromBytes(dto.ReturnID)
	if err := errors.Join(idErr, productErr, variantErr, warehouseErr, returnErr); err != nil {
		return nil, err
	}

	return order.RestoreItem(order.ItemState{
		ID: id,
		Product: order.Product{
			ProductID: productID,
			VariantID: variantID,
			SKU:       dto.SKU,
			IsDigital: dto.IsDigital,
		},
		WarehouseID:      warehouseID,
		Quantity:         dto.Quantity,
		UnitPrice:        dto.UnitPrice,
		TaxAmount:        dto.TaxAmount,
		DiscountAmount:   dto.DiscountAmount,
		Status:           order.ItemStatus(dto.Status),
		PriorStatus:      order.ItemStatus(dto.PriorStatus),
		ShippedQuantity:  dto.ShippedQuantity,
		ReturnedQuantity: dto.ReturnedQuantity,
		ReturnID:         returnID,
	})
}
