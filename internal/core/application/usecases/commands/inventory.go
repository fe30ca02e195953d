package commands

import (
	"context"
	"fmt"

	"fulfillment/internal/core/application/ledger"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// OrderLine is one requested line of an order.
type OrderLine struct {
	ItemID    kernel.UUID
	ProductID kernel.UUID
	VariantID *kernel.UUID
	// WarehouseID is the preferred warehouse, drawn from first when stocked.
	WarehouseID *kernel.UUID
	Quantity    int
}

func (l OrderLine) validate() error {
	if err := l.ItemID.Validate(); err != nil {
		return err
	}
	if err := l.ProductID.Validate(); err != nil {
		return err
	}
	if l.Quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", l.Quantity))
	}
	return nil
}

// Pricing resolves catalog prices and taxes for new order lines.
type Pricing struct {
	Catalog  ports.Catalog
	Tax      ports.TaxCalculator
	Shipping ports.ShippingCalculator
}

// newItem prices a line from the catalog. Inactive products cannot be sold.
func (p Pricing) newItem(ctx context.Context, line OrderLine) (*order.Item, error) {
	product, err := p.Catalog.Product(ctx, line.ProductID, line.VariantID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, errs.NewValueIsInvalidErrorWithCause("productId", fmt.Errorf("%s is not for sale", product.SKU))
	}

	return order.NewItem(
		line.ItemID,
		order.Product{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			SKU:       product.SKU,
			IsDigital: product.IsDigital,
		},
		line.WarehouseID,
		line.Quantity,
		product.Price,
		p.tax(product, line.Quantity, product.Price),
		decimal.Zero,
	)
}

// taxFor recomputes the tax of an existing line at a new quantity.
func (p Pricing) taxFor(item *order.Item, quantity int) decimal.Decimal {
	product := ports.CatalogProduct{
		ProductID: item.Product().ProductID,
		VariantID: item.Product().VariantID,
		SKU:       item.Product().SKU,
		Price:     item.UnitPrice(),
		IsDigital: item.Product().IsDigital,
		Active:    true,
	}
	return p.tax(product, quantity, item.UnitPrice())
}

func (p Pricing) tax(product ports.CatalogProduct, quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	if p.Tax == nil {
		return decimal.Zero
	}
	return kernel.ClampZero(p.Tax(product, quantity, unitPrice.Mul(decimal.NewFromInt(int64(quantity)))))
}

func (p Pricing) shipping(o *order.Order) decimal.Decimal {
	if p.Shipping == nil {
		return decimal.Zero
	}
	return kernel.ClampZero(p.Shipping(o))
}

// reserveItem splits the unshipped quantity of a physical line across
// warehouses and holds it. A deficit fails the line; the caller rolls back.
func reserveItem(ctx context.Context, l *ledger.Ledger, orderID kernel.UUID, item *order.Item) error {
	if item.Product().IsDigital || item.IsCancelled() || item.RemainingToShip() == 0 {
		return nil
	}

	product := item.Product()
	qty := item.RemainingToShip()
	allocation, err := l.AllocateAcrossWarehouses(ctx, product.ProductID, product.VariantID, qty, item.WarehouseID())
	if err != nil {
		return err
	}
	if !allocation.IsComplete() {
		return errs.NewInsufficientStockError(product.ProductID.String(), qty, allocation.Allocated())
	}

	for _, line := range allocation.Lines {
		hold := ledger.Hold{OrderID: orderID, OrderItemID: item.ID(), StockRecordID: line.StockRecordID}
		if err = l.Reserve(ctx, hold, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// reserveInventory holds stock for every line of an order.
func reserveInventory(ctx context.Context, l *ledger.Ledger, o *order.Order) error {
	for _, item := range o.Items() {
		if err := reserveItem(ctx, l, o.ID(), item); err != nil {
			return err
		}
	}
	return nil
}

// unreserveInventory releases every active hold of an order.
func unreserveInventory(ctx context.Context, l *ledger.Ledger, o *order.Order) error {
	_, err := l.ReleaseOrder(ctx, o.ID())
	return err
}
