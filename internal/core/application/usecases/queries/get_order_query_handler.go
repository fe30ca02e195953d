package queries

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads orders straight from the tables, bypassing the
// aggregate so no row locks are taken.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns ErrObjectNotFound for an unknown order. Items come back in
// insertion order and logs oldest first.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)
	resp, err := h.header(db, query.OrderID())
	if err != nil {
		return nil, err
	}
	if resp.Items, err = h.items(db, query.OrderID()); err != nil {
		return nil, err
	}
	if resp.Logs, err = h.logs(db, query.OrderID(), query.CustomerView()); err != nil {
		return nil, err
	}
	if resp.Payment, err = h.payment(db, query.OrderID()); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h GetOrderQueryHandler) header(db *gorm.DB, orderID kernel.UUID) (*GetOrderQueryResponse, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			number,
			status,
			payment_status,
			fulfillment_status,
			currency,
			subtotal,
			tax_total,
			shipping_total,
			discount_total,
			grand_total,
			exchange_for_id,
			created_at,
			updated_at
		FROM orders
		WHERE id = ?
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}
		return nil, errs.NewObjectNotFoundError("orderID", orderID)
	}

	var (
		resp                                     GetOrderQueryResponse
		id                                       uuid.UUID
		exchangeFor                              *uuid.UUID
		status, paymentStatus, fulfillmentStatus int
	)
	err = rows.Scan(
		&id,
		&resp.Number,
		&status,
		&paymentStatus,
		&fulfillmentStatus,
		&resp.Currency,
		&resp.Subtotal,
		&resp.TaxTotal,
		&resp.ShippingTotal,
		&resp.DiscountTotal,
		&resp.GrandTotal,
		&exchangeFor,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return nil, err
	}
	if resp.ExchangeForID, err = kernel.OptionalUUIDFromBytes(exchangeFor); err != nil {
		return nil, err
	}
	resp.Status = order.Status(status)
	resp.PaymentStatus = order.PaymentStatus(paymentStatus)
	resp.FulfillmentStatus = order.FulfillmentStatus(fulfillmentStatus)

	return &resp, rows.Err()
}

func (h GetOrderQueryHandler) items(db *gorm.DB, orderID kernel.UUID) ([]OrderItemView, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			product_id,
			variant_id,
			sku,
			is_digital,
			quantity,
			shipped_quantity,
			returned_quantity,
			unit_price,
			tax_amount,
			discount_amount,
			status
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]OrderItemView, 0)
	for rows.Next() {
		var (
			item          OrderItemView
			id, productID uuid.UUID
			variantID     *uuid.UUID
			status        int
		)
		err = rows.Scan(
			&id,
			&productID,
			&variantID,
			&item.SKU,
			&item.IsDigital,
			&item.Quantity,
			&item.ShippedQuantity,
			&item.ReturnedQuantity,
			&item.UnitPrice,
			&item.TaxAmount,
			&item.DiscountAmount,
			&status,
		)
		if err != nil {
			return nil, err
		}

		if item.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if item.ProductID, err = kernel.UUIDFromBytes(productID[:]); err != nil {
			return nil, err
		}
		if item.VariantID, err = kernel.OptionalUUIDFromBytes(variantID); err != nil {
			return nil, err
		}
		item.Status = order.ItemStatus(status)
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (h GetOrderQueryHandler) logs(db *gorm.DB, orderID kernel.UUID, customerView bool) ([]OrderLogView, error) {
	sql := `
		SELECT
			previous,
			next,
			actor,
			message,
			visibility,
			created_at
		FROM order_logs
		WHERE order_id = ?`
	args := []any{orderID.Bytes()}
	if customerView {
		sql += ` AND visibility <> ?`
		args = append(args, int(order.VisibleToAdmin))
	}
	sql += ` ORDER BY position`

	rows, err := db.Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]OrderLogView, 0)
	for rows.Next() {
		var (
			entry                      OrderLogView
			previous, next, visibility int
			createdAt                  time.Time
		)
		if err = rows.Scan(&previous, &next, &entry.Actor, &entry.Message, &visibility, &createdAt); err != nil {
			return nil, err
		}
		entry.Previous = order.Status(previous)
		entry.Next = order.Status(next)
		entry.Visibility = order.Visibility(visibility)
		entry.CreatedAt = createdAt
		logs = append(logs, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// payment returns nil for orders that never reached the gateway.
func (h GetOrderQueryHandler) payment(db *gorm.DB, orderID kernel.UUID) (*PaymentView, error) {
	rows, err := db.Raw(`
		SELECT
			id,
			status,
			amount,
			authorized_amount,
			captured_amount,
			refunded_amount
		FROM payments
		WHERE order_id = ?
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var (
		view   PaymentView
		id     uuid.UUID
		status int
	)
	err = rows.Scan(&id, &status, &view.Amount, &view.AuthorizedAmount, &view.CapturedAmount, &view.RefundedAmount)
	if err != nil {
		return nil, err
	}
	if view.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return nil, err
	}
	view.Status = payment.Status(status)

	return &view, rows.Err()
}
