package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetLowStockQueryHandler struct {
	db *gorm.DB
}

func NewGetLowStockQueryHandler(db *gorm.DB) GetLowStockQueryHandler {
	return GetLowStockQueryHandler{db: db}
}

// Handle returns the most depleted records first.
func (h GetLowStockQueryHandler) Handle(ctx context.Context, query GetLowStockQuery) ([]GetLowStockQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT
			id,
			product_id,
			variant_id,
			warehouse_id,
			on_hand,
			reserved,
			reorder_point
		FROM stock_records
		WHERE on_hand - reserved <= reorder_point`
	args := make([]any, 0, 1)
	if query.WarehouseID() != nil {
		sql += ` AND warehouse_id = ?`
		args = append(args, query.WarehouseID().Bytes())
	}
	sql += ` ORDER BY on_hand - reserved - reorder_point, id`

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]GetLowStockQueryResponse, 0)
	for rows.Next() {
		var (
			rec                        GetLowStockQueryResponse
			id, productID, warehouseID uuid.UUID
			variantID                  *uuid.UUID
		)
		err = rows.Scan(
			&id,
			&productID,
			&variantID,
			&warehouseID,
			&rec.OnHand,
			&rec.Reserved,
			&rec.ReorderPoint,
		)
		if err != nil {
			return nil, err
		}

		if rec.StockRecordID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if rec.ProductID, err = kernel.UUIDFromBytes(productID[:]); err != nil {
			return nil, err
		}
		if rec.VariantID, err = kernel.OptionalUUIDFromBytes(variantID); err != nil {
			return nil, err
		}
		if rec.WarehouseID, err = kernel.UUIDFromBytes(warehouseID[:]); err != nil {
			return nil, err
		}
		rec.Available = rec.OnHand - rec.Reserved
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
