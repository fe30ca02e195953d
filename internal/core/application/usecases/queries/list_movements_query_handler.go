package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListMovementsQueryHandler struct {
	db *gorm.DB
}

func NewListMovementsQueryHandler(db *gorm.DB) ListMovementsQueryHandler {
	return ListMovementsQueryHandler{db: db}
}

func (h ListMovementsQueryHandler) Handle(
	ctx context.Context,
	query ListMovementsQuery,
) ([]ListMovementsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT
			id,
			stock_record_id,
			type,
			status,
			quantity,
			reference_type,
			reference_id,
			batch,
			unit_cost,
			note,
			created_at,
			completed_at
		FROM stock_movements
		WHERE stock_record_id = ?`
	args := []any{query.StockRecordID().Bytes()}
	if query.MovementType() != nil {
		sql += ` AND type = ?`
		args = append(args, int(*query.MovementType()))
	}
	sql += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, query.Limit())

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]ListMovementsQueryResponse, 0)
	for rows.Next() {
		var (
			m                 ListMovementsQueryResponse
			id, stockRecordID uuid.UUID
			movementType      int
			status            int
			referenceType     string
		)
		err = rows.Scan(
			&id,
			&stockRecordID,
			&movementType,
			&status,
			&m.Quantity,
			&referenceType,
			&m.ReferenceID,
			&m.Batch,
			&m.UnitCost,
			&m.Note,
			&m.CreatedAt,
			&m.CompletedAt,
		)
		if err != nil {
			return nil, err
		}

		if m.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if m.StockRecordID, err = kernel.UUIDFromBytes(stockRecordID[:]); err != nil {
			return nil, err
		}
		m.Type = inventory.MovementType(movementType)
		m.Status = inventory.MovementStatus(status)
		m.ReferenceType = kernel.EntityType(referenceType)
		movements = append(movements, m)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}
