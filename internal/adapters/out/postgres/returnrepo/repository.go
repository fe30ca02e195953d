package returnrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormReturnRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormReturnRepository(db *gorm.DB, tracker aggregateTracker) *GormReturnRepository {
	return &GormReturnRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormReturnRepository) Add(ctx context.Context, aggregate *returns.Return) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the return row. Items never change after the request.
func (r *GormReturnRepository) Update(ctx context.Context, aggregate *returns.Return) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&ReturnDTO{}).Where("id = ?", dto.ID).
		Select("status", "restocking_fee", "return_shipping_cost", "refund_amount", "restocked", "refunded",
			"refund_reference", "exchange_order_id", "updated_at", "completed_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("return", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormReturnRepository) Get(ctx context.Context, id kernel.UUID) (*returns.Return, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *GormReturnRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*returns.Return, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "returns"}}), id)
}

// ListAwaitingCompletion returns inspected returns that were restocked or
// refunded but not both, oldest change first.
func (r *GormReturnRepository) ListAwaitingCompletion(ctx context.Context, limit int) ([]*returns.Return, error) {
	var dtos []ReturnDTO
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND (restocked OR refunded)", int(returns.Inspected)).
		Order("updated_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	result := make([]*returns.Return, 0, len(dtos))
	for _, dto := range dtos {
		ret, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		result = append(result, ret)
	}
	return result, nil
}

func (r *GormReturnRepository) get(db *gorm.DB, id kernel.UUID) (*returns.Return, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ReturnDTO
	if err := db.Preload("Items").First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("return", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
