package stockrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolation = "23505"

// GormStockRepository implements ports.StockRepository using GORM.
type GormStockRepository struct {
	db       *gorm.DB
	tracker  aggregateTracker
	versions versionTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// versionTracker remembers which version of a record the unit of work read,
// so Update can refuse to overwrite a concurrent write.
type versionTracker interface {
	LoadedVersion(id kernel.UUID) (int, bool)
	RememberVersion(id kernel.UUID, version int)
}

func NewGormStockRepository(db *gorm.DB, tracker aggregateTracker, versions versionTracker) *GormStockRepository {
	return &GormStockRepository{
		db:       db,
		tracker:  tracker,
		versions: versions,
	}
}

// Add inserts a new stock record. A second record for the same product,
// variant and warehouse is rejected with *errs.ObjectAlreadyExistError.
func (r *GormStockRepository) Add(ctx context.Context, rec *inventory.StockRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	dto := fromDomain(rec)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewObjectAlreadyExistError("stockRecord", rec.ID().String())
		}
		return err
	}

	r.versions.RememberVersion(rec.ID(), rec.Version())
	r.tracker.TrackAggregate(rec.ID(), rec)
	return nil
}

// Update writes quantities, levels and version back. When the record was
// read in this unit of work the write is conditional on the version read.
func (r *GormStockRepository) Update(ctx context.Context, rec *inventory.StockRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	dto := fromDomain(rec)
	query := r.db.WithContext(ctx).Model(&StockRecordDTO{}).Where("id = ?", dto.ID)
	expected, known := r.versions.LoadedVersion(rec.ID())
	if known {
		query = query.Where("version = ?", expected)
	}

	result := query.Updates(map[string]any{
		"on_hand":       dto.OnHand,
		"reserved":      dto.Reserved,
		"min_level":     dto.MinLevel,
		"max_level":     dto.MaxLevel,
		"reorder_point": dto.ReorderPoint,
		"version":       dto.Version,
	})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if known {
			return errs.NewVersionIsInvalidError("stockRecord",
				fmt.Errorf("record %s changed since version %d", rec.ID(), expected))
		}
		return errs.NewObjectNotFoundError("stockRecord", rec.ID().String())
	}

	r.versions.RememberVersion(rec.ID(), rec.Version())
	r.tracker.TrackAggregate(rec.ID(), rec)
	return nil
}

func (r *GormStockRepository) Get(ctx context.Context, id kernel.UUID) (*inventory.StockRecord, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *GormStockRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*inventory.StockRecord, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormStockRepository) Find(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	return r.find(r.db.WithContext(ctx), productID, variantID, warehouseID)
}

func (r *GormStockRepository) FindForUpdate(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), productID, variantID, warehouseID)
}

// ListByProductForUpdate locks the records of a product variant in id order.
func (r *GormStockRepository) ListByProductForUpdate(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
) ([]*inventory.StockRecord, error) {
	var dtos []StockRecordDTO
	query := withVariant(r.db.WithContext(ctx).Where("product_id = ?", productID.Bytes()), variantID)
	if err := query.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	records := make([]*inventory.StockRecord, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := r.restore(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *GormStockRepository) AddMovement(ctx context.Context, m *inventory.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}

	dto := movementFromDomain(m)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// UpdateMovement persists the status change of a pending movement. Rows
// that are no longer pending are never touched.
func (r *GormStockRepository) UpdateMovement(ctx context.Context, m *inventory.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}

	dto := movementFromDomain(m)
	result := r.db.WithContext(ctx).Model(&MovementDTO{}).
		Where("id = ? AND status = ?", dto.ID, int(inventory.Pending)).
		Updates(map[string]any{
			"status":       dto.Status,
			"completed_at": dto.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("pendingMovement", m.ID().String())
	}
	return nil
}

func (r *GormStockRepository) GetMovementForUpdate(ctx context.Context, id kernel.UUID) (*inventory.Movement, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto MovementDTO
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("movement", id.String())
		}
		return nil, err
	}

	return movementToDomain(dto)
}

func (r *GormStockRepository) GetReservation(ctx context.Context, key string) (*inventory.Reservation, error) {
	var dto ReservationDTO
	if err := r.db.WithContext(ctx).First(&dto, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("reservation", key)
		}
		return nil, err
	}

	return reservationToDomain(dto)
}

// SaveReservation upserts a reservation by key.
func (r *GormStockRepository) SaveReservation(ctx context.Context, res *inventory.Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}

	dto := reservationFromDomain(res)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "status", "updated_at"}),
	}).Create(&dto).Error
}

func (r *GormStockRepository) ListActiveReservations(
	ctx context.Context,
	orderID kernel.UUID,
	itemID *kernel.UUID,
) ([]*inventory.Reservation, error) {
	query := r.db.WithContext(ctx).Where("order_id = ? AND status = ?", orderID.Bytes(), int(inventory.Active))
	if itemID != nil {
		query = query.Where("order_item_id = ?", itemID.Bytes())
	}

	var dtos []ReservationDTO
	if err := query.Order("stock_record_id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	reservations := make([]*inventory.Reservation, 0, len(dtos))
	for _, dto := range dtos {
		res, err := reservationToDomain(dto)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

func (r *GormStockRepository) get(db *gorm.DB, id kernel.UUID) (*inventory.StockRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto StockRecordDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("stockRecord", id.String())
		}
		return nil, err
	}

	return r.restore(dto)
}

func (r *GormStockRepository) find(
	db *gorm.DB,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	var dto StockRecordDTO
	query := withVariant(db.Where("product_id = ? AND warehouse_id = ?", productID.Bytes(), warehouseID.Bytes()), variantID)
	if err := query.First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("stockRecord",
				fmt.Sprintf("product %s in warehouse %s", productID, warehouseID))
		}
		return nil, err
	}

	return r.restore(dto)
}

func (r *GormStockRepository) restore(dto StockRecordDTO) (*inventory.StockRecord, error) {
	rec, err := toDomain(dto)
	if err != nil {
		return nil, err
	}
	r.versions.RememberVersion(rec.ID(), rec.Version())
	return rec, nil
}

func withVariant(db *gorm.DB, variantID *kernel.UUID) *gorm.DB {
	if variantID == nil {
		return db.Where("variant_id IS NULL")
	}
	return db.Where("variant_id = ?", variantID.Bytes())
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
