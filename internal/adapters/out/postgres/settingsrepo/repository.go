// Package settingsrepo stores service wide key/value settings such as the
// default currency.
package settingsrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingDTO struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (SettingDTO) TableName() string {
	return "settings"
}

// GormSettingsRepository implements ports.SettingsRepository.
type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns errs.ErrObjectNotFound for a key that was never set.
func (r *GormSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var dto SettingDTO
	if err := r.db.WithContext(ctx).First(&dto, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.NewObjectNotFoundError("setting", key)
		}
		return "", err
	}
	return dto.Value, nil
}

func (r *GormSettingsRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errs.NewValueIsRequiredError("key")
	}

	dto := SettingDTO{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&dto).Error
}
