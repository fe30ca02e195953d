// Package catalogrepo reads the product facts the catalog service replicates
// into the catalog_products table. Catalog maintenance happens elsewhere;
// this service only reads.
package catalogrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductDTO struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID      `gorm:"type:uuid"`
	SKU       string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsDigital bool            `gorm:"not null"`
	Active    bool            `gorm:"not null;default:true"`
}

func (ProductDTO) TableName() string {
	return "catalog_products"
}

// GormCatalog implements ports.Catalog.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// Product returns the catalog entry of a product variant. Inactive products
// are returned as well; callers decide whether they can be sold.
func (c *GormCatalog) Product(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
) (ports.CatalogProduct, error) {
	if err := productID.Validate(); err != nil {
		return ports.CatalogProduct{}, err
	}

	query := c.db.WithContext(ctx).Where("product_id = ?", productID.Bytes())
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", variantID.Bytes())
	}

	var dto ProductDTO
	if err := query.First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			key := productID.String()
			if variantID != nil {
				key = fmt.Sprintf("%s/%s", productID, variantID)
			}
			return ports.CatalogProduct{}, errs.NewObjectNotFoundError("product", key)
		}
		return ports.CatalogProduct{}, err
	}

	return ports.CatalogProduct{
		ProductID: productID,
		VariantID: variantID,
		SKU:       dto.SKU,
		Price:     dto.Price,
		IsDigital: dto.IsDigital,
		Active:    dto.Active,
	}, nil
}
