package catalogrepo_test

import (
	"context"
	"testing"

	"fulfillment/internal/adapters/out/postgres/catalogrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CatalogIntegrationTestSuite struct {
	suite.Suite
	pg      *pgtest.Database
	catalog *catalogrepo.GormCatalog
}

func (suite *CatalogIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
	suite.catalog = catalogrepo.NewGormCatalog(pg.DB)
}

func (suite *CatalogIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate("catalog_products"))
}

func (suite *CatalogIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *CatalogIntegrationTestSuite) TestProduct_ResolvesVariant() {
	ctx := context.Background()
	productID := kernel.NewUUID()
	variantID := kernel.NewUUID()
	suite.Require().NoError(suite.pg.DB.Create(&[]catalogrepo.ProductDTO{
		{ID: uuid.New(), ProductID: productID.Bytes(), SKU: "TEE", Price: decimal.RequireFromString("10.00"), Active: true},
		{ID: uuid.New(), ProductID: productID.Bytes(), VariantID: kernel.OptionalBytes(&variantID), SKU: "TEE-XL",
			Price: decimal.RequireFromString("12.00"), Active: true},
	}).Error)

	base, err := suite.catalog.Product(ctx, productID, nil)
	suite.Require().NoError(err)
	suite.Equal("TEE", base.SKU)

	variant, err := suite.catalog.Product(ctx, productID, &variantID)
	suite.Require().NoError(err)
	suite.Equal("TEE-XL", variant.SKU)
	suite.True(decimal.RequireFromString("12.00").Equal(variant.Price))
	suite.Equal(variantID, *variant.VariantID)

	_, err = suite.catalog.Product(ctx, kernel.NewUUID(), nil)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func TestCatalogIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(CatalogIntegrationTestSuite))
}
