package postgres

import (
	"fulfillment/internal/adapters/out/postgres/catalogrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/paymentrepo"
	"fulfillment/internal/adapters/out/postgres/returnrepo"
	"fulfillment/internal/adapters/out/postgres/settingsrepo"
	"fulfillment/internal/adapters/out/postgres/shipmentrepo"
	"fulfillment/internal/adapters/out/postgres/stockrepo"

	"gorm.io/gorm"
)

// Models lists every table of the service in creation order.
func Models() []any {
	return []any{
		&stockrepo.StockRecordDTO{},
		&stockrepo.MovementDTO{},
		&stockrepo.ReservationDTO{},
		&orderrepo.OrderDTO{},
		&orderrepo.OrderItemDTO{},
		&orderrepo.OrderLogDTO{},
		&shipmentrepo.ShipmentDTO{},
		&shipmentrepo.ShipmentItemDTO{},
		&shipmentrepo.TrackingEventDTO{},
		&returnrepo.ReturnDTO{},
		&returnrepo.ReturnItemDTO{},
		&paymentrepo.PaymentDTO{},
		&paymentrepo.TransactionDTO{},
		&catalogrepo.ProductDTO{},
		&settingsrepo.SettingDTO{},
	}
}

// Migrate creates or updates the schema. Postgres 15 or later is required
// for the NULLS NOT DISTINCT stock location index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_stock_records_location
		ON stock_records (product_id, variant_id, warehouse_id) NULLS NOT DISTINCT`).Error
}
