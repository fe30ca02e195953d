package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture is a shop with one warehouse selling a $10 shirt and a $5 mug at
// 10% tax and $5 flat shipping.
type fixture struct {
	db        *memoryDB
	gateway   *MockPaymentGateway
	catalog   *MockCatalog
	pricing   commands.Pricing
	log       *zap.Logger
	warehouse kernel.UUID
	shirt     kernel.UUID
	mug       kernel.UUID
	ebook     kernel.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:        newMemoryDB(),
		gateway:   &MockPaymentGateway{},
		catalog:   &MockCatalog{},
		log:       zap.NewNop(),
		warehouse: kernel.NewUUID(),
		shirt:     kernel.NewUUID(),
		mug:       kernel.NewUUID(),
		ebook:     kernel.NewUUID(),
	}
	f.pricing = commands.Pricing{
		Catalog: f.catalog,
		Tax: func(_ ports.CatalogProduct, _ int, lineSubtotal decimal.Decimal) decimal.Decimal {
			return lineSubtotal.Mul(dec("0.1"))
		},
		Shipping: func(*order.Order) decimal.Decimal {
			return dec("5")
		},
	}

	for id, product := range map[kernel.UUID]ports.CatalogProduct{
		f.shirt: {SKU: "SHIRT", Price: dec("10"), Active: true},
		f.mug:   {SKU: "MUG", Price: dec("5"), Active: true},
		f.ebook: {SKU: "EBOOK", Price: dec("3"), IsDigital: true, Active: true},
	} {
		product.ProductID = id
		f.catalog.On("Product", mock.Anything, id, (*kernel.UUID)(nil)).Return(product, nil).Maybe()
	}
	return f
}

// seedStock stores a record with onHand units at the fixture warehouse.
func (f *fixture) seedStock(t *testing.T, productID kernel.UUID, onHand int) *inventory.StockRecord {
	t.Helper()
	return f.seedStockAt(t, productID, f.warehouse, onHand)
}

func (f *fixture) seedStockAt(t *testing.T, productID, warehouseID kernel.UUID, onHand int) *inventory.StockRecord {
	t.Helper()
	levels, err := inventory.NewLevels(0, 0, 2)
	require.NoError(t, err)
	rec, err := inventory.RestoreStockRecord(kernel.NewUUID(), productID, nil, warehouseID, onHand, 0, onHand, levels, 1)
	require.NoError(t, err)
	require.NoError(t, f.db.Create().StockRepository().Add(t.Context(), rec))
	return rec
}

func (f *fixture) record(t *testing.T, id kernel.UUID) *inventory.StockRecord {
	t.Helper()
	rec, err := f.db.Create().StockRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return rec
}

func (f *fixture) order(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := f.db.Create().OrderRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) payment(t *testing.T, orderID kernel.UUID) *payment.Payment {
	t.Helper()
	p, err := f.db.Create().PaymentRepository().GetByOrder(t.Context(), orderID)
	require.NoError(t, err)
	return p
}

func (f *fixture) returnOf(t *testing.T, id kernel.UUID) *returns.Return {
	t.Helper()
	r, err := f.db.Create().ReturnRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return r
}

// heldAt sums the committed active reservations on a record.
func (f *fixture) heldAt(id kernel.UUID) int {
	held := 0
	for _, reservation := range f.db.committed.reservations {
		if reservation.Status() == inventory.Active && reservation.StockRecordID().IsEqual(id) {
			held += reservation.Quantity()
		}
	}
	return held
}

func (f *fixture) movements() []*inventory.Movement {
	return f.db.committed.movements
}

// expectAuthorize makes the gateway approve any authorization of amount.
func (f *fixture) expectAuthorize(amount string) *mock.Call {
	return f.gateway.On("Authorize", mock.Anything, mock.MatchedBy(func(req ports.PaymentRequest) bool {
		return req.Amount.Equal(dec(amount))
	})).Return(payment.GatewayResult{Success: true, Reference: "auth-1"}, nil)
}

func (f *fixture) expectCapture() *mock.Call {
	return f.gateway.On("Capture", mock.Anything, mock.MatchedBy(func(req ports.PaymentRequest) bool {
		return req.Reference == "auth-1"
	})).Return(payment.GatewayResult{Success: true, Reference: "cap-1"}, nil)
}

// checkout is two shirts and one mug: subtotal 25, tax 2.50, shipping 5,
// grand total 32.50.
type checkout struct {
	orderID kernel.UUID
	shirtID kernel.UUID
	mugID   kernel.UUID
}

func (f *fixture) checkoutCommand(t *testing.T, c checkout) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand(c.orderID, []commands.OrderLine{
		{ItemID: c.mugID, ProductID: f.mug, Quantity: 1},
		{ItemID: c.shirtID, ProductID: f.shirt, Quantity: 2},
	}, order.Addresses{ShippingAddressRef: "addr-1"}, "pm_card_visa", "USD", "")
	require.NoError(t, err)
	return cmd
}

func newCheckout() checkout {
	return checkout{orderID: kernel.NewUUID(), shirtID: kernel.NewUUID(), mugID: kernel.NewUUID()}
}

// placeOrder runs a successful checkout.
func (f *fixture) placeOrder(t *testing.T) checkout {
	t.Helper()
	c := newCheckout()
	f.expectAuthorize("32.5").Once()

	handler := commands.NewCreateOrderCommandHandler(f.db, f.pricing, nil, fixedCurrency("USD"), f.gateway, f.log)
	require.NoError(t, handler.Handle(t.Context(), f.checkoutCommand(t, c)))
	return c
}

// capture moves a placed order to processing.
func (f *fixture) capture(t *testing.T, orderID kernel.UUID) {
	t.Helper()
	f.expectCapture().Once()
	cmd, err := commands.NewCapturePaymentCommand(orderID, "ops")
	require.NoError(t, err)
	handler := commands.NewCapturePaymentCommandHandler(f.db, f.gateway, f.log)
	require.NoError(t, handler.Handle(t.Context(), cmd))
}

// shipLines dispatches the given lines from a warehouse.
func (f *fixture) shipLines(t *testing.T, orderID, warehouseID kernel.UUID, lines ...order.ShipLine) error {
	t.Helper()
	return f.dispatch(t, kernel.NewUUID(), orderID, warehouseID, lines...)
}

func (f *fixture) dispatch(t *testing.T, shipmentID, orderID, warehouseID kernel.UUID, lines ...order.ShipLine) error {
	t.Helper()
	cmd, err := commands.NewCreateShipmentCommand(shipmentID, orderID, warehouseID, "", lines, "ops")
	require.NoError(t, err)
	handler := commands.NewCreateShipmentCommandHandler(f.db, nil, f.log)
	return handler.Handle(t.Context(), cmd)
}

// track walks a shipment through the given carrier statuses.
func (f *fixture) track(t *testing.T, shipmentID kernel.UUID, steps ...shipment.Status) error {
	t.Helper()
	handler := commands.NewUpdateShipmentStatusCommandHandler(f.db, f.log)
	for _, step := range steps {
		cmd, err := commands.NewUpdateShipmentStatusCommand(shipmentID, step,
			shipment.TrackingUpdate{Location: "hub", Description: step.String()}, "carrier")
		require.NoError(t, err)
		if err = handler.Handle(t.Context(), cmd); err != nil {
			return err
		}
	}
	return nil
}

// settleReturn runs a store credit return of the given lines from request to
// completion without fees.
func (f *fixture) settleReturn(t *testing.T, orderID kernel.UUID, lines ...commands.ReturnLine) kernel.UUID {
	t.Helper()
	returnID := kernel.NewUUID()
	request, err := commands.NewRequestReturnCommand(returnID, orderID, returns.StoreCredit, "damaged", lines)
	require.NoError(t, err)
	requestHandler := commands.NewRequestReturnCommandHandler(f.db)
	require.NoError(t, requestHandler.Handle(t.Context(), request))

	progress := commands.NewProgressReturnCommandHandler(f.db)
	approve, err := commands.NewApproveReturnCommand(returnID)
	require.NoError(t, err)
	receive, err := commands.NewReceiveReturnCommand(returnID)
	require.NoError(t, err)
	inspect, err := commands.NewInspectReturnCommand(returnID, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	for _, cmd := range []commands.ProgressReturnCommand{approve, receive, inspect} {
		require.NoError(t, progress.Handle(t.Context(), cmd))
	}

	complete, err := commands.NewCompleteReturnCommand(returnID, nil, "ops")
	require.NoError(t, err)
	completeHandler := commands.NewCompleteReturnCommandHandler(f.db, f.gateway, f.log)
	require.NoError(t, completeHandler.Handle(t.Context(), complete))
	return returnID
}

// ship dispatches everything still held for the order at the fixture warehouse.
func (f *fixture) ship(t *testing.T, orderID kernel.UUID) kernel.UUID {
	t.Helper()
	shipmentID := kernel.NewUUID()
	cmd, err := commands.NewCreateShipmentCommand(shipmentID, orderID, f.warehouse, "", nil, "ops")
	require.NoError(t, err)
	handler := commands.NewCreateShipmentCommandHandler(f.db, nil, f.log)
	require.NoError(t, handler.Handle(t.Context(), cmd))
	return shipmentID
}
