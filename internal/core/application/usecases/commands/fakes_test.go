package commands_test

import (
	"context"
	"slices"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/domain/model/returns"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// memoryState holds every aggregate of the fake database.
type memoryState struct {
	records      map[kernel.UUID]*inventory.StockRecord
	movements    []*inventory.Movement
	reservations map[string]*inventory.Reservation
	orders       map[kernel.UUID]*order.Order
	shipments    []*shipment.Shipment
	returns      map[kernel.UUID]*returns.Return
	payments     map[kernel.UUID]*payment.Payment
}

func newMemoryState() *memoryState {
	return &memoryState{
		records:      make(map[kernel.UUID]*inventory.StockRecord),
		reservations: make(map[string]*inventory.Reservation),
		orders:       make(map[kernel.UUID]*order.Order),
		returns:      make(map[kernel.UUID]*returns.Return),
		payments:     make(map[kernel.UUID]*payment.Payment),
	}
}

// clone deep copies the state through the Restore constructors so that a
// rolled back unit of work leaves the committed aggregates untouched.
func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for id, rec := range s.records {
		c.records[id] = must(inventory.RestoreStockRecord(rec.ID(), rec.ProductID(), rec.VariantID(), rec.WarehouseID(),
			rec.OnHand(), rec.Reserved(), rec.InitialQuantity(), rec.Levels(), rec.Version()))
	}
	for _, m := range s.movements {
		c.movements = append(c.movements, must(inventory.RestoreMovement(m.ID(), m.StockRecordID(), m.Type(),
			m.Quantity(), m.Status(), m.Reference(), m.Details(), m.CreatedAt(), m.CompletedAt())))
	}
	for key, r := range s.reservations {
		c.reservations[key] = must(inventory.RestoreReservation(r.StockRecordID(), r.OrderID(), r.OrderItemID(),
			r.Quantity(), r.Status(), r.UpdatedAt()))
	}
	for id, o := range s.orders {
		c.orders[id] = cloneOrder(o)
	}
	for _, sh := range s.shipments {
		c.shipments = append(c.shipments, must(shipment.RestoreShipment(shipment.State{
			ID:             sh.ID(),
			Number:         sh.Number(),
			OrderID:        sh.OrderID(),
			WarehouseID:    sh.WarehouseID(),
			Status:         sh.Status(),
			Carrier:        sh.Carrier(),
			TrackingNumber: sh.TrackingNumber(),
			Items:          slices.Clone(sh.Items()),
			TrackingEvents: slices.Clone(sh.TrackingEvents()),
			CreatedAt:      sh.CreatedAt(),
			ShippedAt:      sh.ShippedAt(),
			DeliveredAt:    sh.DeliveredAt(),
		})))
	}
	for id, r := range s.returns {
		c.returns[id] = must(returns.RestoreReturn(returns.State{
			ID:                 r.ID(),
			Number:             r.Number(),
			OrderID:            r.OrderID(),
			Status:             r.Status(),
			Type:               r.Type(),
			Reason:             r.Reason(),
			Items:              slices.Clone(r.Items()),
			RestockingFee:      r.RestockingFee(),
			ReturnShippingCost: r.ReturnShippingCost(),
			RefundAmount:       r.RefundAmount(),
			Restocked:          r.IsRestocked(),
			Refunded:           r.IsRefunded(),
			RefundReference:    r.RefundReference(),
			ExchangeOrderID:    r.ExchangeOrderID(),
			CreatedAt:          r.CreatedAt(),
			UpdatedAt:          r.UpdatedAt(),
			CompletedAt:        r.CompletedAt(),
		}))
	}
	for id, p := range s.payments {
		c.payments[id] = must(payment.RestorePayment(payment.State{
			ID:               p.ID(),
			OrderID:          p.OrderID(),
			Amount:           p.Amount(),
			Currency:         p.Currency(),
			MethodRef:        p.MethodRef(),
			Status:           p.Status(),
			AuthorizedAmount: p.AuthorizedAmount(),
			CapturedAmount:   p.CapturedAmount(),
			RefundedAmount:   p.RefundedAmount(),
			Transactions:     slices.Clone(p.Transactions()),
			CreatedAt:        p.CreatedAt(),
			UpdatedAt:        p.UpdatedAt(),
		}))
	}
	return c
}

func cloneOrder(o *order.Order) *order.Order {
	items := make([]*order.Item, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, must(order.RestoreItem(order.ItemState{
			ID:               item.ID(),
			Product:          item.Product(),
			WarehouseID:      item.WarehouseID(),
			Quantity:         item.Quantity(),
			UnitPrice:        item.UnitPrice(),
			TaxAmount:        item.TaxAmount(),
			DiscountAmount:   item.DiscountAmount(),
			Status:           item.Status(),
			PriorStatus:      item.PriorStatus(),
			ShippedQuantity:  item.ShippedQuantity(),
			ReturnedQuantity: item.ReturnedQuantity(),
			ReturnID:         item.ReturnID(),
		})))
	}
	return must(order.RestoreOrder(order.State{
		ID:                o.ID(),
		Number:            o.Number(),
		Status:            o.Status(),
		PaymentStatus:     o.PaymentStatus(),
		FulfillmentStatus: o.FulfillmentStatus(),
		Currency:          o.Currency(),
		ShippingTotal:     o.ShippingTotal(),
		OrderDiscount:     o.OrderDiscount(),
		Items:             items,
		Addresses:         o.Addresses(),
		PaymentMethodRef:  o.PaymentMethodRef(),
		ExchangeForID:     o.ExchangeForID(),
		Logs:              slices.Clone(o.Logs()),
		CreatedAt:         o.CreatedAt(),
		UpdatedAt:         o.UpdatedAt(),
	}))
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// memoryDB is the committed state shared by every unit of work.
type memoryDB struct {
	committed *memoryState
	commits   int
	failNext  error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{committed: newMemoryState()}
}

func (db *memoryDB) Create() commands.UoW {
	return &memoryUoW{db: db}
}

// stockFactory adapts the database to commands.StockUoWFactory.
type stockFactory struct{ db *memoryDB }

func (f stockFactory) Create() commands.StockUoW {
	return &memoryUoW{db: f.db}
}

// memoryUoW works on a private copy between Begin and Commit. Outside a
// transaction it reads and writes the committed state directly.
type memoryUoW struct {
	db      *memoryDB
	working *memoryState
}

func (u *memoryUoW) Begin(context.Context) error {
	u.working = u.db.committed.clone()
	return nil
}

func (u *memoryUoW) Commit(context.Context) error {
	if u.working == nil {
		return gorm.ErrInvalidTransaction
	}
	if u.db.failNext != nil {
		err := u.db.failNext
		u.db.failNext = nil
		return err
	}
	u.db.committed = u.working
	u.db.commits++
	u.working = nil
	return nil
}

func (u *memoryUoW) Rollback(context.Context) error {
	if u.working == nil {
		return gorm.ErrInvalidTransaction
	}
	u.working = nil
	return nil
}

func (u *memoryUoW) state() *memoryState {
	if u.working != nil {
		return u.working
	}
	return u.db.committed
}

func (u *memoryUoW) StockRepository() ports.StockRepository {
	return memoryStock{u}
}

func (u *memoryUoW) OrderRepository() ports.OrderRepository {
	return memoryOrders{u}
}

func (u *memoryUoW) ShipmentRepository() ports.ShipmentRepository {
	return memoryShipments{u}
}

func (u *memoryUoW) ReturnRepository() ports.ReturnRepository {
	return memoryReturns{u}
}

func (u *memoryUoW) PaymentRepository() ports.PaymentRepository {
	return memoryPayments{u}
}

type memoryStock struct{ uow *memoryUoW }

func (r memoryStock) Add(_ context.Context, rec *inventory.StockRecord) error {
	r.uow.state().records[rec.ID()] = rec
	return nil
}

func (r memoryStock) Update(_ context.Context, rec *inventory.StockRecord) error {
	if _, ok := r.uow.state().records[rec.ID()]; !ok {
		return errs.NewObjectNotFoundError("stockRecord", rec.ID().String())
	}
	r.uow.state().records[rec.ID()] = rec
	return nil
}

func (r memoryStock) Get(_ context.Context, id kernel.UUID) (*inventory.StockRecord, error) {
	rec, ok := r.uow.state().records[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("stockRecord", id.String())
	}
	return rec, nil
}

func (r memoryStock) GetForUpdate(ctx context.Context, id kernel.UUID) (*inventory.StockRecord, error) {
	return r.Get(ctx, id)
}

func (r memoryStock) Find(
	_ context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	for _, rec := range r.uow.state().records {
		if rec.ProductID().IsEqual(productID) && sameVariant(rec.VariantID(), variantID) &&
			rec.WarehouseID().IsEqual(warehouseID) {
			return rec, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("stockRecord", productID.String())
}

func (r memoryStock) FindForUpdate(
	ctx context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
	warehouseID kernel.UUID,
) (*inventory.StockRecord, error) {
	return r.Find(ctx, productID, variantID, warehouseID)
}

func (r memoryStock) ListByProductForUpdate(
	_ context.Context,
	productID kernel.UUID,
	variantID *kernel.UUID,
) ([]*inventory.StockRecord, error) {
	var records []*inventory.StockRecord
	for _, rec := range r.uow.state().records {
		if rec.ProductID().IsEqual(productID) && sameVariant(rec.VariantID(), variantID) {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b *inventory.StockRecord) int {
		if a.ID().Less(b.ID()) {
			return -1
		}
		return 1
	})
	return records, nil
}

func (r memoryStock) AddMovement(_ context.Context, m *inventory.Movement) error {
	r.uow.state().movements = append(r.uow.state().movements, m)
	return nil
}

func (r memoryStock) UpdateMovement(_ context.Context, m *inventory.Movement) error {
	for i, existing := range r.uow.state().movements {
		if existing.ID().IsEqual(m.ID()) {
			r.uow.state().movements[i] = m
			return nil
		}
	}
	return errs.NewObjectNotFoundError("movement", m.ID().String())
}

func (r memoryStock) GetMovementForUpdate(_ context.Context, id kernel.UUID) (*inventory.Movement, error) {
	for _, m := range r.uow.state().movements {
		if m.ID().IsEqual(id) {
			return m, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("movement", id.String())
}

func (r memoryStock) GetReservation(_ context.Context, key string) (*inventory.Reservation, error) {
	reservation, ok := r.uow.state().reservations[key]
	if !ok {
		return nil, errs.NewObjectNotFoundError("reservation", key)
	}
	return reservation, nil
}

func (r memoryStock) SaveReservation(_ context.Context, reservation *inventory.Reservation) error {
	r.uow.state().reservations[reservation.Key()] = reservation
	return nil
}

func (r memoryStock) ListActiveReservations(
	_ context.Context,
	orderID kernel.UUID,
	itemID *kernel.UUID,
) ([]*inventory.Reservation, error) {
	var active []*inventory.Reservation
	for _, reservation := range r.uow.state().reservations {
		if reservation.Status() != inventory.Active || !reservation.OrderID().IsEqual(orderID) {
			continue
		}
		if itemID != nil && !reservation.OrderItemID().IsEqual(*itemID) {
			continue
		}
		active = append(active, reservation)
	}
	return active, nil
}

type memoryOrders struct{ uow *memoryUoW }

func (r memoryOrders) Add(_ context.Context, o *order.Order) error {
	if _, ok := r.uow.state().orders[o.ID()]; ok {
		return errs.NewObjectAlreadyExistError("order", o.ID().String())
	}
	r.uow.state().orders[o.ID()] = o
	return nil
}

func (r memoryOrders) Update(_ context.Context, o *order.Order) error {
	if _, ok := r.uow.state().orders[o.ID()]; !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	r.uow.state().orders[o.ID()] = o
	return nil
}

func (r memoryOrders) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	o, ok := r.uow.state().orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return o, nil
}

func (r memoryOrders) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

type memoryShipments struct{ uow *memoryUoW }

func (r memoryShipments) Add(_ context.Context, s *shipment.Shipment) error {
	r.uow.state().shipments = append(r.uow.state().shipments, s)
	return nil
}

func (r memoryShipments) Update(_ context.Context, s *shipment.Shipment) error {
	for i, existing := range r.uow.state().shipments {
		if existing.ID().IsEqual(s.ID()) {
			r.uow.state().shipments[i] = s
			return nil
		}
	}
	return errs.NewObjectNotFoundError("shipment", s.ID().String())
}

func (r memoryShipments) Get(_ context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	for _, s := range r.uow.state().shipments {
		if s.ID().IsEqual(id) {
			return s, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("shipment", id.String())
}

func (r memoryShipments) ListByOrder(_ context.Context, orderID kernel.UUID) ([]*shipment.Shipment, error) {
	var found []*shipment.Shipment
	for _, s := range r.uow.state().shipments {
		if s.OrderID().IsEqual(orderID) {
			found = append(found, s)
		}
	}
	return found, nil
}

type memoryReturns struct{ uow *memoryUoW }

func (r memoryReturns) Add(_ context.Context, ret *returns.Return) error {
	r.uow.state().returns[ret.ID()] = ret
	return nil
}

func (r memoryReturns) Update(_ context.Context, ret *returns.Return) error {
	if _, ok := r.uow.state().returns[ret.ID()]; !ok {
		return errs.NewObjectNotFoundError("return", ret.ID().String())
	}
	r.uow.state().returns[ret.ID()] = ret
	return nil
}

func (r memoryReturns) Get(_ context.Context, id kernel.UUID) (*returns.Return, error) {
	ret, ok := r.uow.state().returns[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("return", id.String())
	}
	return ret, nil
}

func (r memoryReturns) GetForUpdate(ctx context.Context, id kernel.UUID) (*returns.Return, error) {
	return r.Get(ctx, id)
}

func (r memoryReturns) ListAwaitingCompletion(_ context.Context, limit int) ([]*returns.Return, error) {
	var found []*returns.Return
	for _, ret := range r.uow.state().returns {
		if ret.IsAwaitingCompletion() && len(found) < limit {
			found = append(found, ret)
		}
	}
	return found, nil
}

type memoryPayments struct{ uow *memoryUoW }

func (r memoryPayments) Add(_ context.Context, p *payment.Payment) error {
	r.uow.state().payments[p.OrderID()] = p
	return nil
}

func (r memoryPayments) Update(_ context.Context, p *payment.Payment) error {
	r.uow.state().payments[p.OrderID()] = p
	return nil
}

func (r memoryPayments) GetByOrder(_ context.Context, orderID kernel.UUID) (*payment.Payment, error) {
	p, ok := r.uow.state().payments[orderID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("payment", orderID.String())
	}
	return p, nil
}

func sameVariant(a, b *kernel.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.IsEqual(*b)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) Authorize(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.GatewayResult), args.Error(1)
}

func (m *MockPaymentGateway) Capture(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.GatewayResult), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.GatewayResult), args.Error(1)
}

func (m *MockPaymentGateway) Void(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.GatewayResult), args.Error(1)
}

type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) Product(ctx context.Context, productID kernel.UUID, variantID *kernel.UUID) (ports.CatalogProduct, error) {
	args := m.Called(ctx, productID, variantID)
	return args.Get(0).(ports.CatalogProduct), args.Error(1)
}

type MockDiscountEvaluator struct{ mock.Mock }

func (m *MockDiscountEvaluator) Evaluate(ctx context.Context, o *order.Order, code string) (decimal.Decimal, error) {
	args := m.Called(ctx, o, code)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// fixedCurrency is a ports.CurrencyProvider with a constant answer.
type fixedCurrency string

func (c fixedCurrency) DefaultCurrency(context.Context) (string, error) {
	return string(c), nil
}
