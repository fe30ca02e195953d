package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite checks order persistence against a
// real PostgreSQL.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
	now        time.Time
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate("orders", "order_items", "order_logs"))

	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.pg.DB, suite.tracker)
	suite.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ThenGet_RoundTrip() {
	ctx := context.Background()
	o := suite.newOrder(2, "10.00")
	suite.tracker.On("TrackAggregate", o.ID(), o).Once()

	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(o.Number(), got.Number())
	suite.Equal(order.Pending, got.Status())
	suite.Equal(order.PaymentPending, got.PaymentStatus())
	suite.Equal("USD", got.Currency())
	suite.Equal("addr-ship", got.Addresses().ShippingAddressRef)
	suite.True(decimal.RequireFromString("22.00").Equal(got.GrandTotal()), got.GrandTotal().String())
	suite.Require().Len(got.Items(), 1)
	suite.Equal(o.Items()[0].ID(), got.Items()[0].ID())
	suite.Equal("SKU-1", got.Items()[0].Product().SKU)
	suite.Equal(2, got.Items()[0].Quantity())
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateNumber_Fails() {
	ctx := context.Background()
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything)

	first := suite.newOrder(1, "5.00")
	suite.Require().NoError(suite.repository.Add(ctx, first))

	second, err := order.NewOrder(kernel.NewUUID(), first.Number(), "USD", order.Addresses{}, "pm_card", suite.now)
	suite.Require().NoError(err)
	suite.Error(suite.repository.Add(ctx, second))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_ItemsAndLogs() {
	ctx := context.Background()
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything)

	o := suite.newOrder(1, "10.00")
	suite.Require().NoError(suite.repository.Add(ctx, o))
	removed := o.Items()[0].ID()

	added := suite.newItem("SKU-2", 3, "4.00")
	suite.Require().NoError(o.AddItem(added, suite.now))
	_, err := o.RemoveItem(removed, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(o.UpdateStatus(order.Processing, "ops", "picked", order.VisibleToAdmin, suite.now.Add(time.Minute)))

	suite.Require().NoError(suite.repository.Update(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Processing, got.Status())
	suite.Require().Len(got.Items(), 1)
	suite.Equal(added.ID(), got.Items()[0].ID())
	suite.True(decimal.RequireFromString("12.00").Equal(got.Subtotal()), got.Subtotal().String())
	suite.Require().Len(got.Logs(), 1)
	suite.Equal(order.Pending, got.Logs()[0].Previous())
	suite.Equal(order.Processing, got.Logs()[0].Next())
	suite.Equal(order.VisibleToAdmin, got.Logs()[0].Visibility())

	suite.Require().NoError(got.UpdateStatus(order.Shipped, "ops", "", order.VisibleToCustomer, suite.now.Add(2*time.Minute)))
	suite.Require().NoError(suite.repository.Update(ctx, got))

	again, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Require().Len(again.Logs(), 2)
	suite.Equal(order.Shipped, again.Logs()[1].Next())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_UnknownOrder_NotFound() {
	o := suite.newOrder(1, "1.00")

	err := suite.repository.Update(context.Background(), o)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetForUpdate_InsideTransaction() {
	ctx := context.Background()
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything)
	o := suite.newOrder(1, "3.00")
	suite.Require().NoError(suite.repository.Add(ctx, o))

	tx := suite.pg.DB.Begin()
	defer tx.Rollback()

	got, err := orderrepo.NewGormOrderRepository(tx, suite.tracker).GetForUpdate(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(o.ID(), got.ID())
	suite.Len(got.Items(), 1)
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(quantity int, price string) *order.Order {
	o, err := order.NewOrder(
		kernel.NewUUID(),
		kernel.NewReferenceNumber(kernel.OrderNumberPrefix, suite.now),
		"USD",
		order.Addresses{ShippingAddressRef: "addr-ship", BillingAddressRef: "addr-bill"},
		"pm_card",
		suite.now,
	)
	suite.Require().NoError(err)
	suite.Require().NoError(o.AddItem(suite.newItem("SKU-1", quantity, price), suite.now))
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) newItem(sku string, quantity int, price string) *order.Item {
	item, err := order.NewItem(
		kernel.NewUUID(),
		order.Product{ProductID: kernel.NewUUID(), SKU: sku},
		nil,
		quantity,
		decimal.RequireFromString(price),
		decimal.RequireFromString(price).Div(decimal.NewFromInt(10)).Mul(decimal.NewFromInt(int64(quantity))),
		decimal.Zero,
	)
	suite.Require().NoError(err)
	return item
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
