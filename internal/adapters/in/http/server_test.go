package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCommand[C any] struct {
	mock.Mock
}

func (m *mockCommand[C]) Handle(ctx context.Context, cmd C) error {
	return m.Called(ctx, cmd).Error(0)
}

type mockQuery[Q any, R any] struct {
	mock.Mock
}

func (m *mockQuery[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	args := m.Called(ctx, query)
	r, _ := args.Get(0).(R)
	return r, args.Error(1)
}

func newTestServer(handlers Handlers) *echo.Echo {
	e := echo.New()
	NewServer(handlers, zap.NewNop()).Register(e)
	return e
}

func do(e *echo.Echo, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) Error {
	t.Helper()
	var body Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServer_CreateOrder(t *testing.T) {
	t.Run("creates with the client chosen id", func(t *testing.T) {
		createOrder := &mockCommand[commands.CreateOrderCommand]{}
		e := newTestServer(Handlers{CreateOrder: createOrder})
		orderID := kernel.NewUUID()
		productID := kernel.NewUUID()
		createOrder.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CreateOrderCommand) bool {
			return cmd.OrderID() == orderID &&
				len(cmd.Lines()) == 1 &&
				cmd.Lines()[0].ProductID == productID &&
				cmd.Lines()[0].Quantity == 2 &&
				cmd.Addresses().ShippingAddressRef == "addr-1"
		})).Return(nil).Once()

		rec := do(e, http.MethodPost, "/api/v1/orders", `{
			"id": "`+orderID.String()+`",
			"lines": [{"productId": "`+productID.String()+`", "quantity": 2}],
			"shippingAddressRef": "addr-1",
			"paymentMethodRef": "pm_card_visa"
		}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body createdResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, orderID.String(), body.ID)
		createOrder.AssertExpectations(t)
	})

	t.Run("insufficient stock is a conflict", func(t *testing.T) {
		createOrder := &mockCommand[commands.CreateOrderCommand]{}
		e := newTestServer(Handlers{CreateOrder: createOrder})
		createOrder.On("Handle", mock.Anything, mock.Anything).
			Return(errs.NewInsufficientStockError("rec-1", 3, 1)).Once()

		rec := do(e, http.MethodPost, "/api/v1/orders", `{
			"lines": [{"productId": "`+kernel.NewUUID().String()+`", "quantity": 3}],
			"paymentMethodRef": "pm_card_visa"
		}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, http.StatusConflict, decodeError(t, rec).Code)
	})

	t.Run("rejects a malformed product id before reaching the handler", func(t *testing.T) {
		createOrder := &mockCommand[commands.CreateOrderCommand]{}
		e := newTestServer(Handlers{CreateOrder: createOrder})

		rec := do(e, http.MethodPost, "/api/v1/orders",
			`{"lines": [{"productId": "nope", "quantity": 1}], "paymentMethodRef": "pm"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		createOrder.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		e := newTestServer(Handlers{CreateOrder: &mockCommand[commands.CreateOrderCommand]{}})

		rec := do(e, http.MethodPost, "/api/v1/orders", `{"lines": [`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_GetOrder(t *testing.T) {
	orderID := kernel.NewUUID()
	view := &queries.GetOrderQueryResponse{
		ID:         orderID,
		Number:     "ORD-1",
		Status:     order.Processing,
		Currency:   "USD",
		GrandTotal: decimal.RequireFromString("32.50"),
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Items: []queries.OrderItemView{{
			ID:        kernel.NewUUID(),
			ProductID: kernel.NewUUID(),
			SKU:       "SHIRT-M",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("10"),
		}},
	}

	t.Run("returns the customer view on request", func(t *testing.T) {
		getOrder := &mockQuery[queries.GetOrderQuery, *queries.GetOrderQueryResponse]{}
		e := newTestServer(Handlers{GetOrder: getOrder})
		getOrder.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetOrderQuery) bool {
			return q.OrderID() == orderID && q.CustomerView()
		})).Return(view, nil).Once()

		rec := do(e, http.MethodGet, "/api/v1/orders/"+orderID.String()+"?view=customer", "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body orderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ORD-1", body.Number)
		assert.Equal(t, order.Processing.String(), body.Status)
		assert.True(t, decimal.RequireFromString("32.5").Equal(body.GrandTotal))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "SHIRT-M", body.Items[0].SKU)
		assert.Nil(t, body.Payment)
		getOrder.AssertExpectations(t)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		getOrder := &mockQuery[queries.GetOrderQuery, *queries.GetOrderQueryResponse]{}
		e := newTestServer(Handlers{GetOrder: getOrder})
		getOrder.On("Handle", mock.Anything, mock.Anything).
			Return(nil, errs.NewObjectNotFoundError("orderId", orderID)).Once()

		rec := do(e, http.MethodGet, "/api/v1/orders/"+orderID.String(), "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, orderID.String())
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		e := newTestServer(Handlers{})

		rec := do(e, http.MethodGet, "/api/v1/orders/123", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_OrderCommandsCarryTheActor(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		cancel := &mockCommand[commands.CancelOrderCommand]{}
		e := newTestServer(Handlers{CancelOrder: cancel})
		orderID := kernel.NewUUID()
		cancel.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CancelOrderCommand) bool {
			return cmd.OrderID() == orderID && cmd.Actor() == "alice" && cmd.Reason() == "changed mind"
		})).Return(nil).Once()

		rec := do(e, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel",
			`{"reason": "changed mind"}`, ActorHeader, "alice")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		cancel.AssertExpectations(t)
	})

	t.Run("status update defaults the actor", func(t *testing.T) {
		update := &mockCommand[commands.UpdateOrderStatusCommand]{}
		e := newTestServer(Handlers{UpdateOrderStatus: update})
		update.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.UpdateOrderStatusCommand) bool {
			return cmd.Target() == order.Shipped && cmd.Actor() == defaultActor &&
				cmd.Visibility() == order.VisibleToAdmin
		})).Return(nil).Once()

		rec := do(e, http.MethodPatch, "/api/v1/orders/"+kernel.NewUUID().String()+"/status",
			`{"status": "`+order.Shipped.String()+`", "visibility": "admin"}`)

		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		update.AssertExpectations(t)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		update := &mockCommand[commands.UpdateOrderStatusCommand]{}
		e := newTestServer(Handlers{UpdateOrderStatus: update})

		rec := do(e, http.MethodPatch, "/api/v1/orders/"+kernel.NewUUID().String()+"/status",
			`{"status": "teleported"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		update.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}

func TestServer_CompleteReturn_RefundFailure(t *testing.T) {
	complete := &mockCommand[commands.CompleteReturnCommand]{}
	e := newTestServer(Handlers{CompleteReturn: complete})
	complete.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewPaymentFailedError("RET-1", errors.New("gateway timeout"))).Once()

	rec := do(e, http.MethodPost, "/api/v1/returns/"+kernel.NewUUID().String()+"/complete", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	complete.AssertExpectations(t)
}

func TestServer_ScheduleInbound(t *testing.T) {
	schedule := &mockQuery[commands.ScheduleInboundCommand, kernel.UUID]{}
	e := newTestServer(Handlers{ScheduleInbound: schedule})
	movementID := kernel.NewUUID()
	schedule.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ScheduleInboundCommand) bool {
		return cmd.Delivery().Quantity == 12 && cmd.Delivery().Batch == "B-1"
	})).Return(movementID, nil).Once()

	rec := do(e, http.MethodPost, "/api/v1/stock/inbound", `{
		"productId": "`+kernel.NewUUID().String()+`",
		"warehouseId": "`+kernel.NewUUID().String()+`",
		"quantity": 12,
		"supplierOrderId": "`+kernel.NewUUID().String()+`",
		"batch": "B-1"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body createdResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, movementID.String(), body.ID)
}

func TestServer_SettleMovement(t *testing.T) {
	confirm := &mockCommand[commands.MovementCommand]{}
	cancel := &mockCommand[commands.MovementCommand]{}
	e := newTestServer(Handlers{ConfirmMovement: confirm, CancelMovement: cancel})
	movementID := kernel.NewUUID()
	cancel.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.MovementCommand) bool {
		return cmd.MovementID() == movementID
	})).Return(nil).Once()

	rec := do(e, http.MethodPost, "/api/v1/stock/movements/"+movementID.String()+"/cancel", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cancel.AssertExpectations(t)
	confirm.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestServer_ListMovements(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		list := &mockQuery[queries.ListMovementsQuery, []queries.ListMovementsQueryResponse]{}
		e := newTestServer(Handlers{ListMovements: list})
		recordID := kernel.NewUUID()
		list.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.ListMovementsQuery) bool {
			return q.StockRecordID() == recordID && q.Limit() == 5 && q.MovementType() != nil
		})).Return([]queries.ListMovementsQueryResponse{{ID: kernel.NewUUID(), Quantity: 4}}, nil).Once()

		rec := do(e, http.MethodGet, "/api/v1/stock/"+recordID.String()+"/movements?type=inbound&limit=5", "")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body []movementResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, 4, body[0].Quantity)
	})

	testCases := []struct {
		name  string
		query string
		want  int
	}{
		{"non numeric limit", "?limit=ten", http.StatusBadRequest},
		{"limit above the maximum", "?limit=100000", http.StatusUnprocessableEntity},
		{"unknown movement type", "?type=teleport", http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			list := &mockQuery[queries.ListMovementsQuery, []queries.ListMovementsQueryResponse]{}
			e := newTestServer(Handlers{ListMovements: list})

			rec := do(e, http.MethodGet, "/api/v1/stock/"+kernel.NewUUID().String()+"/movements"+tc.query, "")

			assert.Equal(t, tc.want, rec.Code)
			list.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		})
	}
}

func TestServer_Ambient(t *testing.T) {
	e := newTestServer(Handlers{})

	t.Run("health", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		do(e, http.MethodGet, "/health", "")

		rec := do(e, http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "fulfillment_http_requests_total")
	})

	t.Run("unknown route answers with an error body", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/v1/nowhere", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, http.StatusNotFound, decodeError(t, rec).Code)
	})
}
