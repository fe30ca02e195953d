package http

import (
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

type orderLineRequest struct {
	ItemID      *string `json:"itemId"`
	ProductID   string  `json:"productId"`
	VariantID   *string `json:"variantId"`
	WarehouseID *string `json:"warehouseId"`
	Quantity    int     `json:"quantity"`
}

type createOrderRequest struct {
	ID                 *string            `json:"id"`
	Lines              []orderLineRequest `json:"lines"`
	ShippingAddressRef string             `json:"shippingAddressRef"`
	BillingAddressRef  string             `json:"billingAddressRef"`
	PaymentMethodRef   string             `json:"paymentMethodRef"`
	Currency           string             `json:"currency"`
	DiscountCode       string             `json:"discountCode"`
}

type updateOrderStatusRequest struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Visibility string `json:"visibility"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type applyDiscountRequest struct {
	Code   string           `json:"code"`
	Amount *decimal.Decimal `json:"amount"`
}

type updateItemQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type lineQuantity struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type createShipmentRequest struct {
	ID          *string        `json:"id"`
	WarehouseID string         `json:"warehouseId"`
	Carrier     string         `json:"carrier"`
	Lines       []lineQuantity `json:"lines"`
}

type updateShipmentStatusRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type requestReturnRequest struct {
	ID     *string        `json:"id"`
	Type   string         `json:"type"`
	Reason string         `json:"reason"`
	Lines  []lineQuantity `json:"lines"`
}

type inspectReturnRequest struct {
	RestockingFee      decimal.Decimal `json:"restockingFee"`
	ReturnShippingCost decimal.Decimal `json:"returnShippingCost"`
}

type rejectReturnRequest struct {
	Reason string `json:"reason"`
}

type completeReturnRequest struct {
	RefundAmount *decimal.Decimal `json:"refundAmount"`
}

type adjustStockRequest struct {
	ProductID   string  `json:"productId"`
	VariantID   *string `json:"variantId"`
	WarehouseID string  `json:"warehouseId"`
	Delta       int     `json:"delta"`
	Reason      string  `json:"reason"`
	Dispose     bool    `json:"dispose"`
}

type deliveryRequest struct {
	ProductID       string           `json:"productId"`
	VariantID       *string          `json:"variantId"`
	WarehouseID     string           `json:"warehouseId"`
	Quantity        int              `json:"quantity"`
	SupplierOrderID string           `json:"supplierOrderId"`
	Batch           string           `json:"batch"`
	UnitCost        *decimal.Decimal `json:"unitCost"`
	Note            string           `json:"note"`
}

type transferStockRequest struct {
	ID              *string `json:"id"`
	StockRecordID   string  `json:"stockRecordId"`
	DestWarehouseID string  `json:"destWarehouseId"`
	Quantity        int     `json:"quantity"`
	Note            string  `json:"note"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type orderItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"productId"`
	VariantID        *string         `json:"variantId,omitempty"`
	SKU              string          `json:"sku"`
	IsDigital        bool            `json:"isDigital"`
	Quantity         int             `json:"quantity"`
	ShippedQuantity  int             `json:"shippedQuantity"`
	ReturnedQuantity int             `json:"returnedQuantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	TaxAmount        decimal.Decimal `json:"taxAmount"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	Status           string          `json:"status"`
}

type orderLogResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type paymentResponse struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	AuthorizedAmount decimal.Decimal `json:"authorizedAmount"`
	CapturedAmount   decimal.Decimal `json:"capturedAmount"`
	RefundedAmount   decimal.Decimal `json:"refundedAmount"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	Number            string              `json:"number"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"paymentStatus"`
	FulfillmentStatus string              `json:"fulfillmentStatus"`
	Currency          string              `json:"currency"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	TaxTotal          decimal.Decimal     `json:"taxTotal"`
	ShippingTotal     decimal.Decimal     `json:"shippingTotal"`
	DiscountTotal     decimal.Decimal     `json:"discountTotal"`
	GrandTotal        decimal.Decimal     `json:"grandTotal"`
	ExchangeForID     *string             `json:"exchangeForId,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
	Items             []orderItemResponse `json:"items"`
	Logs              []orderLogResponse  `json:"logs"`
	Payment           *paymentResponse    `json:"payment,omitempty"`
}

func toOrderResponse(v *queries.GetOrderQueryResponse) orderResponse {
	resp := orderResponse{
		ID:                v.ID.String(),
		Number:            v.Number,
		Status:            v.Status.String(),
		PaymentStatus:     v.PaymentStatus.String(),
		FulfillmentStatus: v.FulfillmentStatus.String(),
		Currency:          v.Currency,
		Subtotal:          v.Subtotal,
		TaxTotal:          v.TaxTotal,
		ShippingTotal:     v.ShippingTotal,
		DiscountTotal:     v.DiscountTotal,
		GrandTotal:        v.GrandTotal,
		ExchangeForID:     optionalString(v.ExchangeForID),
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
		Items:             make([]orderItemResponse, len(v.Items)),
		Logs:              make([]orderLogResponse, len(v.Logs)),
	}
	for i, item := range v.Items {
		resp.Items[i] = orderItemResponse{
			ID:               item.ID.String(),
			ProductID:        item.ProductID.String(),
			VariantID:        optionalString(item.VariantID),
			SKU:              item.SKU,
			IsDigital:        item.IsDigital,
			Quantity:         item.Quantity,
			ShippedQuantity:  item.ShippedQuantity,
			ReturnedQuantity: item.ReturnedQuantity,
			UnitPrice:        item.UnitPrice,
			TaxAmount:        item.TaxAmount,
			DiscountAmount:   item.DiscountAmount,
			Status:           item.Status.String(),
		}
	}
	for i, entry := range v.Logs {
		resp.Logs[i] = orderLogResponse{
			From:      entry.Previous.String(),
			To:        entry.Next.String(),
			Actor:     entry.Actor,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		}
	}
	if v.Payment != nil {
		resp.Payment = &paymentResponse{
			ID:               v.Payment.ID.String(),
			Status:           v.Payment.Status.String(),
			Amount:           v.Payment.Amount,
			AuthorizedAmount: v.Payment.AuthorizedAmount,
			CapturedAmount:   v.Payment.CapturedAmount,
			RefundedAmount:   v.Payment.RefundedAmount,
		}
	}
	return resp
}

type lowStockResponse struct {
	StockRecordID string  `json:"stockRecordId"`
	ProductID     string  `json:"productId"`
	VariantID     *string `json:"variantId,omitempty"`
	WarehouseID   string  `json:"warehouseId"`
	OnHand        int     `json:"onHand"`
	Reserved      int     `json:"reserved"`
	Available     int     `json:"available"`
	ReorderPoint  int     `json:"reorderPoint"`
}

type movementResponse struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Status        string           `json:"status"`
	Quantity      int              `json:"quantity"`
	ReferenceType string           `json:"referenceType"`
	ReferenceID   string           `json:"referenceId"`
	Batch         string           `json:"batch,omitempty"`
	UnitCost      *decimal.Decimal `json:"unitCost,omitempty"`
	Note          string           `json:"note,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

func optionalString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseID(field, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(field, err)
	}
	return id, nil
}

func parseOptionalID(field string, raw *string) (*kernel.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil //nolint:nilnil // absent value
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// idOrNew lets clients choose identifiers so that a retried create is
// rejected as a duplicate instead of creating a second entity.
func idOrNew(field string, raw *string) (kernel.UUID, error) {
	id, err := parseOptionalID(field, raw)
	if err != nil || id == nil {
		return kernel.NewUUID(), err
	}
	return *id, nil
}
