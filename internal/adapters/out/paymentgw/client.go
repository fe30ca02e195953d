// Package paymentgw talks to the card processor over its JSON HTTP API.
//
// Every call carries the caller's idempotency key, so a retried request is
// answered with the result of the first one. Transport failures and 5xx
// answers are retried with exponential backoff inside the caller's deadline;
// a decline is an answer, not a failure, and is never retried.
package paymentgw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const serviceName = "payment-gateway"

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	// InitialInterval is the first backoff delay; it doubles per attempt.
	InitialInterval time.Duration
}

type request struct {
	OrderID        string `json:"order_id"`
	Reference      string `json:"reference,omitempty"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

type response struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

const statusSucceeded = "succeeded"

// Client implements ports.PaymentGateway.
type Client struct {
	http   *resty.Client
	config Config
	log    *zap.Logger
}

func NewClient(config Config, log *zap.Logger) *Client {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = 200 * time.Millisecond
	}

	httpClient := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if config.APIKey != "" {
		httpClient.SetAuthToken(config.APIKey)
	}

	return &Client{
		http:   httpClient,
		config: config,
		log:    log.With(zap.String("component", "payment_gateway")),
	}
}

func (c *Client) Authorize(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	return c.call(ctx, "authorize", "/v1/authorizations", req)
}

func (c *Client) Capture(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	return c.call(ctx, "capture", "/v1/captures", req)
}

func (c *Client) Refund(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	return c.call(ctx, "refund", "/v1/refunds", req)
}

func (c *Client) Void(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error) {
	return c.call(ctx, "void", "/v1/voids", req)
}

func (c *Client) call(
	ctx context.Context,
	operation, path string,
	req ports.PaymentRequest,
) (payment.GatewayResult, error) {
	if req.IdempotencyKey == "" {
		return payment.GatewayResult{}, errs.NewValueIsRequiredError("idempotencyKey")
	}

	body := request{
		OrderID:        req.OrderID.String(),
		Reference:      req.Reference,
		Amount:         req.Amount.StringFixed(2),
		Currency:       req.Currency,
		PaymentMethod:  req.MethodRef,
		IdempotencyKey: req.IdempotencyKey,
	}

	var result payment.GatewayResult
	attempt := 0
	send := func() error {
		attempt++
		var out response
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Idempotency-Key", req.IdempotencyKey).
			SetBody(body).
			SetResult(&out).
			SetError(&out).
			Post(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			c.log.Warn("gateway unreachable",
				zap.String("operation", operation), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		switch {
		case resp.StatusCode() >= http.StatusInternalServerError:
			c.log.Warn("gateway error",
				zap.String("operation", operation), zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode()))
			return fmt.Errorf("gateway answered %d", resp.StatusCode())
		case resp.StatusCode() == http.StatusPaymentRequired || resp.StatusCode() == http.StatusUnprocessableEntity:
			result = payment.GatewayResult{Success: false, Reference: out.Reference, Message: declineMessage(out)}
			return nil
		case resp.IsError():
			return backoff.Permanent(fmt.Errorf("gateway rejected the request with %d: %s", resp.StatusCode(), out.Message))
		}

		result = payment.GatewayResult{
			Success:   out.Status == statusSucceeded,
			Reference: out.Reference,
			Message:   out.Message,
		}
		if !result.Success && result.Message == "" {
			result.Message = declineMessage(out)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.InitialInterval
	retry := backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.config.MaxAttempts-1)), //nolint:gosec // MaxAttempts >= 1
		ctx,
	)

	if err := backoff.Retry(send, retry); err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		metrics.GatewayCalls.WithLabelValues(operation, "error").Inc()
		return payment.GatewayResult{}, errs.NewExternalServiceError(serviceName, operation, err)
	}

	outcome := "approved"
	if !result.Success {
		outcome = "declined"
	}
	metrics.GatewayCalls.WithLabelValues(operation, outcome).Inc()
	return result, nil
}

func declineMessage(out response) string {
	if out.Message != "" {
		return out.Message
	}
	if out.Status != "" {
		return out.Status
	}
	return "declined"
}
