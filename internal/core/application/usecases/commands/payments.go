package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type gatewayFunc func(ctx context.Context, req ports.PaymentRequest) (payment.GatewayResult, error)

// callGateway runs one gateway call outside any transaction. An unreachable
// gateway becomes a failed result so that the attempt is still recorded.
func callGateway(ctx context.Context, call gatewayFunc, req ports.PaymentRequest) (payment.GatewayResult, error) {
	result, err := call(ctx, req)
	if err != nil {
		return payment.GatewayResult{Success: false, Message: err.Error()}, err
	}
	return result, nil
}

// gatewayReference returns the reference of the last successful call of a kind.
func gatewayReference(p *payment.Payment, kind payment.Kind) string {
	txs := p.Transactions()
	for i := len(txs) - 1; i >= 0; i-- {
		if txs[i].Kind == kind && txs[i].Success {
			return txs[i].GatewayReference
		}
	}
	return ""
}

func paymentFailure(reference string, result payment.GatewayResult, callErr error) error {
	cause := callErr
	if cause == nil {
		message := result.Message
		if message == "" {
			message = "declined by gateway"
		}
		cause = errors.New(message)
	}
	return errs.NewPaymentFailedError(reference, cause)
}
