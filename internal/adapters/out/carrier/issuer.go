// Package carrier issues tracking numbers for outgoing shipments.
package carrier

import (
	"context"
	"fmt"
	"strings"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// LocalIssuer derives the tracking number from the carrier code and the
// shipment number, for carriers that accept shipper assigned numbers.
// Unknown carriers are refused so that a typo never ships unlabelled.
func LocalIssuer(carriers ...string) ports.TrackingNumberIssuer {
	known := make(map[string]struct{}, len(carriers))
	for _, c := range carriers {
		known[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	return func(ctx context.Context, carrier, shipmentNumber string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := strings.ToLower(strings.TrimSpace(carrier))
		if _, ok := known[code]; !ok {
			return "", errs.NewValueIsInvalidErrorWithCause("carrier", fmt.Errorf("%q is not configured", carrier))
		}
		if shipmentNumber == "" {
			return "", errs.NewValueIsRequiredError("shipmentNumber")
		}
		return strings.ToUpper(code) + "-" + shipmentNumber, nil
	}
}
