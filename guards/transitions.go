// Package guards implements the deterministic business-rule checks the
// validation stage composes: the order lifecycle state machine, the
// cancellation guard, and the price outlier guard. Every guard is a pure
// function over its inputs.
package guards

import (
	"fmt"

	"github.com/storekit/adminagent/types"
)

// Check codes. CodeCancellationRequiresRefund is a soft error: the
// transition itself is representable but needs a refund flow first.
const (
	CodeInvalidTransition          = "INVALID_TRANSITION"
	CodeTerminalStatus             = "TERMINAL_STATUS"
	CodeAlreadyCancelled           = "ALREADY_CANCELLED"
	CodeCancelAfterShipment        = "CANCEL_AFTER_SHIPMENT"
	CodeCancellationRequiresRefund = "CANCELLATION_REQUIRES_REFUND"
)

// transitions is the fixed directed graph over order statuses.
var transitions = map[types.OrderStatus][]types.OrderStatus{
	types.OrderPending:           {types.OrderConfirmed, types.OrderProcessing, types.OrderShipped, types.OrderCancelled},
	types.OrderConfirmed:         {types.OrderProcessing, types.OrderShipped, types.OrderCancelled},
	types.OrderProcessing:        {types.OrderOnHold, types.OrderShipped, types.OrderCancelled},
	types.OrderOnHold:            {types.OrderProcessing, types.OrderShipped, types.OrderCancelled},
	types.OrderShipped:           {types.OrderPartiallyShipped, types.OrderDelivered},
	types.OrderPartiallyShipped:  {types.OrderShipped, types.OrderDelivered},
	types.OrderDelivered:         {types.OrderCompleted},
	types.OrderPartiallyRefunded: {types.OrderRefunded},
	types.OrderCompleted:         {},
	types.OrderCancelled:         {},
	types.OrderRefunded:          {},
}

// Check is the outcome of one guard evaluation.
type Check struct {
	Allowed bool
	Code    string
	Message string
}

// ok is the passing check.
var ok = Check{Allowed: true}

func deny(code, format string, args ...any) Check {
	return Check{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsTerminalStatus reports whether the status has no outgoing transitions.
func IsTerminalStatus(s types.OrderStatus) bool {
	edges, known := transitions[s]
	return known && len(edges) == 0
}

// ValidateStatusTransition checks whether moving an order from current to
// requested is legal. Cancellation after shipment gets a specific message
// even though the edge is also absent from the graph.
func ValidateStatusTransition(current, requested types.OrderStatus) Check {
	if requested == types.OrderCancelled {
		switch current {
		case types.OrderShipped, types.OrderDelivered, types.OrderCompleted:
			return deny(CodeCancelAfterShipment,
				"cannot cancel an order in status %q; it has already been shipped", current)
		case types.OrderCancelled:
			return deny(CodeAlreadyCancelled, "order is already cancelled")
		}
	}

	if IsTerminalStatus(current) && requested != current {
		return deny(CodeTerminalStatus,
			"order status %q is terminal and cannot change", current)
	}

	edges, known := transitions[current]
	if !known {
		return deny(CodeInvalidTransition, "unknown order status %q", current)
	}
	for _, next := range edges {
		if next == requested {
			return ok
		}
	}
	return deny(CodeInvalidTransition,
		"invalid status transition from %q to %q", current, requested)
}

// ValidateCancellation is the richer cancellation check: beyond the
// transition graph it inspects payment and fulfillment flags. Paid or
// authorized orders and fulfilled or partially fulfilled orders produce the
// CANCELLATION_REQUIRES_REFUND soft error rather than a transition violation.
func ValidateCancellation(order types.Order) Check {
	if c := ValidateStatusTransition(order.Status, types.OrderCancelled); !c.Allowed {
		return c
	}

	if order.Payment == types.PaymentPaid || order.Payment == types.PaymentAuthorized {
		return deny(CodeCancellationRequiresRefund,
			"order %s has payment status %q; cancellation requires a refund first",
			order.OrderNumber, order.Payment)
	}
	if order.Fulfillment == types.FulfillmentFulfilled || order.Fulfillment == types.FulfillmentPartial {
		return deny(CodeCancellationRequiresRefund,
			"order %s has fulfillment status %q; cancellation requires a refund first",
			order.OrderNumber, order.Fulfillment)
	}
	return ok
}
