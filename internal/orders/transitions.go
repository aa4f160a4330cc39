package orders

import (
	"fmt"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
)

// fulfillment is the forward pipeline. An order may move to any later
// stage, skipping ones in between, but never back.
var fulfillment = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
}

var allowedTransitions = buildTransitions()

func buildTransitions() map[enums.OrderStatus][]enums.OrderStatus {
	out := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusCancelled: nil,
		enums.OrderStatusReturned:  nil,
	}
	for i, from := range fulfillment {
		next := append([]enums.OrderStatus(nil), fulfillment[i+1:]...)
		switch {
		case from == enums.OrderStatusShipped || from == enums.OrderStatusDelivered:
			next = append(next, enums.OrderStatusReturned)
		default:
			next = append(next, enums.OrderStatusCancelled)
		}
		out[from] = next
	}
	return out
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	return append([]enums.OrderStatus(nil), allowedTransitions[from]...)
}

// IsCancellable reports whether the buyer may still cancel.
func IsCancellable(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPending || status == enums.OrderStatusConfirmed
}

func checkTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.BusinessRule(pkgerrors.ReasonInvalidTransition,
		fmt.Sprintf("Cannot change order status from %s to %s", from, to)).
		WithDetails(map[string]any{
			"reason":  string(pkgerrors.ReasonInvalidTransition),
			"from":    from,
			"to":      to,
			"allowed": NextStatuses(from),
		})
}
