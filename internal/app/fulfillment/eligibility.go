package fulfillment

import "github.com/retailops/ticketworker/internal/domain/orders"

// Evaluate decides whether order gets a printed ticket. When it does not, the
// returned outcome says why. A declined payment wins over the item check; an
// empty payment status is not a decline.
func Evaluate(order orders.Order) (skip orders.Outcome, eligible bool) {
	if order.IsPaymentDeclined() {
		return orders.OutcomeSkippedDeclinedOrUnknownPayment, false
	}

	// nothing to pick or ship
	if !order.HasPhysicalItem() {
		return orders.OutcomeSkippedNotEligible, false
	}

	return "", true
}
