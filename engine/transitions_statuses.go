package engine

var paymentStatusTransitionChart = PaymentStatusTransitionChart{
	PENDING_P: {SUCCEEDED_P, FAILED_P, EXPIRED_P},
}

var invoiceStatusTransitionChart = InvoiceStatusTransitionChart{
	DRAFT_I:   {SENT_I, VOID_I},
	SENT_I:    {PAID_I, OVERDUE_I, VOID_I},
	OVERDUE_I: {PAID_I, VOID_I},
}

type PaymentStatusTransitionChart map[PaymentStatus][]PaymentStatus

func (s PaymentStatusTransitionChart) Allowed(from, to PaymentStatus) bool {
	list, exists := s[from]
	if !exists {
		return false
	}
	for _, status := range list {
		if status.Match(to) {
			return true
		}
	}
	return false
}

type InvoiceStatusTransitionChart map[InvoiceStatus][]InvoiceStatus

func (s InvoiceStatusTransitionChart) Allowed(from, to InvoiceStatus) bool {
	list, exists := s[from]
	if !exists {
		return false
	}
	for _, status := range list {
		if status.Match(to) {
			return true
		}
	}
	return false
}

// PaymentTransitionAllowed reports whether a payment may move from one
// status to another. Terminal statuses have no outgoing transitions.
func PaymentTransitionAllowed(from, to PaymentStatus) bool {
	return paymentStatusTransitionChart.Allowed(from, to)
}

// InvoiceTransitionAllowed reports whether an invoice may move from one
// status to another. Status never regresses from paid.
func InvoiceTransitionAllowed(from, to InvoiceStatus) bool {
	return invoiceStatusTransitionChart.Allowed(from, to)
}
