package enums

// PaymentMethod is how the buyer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
}

func (m PaymentMethod) IsValid() bool {
	return contains(validPaymentMethods, m)
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse(validPaymentMethods, value, "payment method")
}

// PaymentStatus tracks the payment sub-state of an order.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func (s PaymentStatus) IsValid() bool {
	return contains(validPaymentStatuses, s)
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse(validPaymentStatuses, value, "payment status")
}

// RefundStatus tracks money owed back after a cancellation.
type RefundStatus string

const (
	RefundStatusNotApplicable RefundStatus = "not_applicable"
	RefundStatusPending       RefundStatus = "pending"
	RefundStatusProcessed     RefundStatus = "processed"
	RefundStatusFailed        RefundStatus = "failed"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusNotApplicable,
	RefundStatusPending,
	RefundStatusProcessed,
	RefundStatusFailed,
}

func (r RefundStatus) IsValid() bool {
	return contains(validRefundStatuses, r)
}

func ParseRefundStatus(value string) (RefundStatus, error) {
	return parse(validRefundStatuses, value, "refund status")
}
