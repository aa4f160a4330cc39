package enums

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateJob     OutboxAggregateType = "job"
	AggregateProduct OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateJob,
	AggregateProduct,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	return contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(validAggregateTypes, value, "aggregate type")
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated                OutboxEventType = "order_created"
	EventOrderStatusChanged          OutboxEventType = "order_status_changed"
	EventOrderCancelled              OutboxEventType = "order_cancelled"
	EventOrderPaymentUpdated         OutboxEventType = "order_payment_updated"
	EventJobApplicationSubmitted     OutboxEventType = "job_application_submitted"
	EventJobApplicationStatusChanged OutboxEventType = "job_application_status_changed"
	EventJobExpired                  OutboxEventType = "job_expired"
	EventProductReviewAdded          OutboxEventType = "product_review_added"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventOrderPaymentUpdated,
	EventJobApplicationSubmitted,
	EventJobApplicationStatusChanged,
	EventJobExpired,
	EventProductReviewAdded,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	return contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(validOutboxEventTypes, value, "event type")
}

// OutboxDLQErrorReason records why an event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	return contains(validOutboxDLQErrorReasons, r)
}
