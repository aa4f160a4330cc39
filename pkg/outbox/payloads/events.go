package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// OrderLine is the per-item slice of an order carried in order events.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	FarmerID  uuid.UUID       `json:"farmerId"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// OrderCreatedEvent is emitted once checkout commits.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	BuyerID     uuid.UUID       `json:"buyerId"`
	Total       decimal.Decimal `json:"total"`
	Items       []OrderLine     `json:"items"`
}

// OrderStatusChangedEvent is emitted on every accepted status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	BuyerID     uuid.UUID         `json:"buyerId"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Note        string            `json:"note,omitempty"`
	ChangedAt   time.Time         `json:"changedAt"`
}

// OrderCancelledEvent is emitted when stock has been restored for a cancelled order.
type OrderCancelledEvent struct {
	OrderID      uuid.UUID          `json:"orderId"`
	OrderNumber  string             `json:"orderNumber"`
	BuyerID      uuid.UUID          `json:"buyerId"`
	Reason       string             `json:"reason,omitempty"`
	RefundStatus enums.RefundStatus `json:"refundStatus"`
	Items        []OrderLine        `json:"items"`
	CancelledAt  time.Time          `json:"cancelledAt"`
}

// OrderPaymentUpdatedEvent mirrors the payment sub-state after an update.
type OrderPaymentUpdatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transactionId,omitempty"`
	RefundAmount  *decimal.Decimal    `json:"refundAmount,omitempty"`
}

// JobApplicationSubmittedEvent notifies the farmer about a new applicant.
type JobApplicationSubmittedEvent struct {
	JobID       uuid.UUID `json:"jobId"`
	FarmerID    uuid.UUID `json:"farmerId"`
	ApplicantID uuid.UUID `json:"applicantId"`
	AppliedAt   time.Time `json:"appliedAt"`
}

// JobApplicationStatusChangedEvent notifies the applicant about a decision.
type JobApplicationStatusChangedEvent struct {
	JobID       uuid.UUID               `json:"jobId"`
	ApplicantID uuid.UUID               `json:"applicantId"`
	Status      enums.ApplicationStatus `json:"status"`
}

// JobExpiredEvent is emitted by the expiry sweep.
type JobExpiredEvent struct {
	JobID    uuid.UUID `json:"jobId"`
	FarmerID uuid.UUID `json:"farmerId"`
	Deadline time.Time `json:"deadline"`
}

// ProductReviewAddedEvent carries the recomputed rating.
type ProductReviewAddedEvent struct {
	ProductID     uuid.UUID       `json:"productId"`
	FarmerID      uuid.UUID       `json:"farmerId"`
	UserID        uuid.UUID       `json:"userId"`
	Rating        int             `json:"rating"`
	RatingAverage decimal.Decimal `json:"ratingAverage"`
	RatingCount   int             `json:"ratingCount"`
}
