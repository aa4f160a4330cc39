package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

type OrderDTO struct {
	ID                  uuid.UUID              `json:"id"`
	OrderNumber         string                 `json:"orderNumber"`
	BuyerID             uuid.UUID              `json:"buyerId"`
	Status              enums.OrderStatus      `json:"orderStatus"`
	Items               []OrderItemDTO         `json:"items"`
	Summary             SummaryDTO             `json:"orderSummary"`
	Payment             PaymentDTO             `json:"paymentInfo"`
	ShippingAddress     models.ShippingAddress `json:"shippingAddress"`
	Shipping            ShippingDTO            `json:"shippingInfo"`
	StatusHistory       []StatusHistoryDTO     `json:"statusHistory"`
	Notes               []NoteDTO              `json:"notes"`
	Cancellation        *CancellationDTO       `json:"cancellation,omitempty"`
	SpecialInstructions *string                `json:"specialInstructions,omitempty"`
	AllowedTransitions  []enums.OrderStatus    `json:"allowedTransitions"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

type OrderItemDTO struct {
	ProductID   uuid.UUID         `json:"productId"`
	FarmerID    uuid.UUID         `json:"farmerId"`
	ProductName string            `json:"productName"`
	Unit        enums.ProductUnit `json:"unit"`
	Quantity    int               `json:"quantity"`
	Price       decimal.Decimal   `json:"price"`
	Total       decimal.Decimal   `json:"total"`
}

type SummaryDTO struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

type PaymentDTO struct {
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	TransactionID *string             `json:"transactionId,omitempty"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	RefundedAt    *time.Time          `json:"refundedAt,omitempty"`
	RefundAmount  *decimal.Decimal    `json:"refundAmount,omitempty"`
}

type ShippingDTO struct {
	Method            enums.ShippingMethod `json:"method"`
	Carrier           *string              `json:"carrier,omitempty"`
	TrackingNumber    *string              `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time           `json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time           `json:"shippedAt,omitempty"`
	ActualDelivery    *time.Time           `json:"actualDelivery,omitempty"`
}

type StatusHistoryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Note      string            `json:"note,omitempty"`
	UpdatedBy uuid.UUID         `json:"updatedBy"`
	Timestamp time.Time         `json:"timestamp"`
}

type NoteDTO struct {
	AuthorID   uuid.UUID `json:"author"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CancellationDTO struct {
	Reason       *string            `json:"reason,omitempty"`
	CancelledBy  *uuid.UUID         `json:"cancelledBy,omitempty"`
	CancelledAt  *time.Time         `json:"cancelledAt,omitempty"`
	RefundStatus enums.RefundStatus `json:"refundStatus"`
}

// FromModel renders an order for the API. Internal notes are only shown
// when includeInternal is set (sellers and admins).
func FromModel(o *models.Order, includeInternal bool) OrderDTO {
	dto := OrderDTO{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		BuyerID:     o.BuyerID,
		Status:      o.Status,
		Summary: SummaryDTO{
			Subtotal:     o.Summary.Subtotal,
			ShippingCost: o.Summary.ShippingCost,
			Tax:          o.Summary.Tax,
			Discount:     o.Summary.Discount,
			Total:        o.Summary.Total,
		},
		Payment: PaymentDTO{
			Method:        o.Payment.Method,
			Status:        o.Payment.Status,
			TransactionID: o.Payment.TransactionID,
			PaidAt:        o.Payment.PaidAt,
			RefundedAt:    o.Payment.RefundedAt,
			RefundAmount:  o.Payment.RefundAmount,
		},
		ShippingAddress: o.ShippingAddress,
		Shipping: ShippingDTO{
			Method:            o.Shipping.Method,
			Carrier:           o.Shipping.Carrier,
			TrackingNumber:    o.Shipping.TrackingNumber,
			EstimatedDelivery: o.Shipping.EstimatedDelivery,
			ShippedAt:         o.Shipping.ShippedAt,
			ActualDelivery:    o.Shipping.ActualDelivery,
		},
		SpecialInstructions: o.SpecialInstructions,
		AllowedTransitions:  NextStatuses(o.Status),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}

	if dto.AllowedTransitions == nil {
		dto.AllowedTransitions = []enums.OrderStatus{}
	}

	dto.Items = make([]OrderItemDTO, len(o.Items))
	for i, item := range o.Items {
		dto.Items[i] = OrderItemDTO{
			ProductID:   item.ProductID,
			FarmerID:    item.FarmerID,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		}
	}

	dto.StatusHistory = make([]StatusHistoryDTO, len(o.StatusHistory))
	for i, h := range o.StatusHistory {
		dto.StatusHistory[i] = StatusHistoryDTO{
			Status:    h.Status,
			Note:      h.Note,
			UpdatedBy: h.UpdatedBy,
			Timestamp: h.CreatedAt,
		}
	}

	dto.Notes = []NoteDTO{}
	for _, n := range o.Notes {
		if n.IsInternal && !includeInternal {
			continue
		}
		dto.Notes = append(dto.Notes, NoteDTO{
			AuthorID:   n.AuthorID,
			Content:    n.Content,
			IsInternal: n.IsInternal,
			CreatedAt:  n.CreatedAt,
		})
	}

	if o.Status == enums.OrderStatusCancelled {
		dto.Cancellation = &CancellationDTO{
			Reason:       o.Cancellation.Reason,
			CancelledBy:  o.Cancellation.CancelledBy,
			CancelledAt:  o.Cancellation.CancelledAt,
			RefundStatus: o.Cancellation.RefundStatus,
		}
	}
	return dto
}

func FromModels(in []models.Order, includeInternal bool) []OrderDTO {
	out := make([]OrderDTO, len(in))
	for i := range in {
		out[i] = FromModel(&in[i], includeInternal)
	}
	return out
}
