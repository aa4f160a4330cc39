package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Order is the checkout aggregate. Items, status history and notes are
// child tables keyed by order_id.
type Order struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         string               `gorm:"column:order_number;not null;uniqueIndex:uq_orders_order_number"`
	BuyerID             uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	Summary             OrderSummary         `gorm:"embedded"`
	Payment             PaymentInfo          `gorm:"embedded;embeddedPrefix:payment_"`
	Status              enums.OrderStatus    `gorm:"column:order_status;type:order_status;not null;default:pending;index"`
	ShippingAddress     ShippingAddress      `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	Shipping            ShippingInfo         `gorm:"embedded;embeddedPrefix:shipping_"`
	Cancellation        Cancellation         `gorm:"embedded;embeddedPrefix:cancellation_"`
	SpecialInstructions *string              `gorm:"column:special_instructions"`
	Items               []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory       []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Notes               []OrderNote          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

type OrderSummary struct {
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	Tax          decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Discount     decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
}

type PaymentInfo struct {
	Method        enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:pending"`
	TransactionID *string             `gorm:"column:transaction_id"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	RefundAmount  *decimal.Decimal    `gorm:"column:refund_amount;type:numeric(12,2)"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type ShippingInfo struct {
	Method            enums.ShippingMethod `gorm:"column:method;type:shipping_method;not null;default:standard"`
	Carrier           *string              `gorm:"column:carrier"`
	TrackingNumber    *string              `gorm:"column:tracking_number"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery"`
	ShippedAt         *time.Time           `gorm:"column:shipped_at"`
	ActualDelivery    *time.Time           `gorm:"column:actual_delivery"`
}

type Cancellation struct {
	Reason       *string            `gorm:"column:reason"`
	CancelledBy  *uuid.UUID         `gorm:"column:cancelled_by;type:uuid"`
	CancelledAt  *time.Time         `gorm:"column:cancelled_at"`
	RefundStatus enums.RefundStatus `gorm:"column:refund_status;type:refund_status;not null;default:not_applicable"`
}

// OrderItem snapshots the product price at checkout; Total is never recomputed.
type OrderItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	FarmerID    uuid.UUID         `gorm:"column:farmer_id;type:uuid;not null;index"`
	ProductName string            `gorm:"column:product_name;not null"`
	Unit        enums.ProductUnit `gorm:"column:unit;type:product_unit;not null"`
	Quantity    int               `gorm:"column:quantity;not null;check:quantity > 0"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Position    int               `gorm:"column:position;not null;default:0"`
}

// OrderStatusHistory is append-only; rows are never updated or deleted.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Note      string            `gorm:"column:note;not null;default:''"`
	UpdatedBy uuid.UUID         `gorm:"column:updated_by;type:uuid;not null"`
	Sequence  int               `gorm:"column:sequence;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

type OrderNote struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	AuthorID   uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Content    string    `gorm:"column:content;not null"`
	IsInternal bool      `gorm:"column:is_internal;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
