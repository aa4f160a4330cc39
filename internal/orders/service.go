package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/auth"
	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
	"github.com/srejanashetty/efarm-backend/pkg/outbox/payloads"
)

const (
	noteOrderCreated    = "Order created"
	noteCancelledByUser = "Order cancelled by customer"
	maxTextLength       = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Inventory is the product stock ledger. Decrement must be a single
// conditional update that reports false when stock is insufficient.
type Inventory interface {
	Product(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error)
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
}

// Service covers the order lifecycle: checkout, status machine,
// cancellation, and the payment/shipping/notes side records.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*models.Order, error)
	AddNote(ctx context.Context, input AddNoteInput) (*models.Order, error)
	UpdateShipping(ctx context.Context, input UpdateShippingInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*models.Order, error)
	List(ctx context.Context, actor auth.Actor, status *enums.OrderStatus, limit int) ([]models.Order, error)
}

type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type CheckoutInput struct {
	BuyerID             uuid.UUID
	Items               []CheckoutLine
	ShippingAddress     models.ShippingAddress
	PaymentMethod       enums.PaymentMethod
	ShippingMethod      enums.ShippingMethod
	SpecialInstructions *string
}

type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Note    string
	Actor   auth.Actor
}

type CancelInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Reason  string
}

type UpdatePaymentInput struct {
	OrderID       uuid.UUID
	Status        enums.PaymentStatus
	TransactionID *string
	RefundAmount  *decimal.Decimal
	Actor         auth.Actor
}

type AddNoteInput struct {
	OrderID    uuid.UUID
	Content    string
	IsInternal bool
	Actor      auth.Actor
}

type UpdateShippingInput struct {
	OrderID           uuid.UUID
	Method            *enums.ShippingMethod
	Carrier           *string
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	Actor             auth.Actor
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory Inventory
	outbox    outbox.Emitter
	pricing   Pricing
	maxItems  int
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the order service. maxItems <= 0 disables the line cap.
func NewService(repo Repository, tx txRunner, inventory Inventory, emitter outbox.Emitter, pricing Pricing, maxItems int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inventory,
		outbox:    emitter,
		pricing:   pricing,
		maxItems:  maxItems,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if err := s.validateCheckout(&input); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))

		for i, line := range input.Items {
			product, err := s.inventory.Product(ctx, tx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product %s not found", line.ProductID)).
						WithDetail("productId", line.ProductID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !product.Sellable() {
				return pkgerrors.BusinessRule(pkgerrors.ReasonProductUnavailable,
					fmt.Sprintf("%s is not available", product.Name)).
					WithDetail("productId", product.ID)
			}
			if line.Quantity < product.MinOrderQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("Minimum order quantity for %s is %d", product.Name, product.MinOrderQuantity)).
					WithDetail("productId", product.ID)
			}

			ok, err := s.inventory.Decrement(ctx, tx, product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.BusinessRule(pkgerrors.ReasonInsufficientStock,
					fmt.Sprintf("Insufficient stock for %s. Available: %d", product.Name, product.Stock)).
					WithDetail("productId", product.ID).
					WithDetail("available", product.Stock).
					WithDetail("requested", line.Quantity)
			}

			total := LineTotal(product.Price, line.Quantity)
			subtotal = subtotal.Add(total)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				FarmerID:    product.FarmerID,
				ProductName: product.Name,
				Unit:        product.Unit,
				Quantity:    line.Quantity,
				Price:       product.Price,
				Total:       total,
				Position:    i,
			})
		}

		count, err := repo.Count(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
		}

		now := s.now()
		order := &models.Order{
			OrderNumber: OrderNumber(now, count+1),
			BuyerID:     input.BuyerID,
			Summary:     s.pricing.Summarize(subtotal),
			Payment: models.PaymentInfo{
				Method: input.PaymentMethod,
				Status: enums.PaymentStatusPending,
			},
			Status:              enums.OrderStatusPending,
			ShippingAddress:     input.ShippingAddress,
			Shipping:            models.ShippingInfo{Method: input.ShippingMethod},
			Cancellation:        models.Cancellation{RefundStatus: enums.RefundStatusNotApplicable},
			SpecialInstructions: input.SpecialInstructions,
			Items:               items,
			StatusHistory: []models.OrderStatusHistory{{
				Status:    enums.OrderStatusPending,
				Note:      noteOrderCreated,
				UpdatedBy: input.BuyerID,
				Sequence:  1,
				CreatedAt: now,
			}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Create(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_orders_order_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already issued, retry checkout")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		orderID = order.ID

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: string(enums.UserRoleUser)},
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.BuyerID,
				Total:       order.Summary.Total,
				Items:       orderLines(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "items": len(input.Items)})
	s.logg.Info(ctx, "order placed")
	return s.load(ctx, orderID)
}

func (s *service) validateCheckout(input *CheckoutInput) error {
	if input.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Order must contain at least one item")
	}
	if s.maxItems > 0 && len(input.Items) > s.maxItems {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Order cannot contain more than %d items", s.maxItems))
	}
	for _, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "productId is required for every item")
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.ShippingMethod == "" {
		input.ShippingMethod = enums.ShippingMethodStandard
	}
	if !input.ShippingMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	addr := &input.ShippingAddress
	if strings.TrimSpace(addr.Street) == "" || strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.State) == "" || strings.TrimSpace(addr.ZipCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address requires street, city, state and zipCode")
	}
	if strings.TrimSpace(addr.Country) == "" {
		addr.Country = "US"
	}
	if input.SpecialInstructions != nil && len(*input.SpecialInstructions) > maxTextLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "special instructions cannot exceed 500 characters")
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.Actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid status").
			WithDetail("allowed", enums.OrderStatuses())
	}
	if !input.Actor.IsAdmin() && !input.Actor.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers and admins may update order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := s.authorizeSeller(ctx, repo, order.ID, input.Actor); err != nil {
			return err
		}
		if err := checkTransition(order.Status, input.Status); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"order_status": input.Status}
		switch input.Status {
		case enums.OrderStatusShipped:
			updates["shipping_shipped_at"] = now
		case enums.OrderStatusDelivered:
			updates["shipping_actual_delivery"] = now
			if order.Shipping.ShippedAt == nil {
				updates["shipping_shipped_at"] = now
			}
		case enums.OrderStatusCancelled:
			if err := s.restoreStock(ctx, tx, order.Items); err != nil {
				return err
			}
			updates["cancellation_cancelled_at"] = now
			updates["cancellation_cancelled_by"] = input.Actor.UserID
			updates["cancellation_refund_status"] = refundStatusFor(order.Payment.Status)
		}

		return s.applyTransition(ctx, tx, repo, order, transition{
			to:      input.Status,
			note:    input.Note,
			actor:   input.Actor,
			at:      now,
			updates: updates,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, input.OrderID)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	reason := strings.TrimSpace(input.Reason)
	if len(reason) > maxTextLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason cannot exceed 500 characters")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		if !IsCancellable(order.Status) {
			return pkgerrors.BusinessRule(pkgerrors.ReasonInvalidTransition, "Order cannot be cancelled at this stage").
				WithDetail("status", order.Status)
		}

		if err := s.restoreStock(ctx, tx, order.Items); err != nil {
			return err
		}

		now := s.now()
		refund := refundStatusFor(order.Payment.Status)
		updates := map[string]any{
			"order_status":               enums.OrderStatusCancelled,
			"cancellation_cancelled_at":  now,
			"cancellation_cancelled_by":  input.BuyerID,
			"cancellation_refund_status": refund,
		}
		if reason != "" {
			updates["cancellation_reason"] = reason
		}
		actor := auth.Actor{UserID: input.BuyerID, Role: enums.UserRoleUser}
		if err := s.applyTransition(ctx, tx, repo, order, transition{
			to:      enums.OrderStatusCancelled,
			note:    noteCancelledByUser,
			actor:   actor,
			at:      now,
			updates: updates,
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			OccurredAt:    now,
			Data: payloads.OrderCancelledEvent{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				BuyerID:      order.BuyerID,
				Reason:       reason,
				RefundStatus: refund,
				Items:        orderLines(order.Items),
				CancelledAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, input.OrderID)
}

type transition struct {
	to      enums.OrderStatus
	note    string
	actor   auth.Actor
	at      time.Time
	updates map[string]any
}

// applyTransition persists the status change, appends exactly one history
// entry, and emits order_status_changed. Callers validate the move first.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, t transition) error {
	if err := checkTransition(order.Status, t.to); err != nil {
		return err
	}
	t.updates["updated_at"] = t.at
	if err := repo.Update(ctx, order.ID, t.updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	seq, err := repo.NextHistorySequence(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read status history")
	}
	if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    t.to,
		Note:      t.note,
		UpdatedBy: t.actor.UserID,
		Sequence:  seq,
		CreatedAt: t.at,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	from := order.Status
	order.Status = t.to
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(t.actor),
		OccurredAt:    t.at,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			BuyerID:     order.BuyerID,
			From:        from,
			To:          t.to,
			Note:        t.note,
			ChangedAt:   t.at,
		},
	})
}

// restoreStock returns every line to its product. Products deleted since
// checkout are skipped.
func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		ok, err := s.inventory.Restore(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
		if !ok {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID.String()), "stock restore skipped for missing product")
		}
	}
	return nil
}

func (s *service) UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*models.Order, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may update payment status")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if input.RefundAmount != nil && input.RefundAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must not be negative")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"payment_status": input.Status}
		if input.TransactionID != nil {
			updates["payment_transaction_id"] = strings.TrimSpace(*input.TransactionID)
		}
		refund := input.RefundAmount
		switch input.Status {
		case enums.PaymentStatusCompleted:
			updates["payment_paid_at"] = now
		case enums.PaymentStatusRefunded:
			if refund == nil {
				total := order.Summary.Total
				refund = &total
			}
			if refund.GreaterThan(order.Summary.Total) {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total")
			}
			updates["payment_refunded_at"] = now
			updates["payment_refund_amount"] = *refund
			if order.Status == enums.OrderStatusCancelled {
				updates["cancellation_refund_status"] = enums.RefundStatusProcessed
			}
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.Actor),
			OccurredAt:    now,
			Data: payloads.OrderPaymentUpdatedEvent{
				OrderID:       order.ID,
				Status:        input.Status,
				TransactionID: input.TransactionID,
				RefundAmount:  refund,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, input.OrderID)
}

func (s *service) AddNote(ctx context.Context, input AddNoteInput) (*models.Order, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note content is required")
	}
	if len(content) > maxTextLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note cannot exceed 500 characters")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.lockOrder(ctx, repo, input.OrderID); err != nil {
			return err
		}
		if err := s.authorizeSeller(ctx, repo, input.OrderID, input.Actor); err != nil {
			return err
		}
		if err := repo.AddNote(ctx, &models.OrderNote{
			OrderID:    input.OrderID,
			AuthorID:   input.Actor.UserID,
			Content:    content,
			IsInternal: input.IsInternal,
			CreatedAt:  s.now(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add note")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, input.OrderID)
}

func (s *service) UpdateShipping(ctx context.Context, input UpdateShippingInput) (*models.Order, error) {
	updates := map[string]any{}
	if input.Method != nil {
		if !input.Method.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
		}
		updates["shipping_method"] = *input.Method
	}
	if input.Carrier != nil {
		updates["shipping_carrier"] = strings.TrimSpace(*input.Carrier)
	}
	if input.TrackingNumber != nil {
		updates["shipping_tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
	}
	if input.EstimatedDelivery != nil {
		updates["shipping_estimated_delivery"] = input.EstimatedDelivery.UTC()
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no shipping fields provided")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := s.authorizeSeller(ctx, repo, order.ID, input.Actor); err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusReturned {
			return pkgerrors.BusinessRule(pkgerrors.ReasonInvalidTransition, "shipping cannot change on a closed order")
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, input.OrderID)
}

// Get returns the order if the caller may see it: the buyer, a farmer with
// an item on it, or an admin. Anything else reads as not found.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if visible(order, actor) {
		return order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
}

func (s *service) List(ctx context.Context, actor auth.Actor, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	filter := ListFilter{Status: status, Limit: limit}
	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleFarmer:
		filter.FarmerID = &actor.UserID
	default:
		filter.BuyerID = &actor.UserID
	}
	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// authorizeSeller allows admins and farmers owning at least one item.
func (s *service) authorizeSeller(ctx context.Context, repo Repository, orderID uuid.UUID, actor auth.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsFarmer() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to update this order")
	}
	ok, err := repo.HasFarmerItem(ctx, orderID, actor.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order ownership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to update this order")
	}
	return nil
}

func visible(order *models.Order, actor auth.Actor) bool {
	switch {
	case actor.IsZero():
		return false
	case actor.IsAdmin():
		return true
	case order.BuyerID == actor.UserID:
		return true
	case actor.IsFarmer():
		for _, item := range order.Items {
			if item.FarmerID == actor.UserID {
				return true
			}
		}
	}
	return false
}

func refundStatusFor(payment enums.PaymentStatus) enums.RefundStatus {
	if payment == enums.PaymentStatusCompleted {
		return enums.RefundStatusPending
	}
	return enums.RefundStatusNotApplicable
}

// OrderNumber renders "EF" + unix millis + the zero-padded running count.
func OrderNumber(now time.Time, seq int64) string {
	return fmt.Sprintf("EF%d%04d", now.UnixMilli(), seq)
}

func orderLines(items []models.OrderItem) []payloads.OrderLine {
	out := make([]payloads.OrderLine, 0, len(items))
	for _, item := range items {
		out = append(out, payloads.OrderLine{
			ProductID: item.ProductID,
			FarmerID:  item.FarmerID,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return out
}

func actorRef(a auth.Actor) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}
