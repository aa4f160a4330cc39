package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	"github.com/srejanashetty/efarm-backend/api/responses"
	"github.com/srejanashetty/efarm-backend/api/validators"
	internalorders "github.com/srejanashetty/efarm-backend/internal/orders"
	"github.com/srejanashetty/efarm-backend/pkg/auth"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/pagination"
	"github.com/srejanashetty/efarm-backend/pkg/types"
)

type orderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type shippingAddressRequest struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country"`
}

type createOrderRequest struct {
	Items               []orderItemRequest     `json:"items" validate:"required,dive"`
	ShippingAddress     shippingAddressRequest `json:"shippingAddress" validate:"required"`
	PaymentMethod       string                 `json:"paymentMethod" validate:"required"`
	ShippingMethod      string                 `json:"shippingMethod"`
	SpecialInstructions *string                `json:"specialInstructions" validate:"omitempty,max=500"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type updatePaymentRequest struct {
	Status        string           `json:"status" validate:"required"`
	TransactionID *string          `json:"transactionId" validate:"omitempty,max=255"`
	RefundAmount  *decimal.Decimal `json:"refundAmount"`
}

type addNoteRequest struct {
	Content    string `json:"content" validate:"required,max=500"`
	IsInternal bool   `json:"isInternal"`
}

type updateShippingRequest struct {
	Method            *string    `json:"method"`
	Carrier           *string    `json:"carrier" validate:"omitempty,max=100"`
	TrackingNumber    *string    `json:"trackingNumber" validate:"omitempty,max=100"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

type orderBody struct {
	Order internalorders.OrderDTO `json:"order"`
}

// Create places an order for the authenticated buyer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		var req createOrderRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]internalorders.CheckoutLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, internalorders.CheckoutLine{
				ProductID: uuid.MustParse(item.ProductID),
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.Checkout(r.Context(), internalorders.CheckoutInput{
			BuyerID: actor.UserID,
			Items:   lines,
			ShippingAddress: models.ShippingAddress{
				Street:  strings.TrimSpace(req.ShippingAddress.Street),
				City:    strings.TrimSpace(req.ShippingAddress.City),
				State:   strings.TrimSpace(req.ShippingAddress.State),
				ZipCode: strings.TrimSpace(req.ShippingAddress.ZipCode),
				Country: strings.TrimSpace(req.ShippingAddress.Country),
			},
			PaymentMethod:       enums.PaymentMethod(req.PaymentMethod),
			ShippingMethod:      enums.ShippingMethod(req.ShippingMethod),
			SpecialInstructions: trimmed(req.SpecialInstructions),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Order created successfully", orderBody{Order: internalorders.FromModel(order, false)})
	}
}

// List returns the caller's orders: a buyer's own, a farmer's containing
// their products, or all of them for an admin.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.OrderStatus.IsValid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var statusFilter *enums.OrderStatus
		if status != "" {
			statusFilter = &status
		}

		list, err := svc.List(r.Context(), actor, statusFilter, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(internalorders.FromModels(list, seesInternal(actor)), limit))
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.URLParamUUID(r, "id", "Order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.ActorFromContext(r.Context())
		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderBody{Order: internalorders.FromModel(order, seesInternal(actor))})
	}
}

// UpdateStatus moves the order along the status machine; farmers and admins only.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.URLParamUUID(r, "id", "Order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.ActorFromContext(r.Context())
		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID: orderID,
			Status:  enums.OrderStatus(strings.TrimSpace(req.Status)),
			Note:    strings.TrimSpace(req.Note),
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Order status updated successfully", orderBody{Order: internalorders.FromModel(order, true)})
	}
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.URLParamUUID(r, "id", "Order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.ActorFromContext(r.Context())
		order, err := svc.Cancel(r.Context(), internalorders.CancelInput{
			OrderID: orderID,
			BuyerID: actor.UserID,
			Reason:  strings.TrimSpace(req.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Order cancelled successfully", orderBody{Order: internalorders.FromModel(order, false)})
	}
}

func UpdatePayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.URLParamUUID(r, "id", "Order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updatePaymentRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdatePayment(r.Context(), internalorders.UpdatePaymentInput{
			OrderID:       orderID,
			Status:        enums.PaymentStatus(strings.TrimSpace(req.Status)),
			TransactionID: trimmed(req.TransactionID),
			RefundAmount:  req.RefundAmount,
			Actor:         middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Payment updated successfully", orderBody{Order: internalorders.FromModel(order, true)})
	}
}

func AddNote(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.URLParamUUID(r, "id", "Order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req addNoteRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.AddNote(r.Context(), internalorders.AddNoteInput{
			OrderID:    orderID,
			Content:    strings.TrimSpace(req.Content),
			IsInternal: req.IsInternal,
			Actor:      middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Note added successfully", orderBody{Order: internalorders.FromModel(order, true)})
	}
}

func UpdateShipping(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.URLParamUUID(r, "id", "Order")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateShippingRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalorders.UpdateShippingInput{
			OrderID:           orderID,
			Carrier:           trimmed(req.Carrier),
			TrackingNumber:    trimmed(req.TrackingNumber),
			EstimatedDelivery: req.EstimatedDelivery,
			Actor:             middleware.ActorFromContext(r.Context()),
		}
		if req.Method != nil {
			method := enums.ShippingMethod(strings.TrimSpace(*req.Method))
			input.Method = &method
		}
		if input.Method == nil && input.Carrier == nil && input.TrackingNumber == nil && input.EstimatedDelivery == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipping field is required"))
			return
		}
		order, err := svc.UpdateShipping(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Shipping updated successfully", orderBody{Order: internalorders.FromModel(order, true)})
	}
}

func seesInternal(actor auth.Actor) bool {
	return actor.IsAdmin() || actor.IsFarmer()
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
