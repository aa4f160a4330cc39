package products

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	"github.com/srejanashetty/efarm-backend/api/responses"
	"github.com/srejanashetty/efarm-backend/api/validators"
	internalproducts "github.com/srejanashetty/efarm-backend/internal/products"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/pagination"
	"github.com/srejanashetty/efarm-backend/pkg/types"
)

type createProductRequest struct {
	CategoryID       *string         `json:"categoryId" validate:"omitempty,uuid"`
	Name             string          `json:"name" validate:"required,max=100"`
	Description      string          `json:"description" validate:"max=2000"`
	Price            decimal.Decimal `json:"price"`
	Unit             string          `json:"unit" validate:"required"`
	Stock            int             `json:"stock" validate:"gte=0"`
	MinOrderQuantity int             `json:"minOrderQuantity" validate:"gte=0"`
	Freshness        string          `json:"freshness"`
	IsOrganic        bool            `json:"isOrganic"`
	Tags             []string        `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

type updateProductRequest struct {
	CategoryID       *string          `json:"categoryId" validate:"omitempty,uuid"`
	Name             *string          `json:"name" validate:"omitempty,max=100"`
	Description      *string          `json:"description" validate:"omitempty,max=2000"`
	Price            *decimal.Decimal `json:"price"`
	Stock            *int             `json:"stock" validate:"omitempty,gte=0"`
	MinOrderQuantity *int             `json:"minOrderQuantity" validate:"omitempty,gte=1"`
	Freshness        *string          `json:"freshness"`
	Availability     *string          `json:"availability"`
	IsOrganic        *bool            `json:"isOrganic"`
	Tags             []string         `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

type reviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

type productBody struct {
	Product internalproducts.ProductDTO `json:"product"`
}

type categoryBody struct {
	Category internalproducts.CategoryDetailDTO `json:"category"`
}

func List(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		farmerID, err := validators.ParseQueryUUID(r, "farmer")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organic, err := validators.ParseQueryBool(r, "organic")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), internalproducts.ListFilter{
			CategoryID: categoryID,
			FarmerID:   farmerID,
			Organic:    organic,
			Search:     validators.SanitizeString(r.URL.Query().Get("search"), 100),
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(internalproducts.FromModels(list), limit))
	}
}

// Detail returns the product with its reviews and counts the view.
func Detail(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "id", "Product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productBody{Product: internalproducts.FromModel(product)})
	}
}

func Create(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalproducts.CreateProductInput{
			Name:             strings.TrimSpace(req.Name),
			Description:      strings.TrimSpace(req.Description),
			Price:            req.Price,
			Unit:             enums.ProductUnit(req.Unit),
			Stock:            req.Stock,
			MinOrderQuantity: req.MinOrderQuantity,
			Freshness:        enums.Freshness(req.Freshness),
			IsOrganic:        req.IsOrganic,
			Tags:             req.Tags,
		}
		if req.CategoryID != nil {
			id := uuid.MustParse(*req.CategoryID)
			input.CategoryID = &id
		}
		product, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Product created successfully", productBody{Product: internalproducts.FromModel(product)})
	}
}

// Update edits one of the calling farmer's listings.
func Update(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "id", "Product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalproducts.UpdateProductInput{
			Name:             req.Name,
			Description:      req.Description,
			Price:            req.Price,
			Stock:            req.Stock,
			MinOrderQuantity: req.MinOrderQuantity,
			IsOrganic:        req.IsOrganic,
			Tags:             req.Tags,
		}
		if req.CategoryID != nil {
			id := uuid.MustParse(*req.CategoryID)
			input.CategoryID = &id
		}
		if req.Freshness != nil {
			freshness := enums.Freshness(strings.TrimSpace(*req.Freshness))
			input.Freshness = &freshness
		}
		if req.Availability != nil {
			availability := enums.Availability(strings.TrimSpace(*req.Availability))
			input.Availability = &availability
		}
		product, err := svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Product updated successfully", productBody{Product: internalproducts.FromModel(product)})
	}
}

func Delete(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "id", "Product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Product deleted successfully", nil)
	}
}

// AddReview records the caller's rating and returns the product with its
// recomputed average.
func AddReview(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "id", "Product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req reviewRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.AddReview(r.Context(), internalproducts.AddReviewInput{
			ProductID: productID,
			UserID:    middleware.ActorFromContext(r.Context()).UserID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Review added successfully", productBody{Product: internalproducts.FromModel(product)})
	}
}

func ListReviews(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.URLParamUUID(r, "id", "Product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviews, err := svc.ListReviews(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(internalproducts.ReviewsFromModels(reviews), limit))
	}
}

func ListCategories(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": internalproducts.CategoriesFromModels(categories)})
	}
}

func CategoryDetail(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.URLParamUUID(r, "id", "Category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetCategory(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categoryBody{Category: internalproducts.CategoryDetailFrom(detail)})
	}
}

func CategoryBySlug(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := validators.SanitizeString(chi.URLParam(r, "slug"), 60)
		detail, err := svc.GetCategoryBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categoryBody{Category: internalproducts.CategoryDetailFrom(detail)})
	}
}
