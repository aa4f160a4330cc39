package products

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
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
	"github.com/srejanashetty/efarm-backend/pkg/outbox/payloads"
)

const reviewUniqueConstraint = "uq_product_reviews_product_user"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog reads, farmer listings and review aggregation.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Create(ctx context.Context, farmer auth.Actor, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, farmer auth.Actor, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, farmer auth.Actor, id uuid.UUID) error
	AddReview(ctx context.Context, input AddReviewInput) (*models.Product, error)
	ListReviews(ctx context.Context, productID uuid.UUID, limit int) ([]models.ProductReview, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDetail, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*CategoryDetail, error)
}

type CreateProductInput struct {
	CategoryID       *uuid.UUID
	Name             string
	Description      string
	Price            decimal.Decimal
	Unit             enums.ProductUnit
	Stock            int
	MinOrderQuantity int
	Freshness        enums.Freshness
	IsOrganic        bool
	Tags             []string
}

// UpdateProductInput changes only the non-nil fields. Tags replaces the
// list when non-nil.
type UpdateProductInput struct {
	CategoryID       *uuid.UUID
	Name             *string
	Description      *string
	Price            *decimal.Decimal
	Stock            *int
	MinOrderQuantity *int
	Freshness        *enums.Freshness
	Availability     *enums.Availability
	IsOrganic        *bool
	Tags             []string
}

// CategoryDetail is a category with the number of listings buyers can
// currently order from it.
type CategoryDetail struct {
	Category     models.Category
	ProductCount int64
}

type AddReviewInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Comment   *string
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: emitter,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get returns an active product with its reviews and counts the view.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindWithReviews(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment product views")
	}
	product.Views++
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, farmer auth.Actor, input CreateProductInput) (*models.Product, error) {
	if !farmer.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers can list products")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.MinOrderQuantity == 0 {
		input.MinOrderQuantity = 1
	}
	if input.MinOrderQuantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minOrderQuantity must be at least 1")
	}
	if input.Freshness == "" {
		input.Freshness = enums.FreshnessFresh
	}
	if !input.Freshness.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid freshness")
	}
	if input.CategoryID != nil {
		ok, err := s.repo.CategoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
		}
	}

	availability := enums.AvailabilityAvailable
	if input.Stock == 0 {
		availability = enums.AvailabilityOutOfStock
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	product := &models.Product{
		FarmerID:         farmer.UserID,
		CategoryID:       input.CategoryID,
		Name:             strings.TrimSpace(input.Name),
		Description:      strings.TrimSpace(input.Description),
		Price:            input.Price.Round(2),
		Unit:             input.Unit,
		Stock:            input.Stock,
		MinOrderQuantity: input.MinOrderQuantity,
		Freshness:        input.Freshness,
		Availability:     availability,
		IsOrganic:        input.IsOrganic,
		IsActive:         true,
		Tags:             tags,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

// Update edits a farmer's own listing. Availability follows stock unless
// the listing is discontinued.
func (s *service) Update(ctx context.Context, farmer auth.Actor, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if !farmer.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers can edit products")
	}
	if input.CategoryID != nil {
		ok, err := s.repo.CategoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindOwnedForUpdate(ctx, id, farmer.UserID)
		if err != nil {
			return notFoundOr(err, "load product")
		}
		columns, err := applyUpdate(product, input)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			return nil
		}
		if err := repo.Update(ctx, product, columns); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reload product")
	}
	return product, nil
}

// applyUpdate copies the requested changes onto product and returns the
// columns that changed.
func applyUpdate(product *models.Product, input UpdateProductInput) ([]string, error) {
	var columns []string
	set := func(column string) { columns = append(columns, column) }

	if input.CategoryID != nil {
		id := *input.CategoryID
		product.CategoryID = &id
		set("category_id")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		product.Name = name
		set("name")
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
		set("description")
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = input.Price.Round(2)
		set("price")
	}
	if input.MinOrderQuantity != nil {
		if *input.MinOrderQuantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minOrderQuantity must be at least 1")
		}
		product.MinOrderQuantity = *input.MinOrderQuantity
		set("min_order_quantity")
	}
	if input.Freshness != nil {
		if !input.Freshness.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid freshness")
		}
		product.Freshness = *input.Freshness
		set("freshness")
	}
	if input.IsOrganic != nil {
		product.IsOrganic = *input.IsOrganic
		set("is_organic")
	}
	if input.Tags != nil {
		product.Tags = input.Tags
		set("tags")
	}

	availability := product.Availability
	if input.Availability != nil {
		if !input.Availability.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid availability")
		}
		availability = *input.Availability
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
		set("stock")
	}
	if next := AvailabilityFor(availability, product.Stock); next != product.Availability {
		product.Availability = next
		set("availability")
	}
	return columns, nil
}

// AvailabilityFor keeps a listing's availability in step with its stock.
// Discontinued listings stay discontinued.
func AvailabilityFor(current enums.Availability, stock int) enums.Availability {
	switch {
	case current == enums.AvailabilityDiscontinued:
		return current
	case stock == 0:
		return enums.AvailabilityOutOfStock
	case current == enums.AvailabilityOutOfStock:
		return enums.AvailabilityAvailable
	default:
		return current
	}
}

// Delete removes a farmer's own listing and its reviews.
func (s *service) Delete(ctx context.Context, farmer auth.Actor, id uuid.UUID) error {
	if !farmer.IsFarmer() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only farmers can delete products")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).DeleteOwned(ctx, id, farmer.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil
	})
}

// AddReview records one review per user and recomputes the product's
// rating average over all reviews.
func (s *service) AddReview(ctx context.Context, input AddReviewInput) (*models.Product, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Comment != nil {
		trimmed := strings.TrimSpace(*input.Comment)
		if len(trimmed) > 500 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment cannot exceed 500 characters")
		}
		input.Comment = &trimmed
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, input.ProductID)
		if err != nil {
			return notFoundOr(err, "load product")
		}

		if _, err := repo.FindReview(ctx, product.ID, input.UserID); err == nil {
			return alreadyReviewed()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
		}

		review := &models.ProductReview{
			ProductID: product.ID,
			UserID:    input.UserID,
			Rating:    input.Rating,
			Comment:   input.Comment,
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			if dbpkg.IsUniqueViolation(err, reviewUniqueConstraint) {
				return alreadyReviewed()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		ratings, err := repo.ReviewRatings(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
		}
		average := AverageRating(ratings)
		if err := repo.UpdateRating(ctx, product.ID, average, len(ratings)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rating")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductReviewAdded,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			OccurredAt:    s.now(),
			Data: payloads.ProductReviewAddedEvent{
				ProductID:     product.ID,
				FarmerID:      product.FarmerID,
				UserID:        input.UserID,
				Rating:        input.Rating,
				RatingAverage: average,
				RatingCount:   len(ratings),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindWithReviews(ctx, input.ProductID)
	if err != nil {
		return nil, notFoundOr(err, "reload product")
	}
	return product, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, limit int) ([]models.ProductReview, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFoundOr(err, "load product")
	}
	out, err := s.repo.ListReviews(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return out, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	out, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return out, nil
}

// GetCategory looks a category up by id whether or not it is active.
func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDetail, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, categoryNotFoundOr(err)
	}
	return s.categoryDetail(ctx, category)
}

// GetCategoryBySlug only resolves active categories.
func (s *service) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
	}
	category, err := s.repo.FindCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, categoryNotFoundOr(err)
	}
	return s.categoryDetail(ctx, category)
}

func (s *service) categoryDetail(ctx context.Context, category *models.Category) (*CategoryDetail, error) {
	count, err := s.repo.CountAvailableInCategory(ctx, category.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	return &CategoryDetail{Category: *category, ProductCount: count}, nil
}

func categoryNotFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
}

// AverageRating is the mean of ratings rounded to two decimals; zero when
// there are none.
func AverageRating(ratings []int) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return decimal.NewFromInt(int64(sum)).
		DivRound(decimal.NewFromInt(int64(len(ratings))), 2)
}

func alreadyReviewed() error {
	return pkgerrors.BusinessRule(pkgerrors.ReasonAlreadyReviewed, "You have already reviewed this product")
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
