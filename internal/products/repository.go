package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// ListFilter narrows the public catalog listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	FarmerID   *uuid.UUID
	Organic    *bool
	Search     string
	Limit      int
}

// Repository wires together product, review and category persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindWithReviews loads the product and its reviews, newest first.
func (r *Repository) FindWithReviews(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.FarmerID != nil {
		q = q.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.Organic != nil {
		q = q.Where("is_organic = ?", *filter.Organic)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []models.Product
	if err := q.Order("is_featured DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// DecrementStock takes qty units in one conditional UPDATE and reports
// false, changing nothing, when fewer than qty units remain.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"total_sold": gorm.Expr("total_sold + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock = 0 AND availability = ?", id, enums.AvailabilityAvailable).
		UpdateColumn("availability", enums.AvailabilityOutOfStock).Error
	return err == nil, err
}

// RestoreStock returns qty units. It reports false when the product no
// longer exists.
func (r *Repository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"total_sold": gorm.Expr("CASE WHEN total_sold >= ? THEN total_sold - ? ELSE 0 END", qty, qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock > 0 AND availability = ?", id, enums.AvailabilityOutOfStock).
		UpdateColumn("availability", enums.AvailabilityAvailable).Error
	return err == nil, err
}

func (r *Repository) FindReview(ctx context.Context, productID, userID uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) CreateReview(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) ListReviews(ctx context.Context, productID uuid.UUID, limit int) ([]models.ProductReview, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.ProductReview
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewRatings returns every rating for the product so the average can be
// computed exactly in decimal.
func (r *Repository) ReviewRatings(ctx context.Context, productID uuid.UUID) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).
		Model(&models.ProductReview{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).Error
	return ratings, err
}

func (r *Repository) UpdateRating(ctx context.Context, productID uuid.UUID, average decimal.Decimal, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]any{
			"rating_average": average,
			"rating_count":   count,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ? AND is_active = ?", id, true).Count(&n).Error
	return n > 0, err
}

// FindOwnedForUpdate locks a product row owned by farmerID.
func (r *Repository) FindOwnedForUpdate(ctx context.Context, id, farmerID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND farmer_id = ?", id, farmerID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update writes the named columns from product. Selecting them keeps
// false and zero values in the statement.
func (r *Repository) Update(ctx context.Context, product *models.Product, columns []string) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select(append(columns, "updated_at")).
		Updates(product).Error
}

// DeleteOwned removes the farmer's product and its reviews. Order items
// keep their snapshot and are not touched.
func (r *Repository) DeleteOwned(ctx context.Context, id, farmerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND farmer_id = ?", id, farmerID).
		Delete(&models.Product{})
	if res.Error != nil || res.RowsAffected == 0 {
		return false, res.Error
	}
	err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.ProductReview{}).Error
	return err == nil, err
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", strings.ToLower(slug), true).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CountAvailableInCategory counts active listings buyers can order now.
func (r *Repository) CountAvailableInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ? AND is_active = ? AND availability = ?", categoryID, true, enums.AvailabilityAvailable).
		Count(&n).Error
	return n, err
}
