package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their child tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	NextHistorySequence(ctx context.Context, orderID uuid.UUID) (int, error)
	AddNote(ctx context.Context, note *models.OrderNote) error
	HasFarmerItem(ctx context.Context, orderID, farmerID uuid.UUID) (bool, error)
}

// ListFilter scopes order listings. Exactly one of BuyerID/FarmerID is set
// for non-admin callers.
type ListFilter struct {
	BuyerID  *uuid.UUID
	FarmerID *uuid.UUID
	Status   *enums.OrderStatus
	Limit    int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items and history rows.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate row-locks the order (postgres) and loads its items.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("position ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	if filter.BuyerID != nil {
		q = q.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.FarmerID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.farmer_id = ?)", *filter.FarmerID)
	}
	if filter.Status != nil {
		q = q.Where("order_status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var out []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) NextHistorySequence(ctx context.Context, orderID uuid.UUID) (int, error) {
	var last int
	err := r.db.WithContext(ctx).
		Model(&models.OrderStatusHistory{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(MAX(sequence), 0)").
		Row().
		Scan(&last)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *repository) AddNote(ctx context.Context, note *models.OrderNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) HasFarmerItem(ctx context.Context, orderID, farmerID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND farmer_id = ?", orderID, farmerID).
		Count(&n).Error
	return n > 0, err
}
