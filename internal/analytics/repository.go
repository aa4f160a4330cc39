package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// OrderAggregate is the COUNT and SUM(total) of a set of orders.
type OrderAggregate struct {
	Orders  int64
	Revenue decimal.Decimal
}

// SalesAggregate totals a farmer's delivered order items. Lines counts
// items, not orders.
type SalesAggregate struct {
	Lines    int64
	Quantity int64
	Revenue  decimal.Decimal
}

// Window is a half-open [From, To) time range. A zero bound is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) apply(q *gorm.DB, column string) *gorm.DB {
	if !w.From.IsZero() {
		q = q.Where(column+" >= ?", w.From)
	}
	if !w.To.IsZero() {
		q = q.Where(column+" < ?", w.To)
	}
	return q
}

// Repository runs the read-only aggregate queries. Month buckets are issued
// as one windowed aggregate each so the same SQL serves postgres and sqlite.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OrderTotals counts and sums orders created within w. A nil status spans
// every status.
func (r *Repository) OrderTotals(ctx context.Context, w Window, status *enums.OrderStatus) (OrderAggregate, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue")
	if status != nil {
		q = q.Where("order_status = ?", *status)
	}
	var row OrderAggregate
	if err := w.apply(q, "created_at").Scan(&row).Error; err != nil {
		return OrderAggregate{}, err
	}
	row.Revenue = row.Revenue.Round(2)
	return row, nil
}

// CountUsers counts accounts with the given role created within w. A nil
// active filter counts every account.
func (r *Repository) CountUsers(ctx context.Context, role enums.UserRole, w Window, active *bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role)
	if active != nil {
		q = q.Where("is_active = ?", *active)
	}
	var n int64
	err := w.apply(q, "created_at").Count(&n).Error
	return n, err
}

func (r *Repository) CountProducts(ctx context.Context, w Window, farmerID *uuid.UUID, availability *enums.Availability) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if farmerID != nil {
		q = q.Where("farmer_id = ?", *farmerID)
	}
	if availability != nil {
		q = q.Where("availability = ?", *availability)
	}
	var n int64
	err := w.apply(q, "created_at").Count(&n).Error
	return n, err
}

func (r *Repository) CountOrders(ctx context.Context, w Window) (int64, error) {
	var n int64
	err := w.apply(r.db.WithContext(ctx).Model(&models.Order{}), "created_at").Count(&n).Error
	return n, err
}

// CountFarmerOrders counts orders holding at least one of the farmer's items.
func (r *Repository) CountFarmerOrders(ctx context.Context, farmerID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("farmer_id = ?", farmerID).
		Distinct("order_id").
		Count(&n).Error
	return n, err
}

func (r *Repository) CountJobs(ctx context.Context, farmerID *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Job{})
	if farmerID != nil {
		q = q.Where("farmer_id = ?", *farmerID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *Repository) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&n).Error
	return n, err
}

// DeliveredRevenue sums the totals of delivered orders created within w.
func (r *Repository) DeliveredRevenue(ctx context.Context, w Window) (decimal.Decimal, error) {
	delivered := enums.OrderStatusDelivered
	agg, err := r.OrderTotals(ctx, w, &delivered)
	return agg.Revenue, err
}

func (r *Repository) StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("order_status AS status, COUNT(*) AS n").
		Group("order_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// FarmerSalesTotals aggregates the farmer's items on delivered orders
// created within w.
func (r *Repository) FarmerSalesTotals(ctx context.Context, farmerID uuid.UUID, w Window) (SalesAggregate, error) {
	q := r.db.WithContext(ctx).
		Table("order_items").
		Select("COUNT(*) AS lines, COALESCE(SUM(order_items.quantity), 0) AS quantity, COALESCE(SUM(order_items.total), 0) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.farmer_id = ? AND orders.order_status = ?", farmerID, enums.OrderStatusDelivered)
	var row SalesAggregate
	if err := w.apply(q, "orders.created_at").Scan(&row).Error; err != nil {
		return SalesAggregate{}, err
	}
	row.Revenue = row.Revenue.Round(2)
	return row, nil
}
