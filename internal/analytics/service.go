package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/redis"
)

// Cache is the read-through store for dashboard payloads. *redis.Client
// satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service computes the admin and farmer dashboards.
type Service interface {
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
	FarmerDashboard(ctx context.Context, farmerID uuid.UUID) (*FarmerDashboard, error)
}

type Totals struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalFarmers    int64 `json:"totalFarmers"`
	TotalProducts   int64 `json:"totalProducts"`
	TotalOrders     int64 `json:"totalOrders"`
	TotalJobs       int64 `json:"totalJobs"`
	TotalCategories int64 `json:"totalCategories"`
	ActiveUsers     int64 `json:"activeUsers"`
	ActiveFarmers   int64 `json:"activeFarmers"`
}

type AdminDashboard struct {
	Statistics       Totals        `json:"statistics"`
	Growth           GrowthStats   `json:"growth"`
	MonthlyStats     []MonthlyStat `json:"monthlyStats"`
	OrderStatusStats []StatusCount `json:"orderStatusStats"`
	RevenueStats     RevenueStats  `json:"revenueStats"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

type FarmerTotals struct {
	TotalProducts  int64 `json:"totalProducts"`
	ActiveProducts int64 `json:"activeProducts"`
	TotalJobs      int64 `json:"totalJobs"`
	TotalOrders    int64 `json:"totalOrders"`
}

type FarmerDashboard struct {
	Statistics  FarmerTotals `json:"statistics"`
	Sales       FarmerSales  `json:"salesAnalytics"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

type service struct {
	repo  *Repository
	cache Cache
	ttl   time.Duration
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the analytics service. A nil cache or a non-positive
// ttl computes every request.
func NewService(repo *Repository, cache Cache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var out AdminDashboard
	err := s.cached(ctx, []string{"analytics", "admin"}, &out, func() error {
		now := s.now()
		totals, err := s.totals(ctx)
		if err != nil {
			return err
		}
		growth, err := s.GrowthStats(ctx, now)
		if err != nil {
			return err
		}
		monthly, err := s.MonthlyStats(ctx, now)
		if err != nil {
			return err
		}
		statuses, err := s.OrderStatusStats(ctx)
		if err != nil {
			return err
		}
		revenue, err := s.RevenueStats(ctx, now)
		if err != nil {
			return err
		}
		out = AdminDashboard{
			Statistics:       *totals,
			Growth:           *growth,
			MonthlyStats:     monthly,
			OrderStatusStats: statuses,
			RevenueStats:     *revenue,
			GeneratedAt:      now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) FarmerDashboard(ctx context.Context, farmerID uuid.UUID) (*FarmerDashboard, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	var out FarmerDashboard
	err := s.cached(ctx, []string{"analytics", "farmer", farmerID.String()}, &out, func() error {
		now := s.now()
		available := enums.AvailabilityAvailable
		var stats FarmerTotals
		var err error
		if stats.TotalProducts, err = s.repo.CountProducts(ctx, Window{}, &farmerID, nil); err != nil {
			return wrap(err, "count farmer products")
		}
		if stats.ActiveProducts, err = s.repo.CountProducts(ctx, Window{}, &farmerID, &available); err != nil {
			return wrap(err, "count active farmer products")
		}
		if stats.TotalJobs, err = s.repo.CountJobs(ctx, &farmerID); err != nil {
			return wrap(err, "count farmer jobs")
		}
		if stats.TotalOrders, err = s.repo.CountFarmerOrders(ctx, farmerID); err != nil {
			return wrap(err, "count farmer orders")
		}
		sales, err := s.FarmerSales(ctx, farmerID, now)
		if err != nil {
			return err
		}
		out = FarmerDashboard{Statistics: stats, Sales: *sales, GeneratedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MonthlyStats groups orders of any status created in the last six months
// by calendar month. Months without orders are omitted.
func (s *service) MonthlyStats(ctx context.Context, now time.Time) ([]MonthlyStat, error) {
	out := []MonthlyStat{}
	for _, span := range monthSpans(monthlyWindowStart(now), now) {
		agg, err := s.repo.OrderTotals(ctx, span.Window, nil)
		if err != nil {
			return nil, wrap(err, "aggregate monthly orders")
		}
		if agg.Orders == 0 {
			continue
		}
		out = append(out, MonthlyStat{Year: span.Year, Month: span.Month, TotalOrders: agg.Orders, TotalRevenue: agg.Revenue})
	}
	return out, nil
}

// GrowthStats compares the last 30 days with the 30 days before.
func (s *service) GrowthStats(ctx context.Context, now time.Time) (*GrowthStats, error) {
	current := Window{From: now.Add(-growthPeriod), To: now}
	previous := Window{From: now.Add(-2 * growthPeriod), To: current.From}

	var out GrowthStats
	pairs := []struct {
		target *int64
		count  func(Window) (int64, error)
		label  string
	}{
		{&out.UserGrowth, func(w Window) (int64, error) { return s.repo.CountUsers(ctx, enums.UserRoleUser, w, nil) }, "users"},
		{&out.FarmerGrowth, func(w Window) (int64, error) { return s.repo.CountUsers(ctx, enums.UserRoleFarmer, w, nil) }, "farmers"},
		{&out.ProductGrowth, func(w Window) (int64, error) { return s.repo.CountProducts(ctx, w, nil, nil) }, "products"},
		{&out.OrderGrowth, func(w Window) (int64, error) { return s.repo.CountOrders(ctx, w) }, "orders"},
	}
	for _, p := range pairs {
		cur, err := p.count(current)
		if err != nil {
			return nil, wrap(err, "count current "+p.label)
		}
		prev, err := p.count(previous)
		if err != nil {
			return nil, wrap(err, "count previous "+p.label)
		}
		*p.target = CalculatePercentageGrowth(cur, prev)
	}
	return &out, nil
}

// RevenueStats sums delivered orders for this calendar month, last calendar
// month and all time.
func (s *service) RevenueStats(ctx context.Context, now time.Time) (*RevenueStats, error) {
	thisMonth, lastMonth := monthBounds(now)
	current, err := s.repo.DeliveredRevenue(ctx, Window{From: thisMonth})
	if err != nil {
		return nil, wrap(err, "sum current month revenue")
	}
	previous, err := s.repo.DeliveredRevenue(ctx, Window{From: lastMonth, To: thisMonth})
	if err != nil {
		return nil, wrap(err, "sum last month revenue")
	}
	all, err := s.repo.DeliveredRevenue(ctx, Window{})
	if err != nil {
		return nil, wrap(err, "sum total revenue")
	}
	return &RevenueStats{
		CurrentMonth: current,
		LastMonth:    previous,
		TotalRevenue: all,
	}, nil
}

// OrderStatusStats lists a count for every order status, zero included.
func (s *service) OrderStatusStats(ctx context.Context) ([]StatusCount, error) {
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, wrap(err, "count order statuses")
	}
	statuses := enums.OrderStatuses()
	out := make([]StatusCount, len(statuses))
	for i, status := range statuses {
		out[i] = StatusCount{Status: string(status), Count: counts[status]}
	}
	return out, nil
}

// FarmerSales summarizes the farmer's delivered items over the last 30 days.
func (s *service) FarmerSales(ctx context.Context, farmerID uuid.UUID, now time.Time) (*FarmerSales, error) {
	agg, err := s.repo.FarmerSalesTotals(ctx, farmerID, Window{From: now.Add(-salesPeriod)})
	if err != nil {
		return nil, wrap(err, "aggregate farmer sales")
	}
	sales := summarizeSales(agg)
	return &sales, nil
}

func (s *service) totals(ctx context.Context) (*Totals, error) {
	active := true
	var out Totals
	var err error
	if out.TotalUsers, err = s.repo.CountUsers(ctx, enums.UserRoleUser, Window{}, nil); err != nil {
		return nil, wrap(err, "count users")
	}
	if out.TotalFarmers, err = s.repo.CountUsers(ctx, enums.UserRoleFarmer, Window{}, nil); err != nil {
		return nil, wrap(err, "count farmers")
	}
	if out.ActiveUsers, err = s.repo.CountUsers(ctx, enums.UserRoleUser, Window{}, &active); err != nil {
		return nil, wrap(err, "count active users")
	}
	if out.ActiveFarmers, err = s.repo.CountUsers(ctx, enums.UserRoleFarmer, Window{}, &active); err != nil {
		return nil, wrap(err, "count active farmers")
	}
	if out.TotalProducts, err = s.repo.CountProducts(ctx, Window{}, nil, nil); err != nil {
		return nil, wrap(err, "count products")
	}
	if out.TotalOrders, err = s.repo.CountOrders(ctx, Window{}); err != nil {
		return nil, wrap(err, "count orders")
	}
	if out.TotalJobs, err = s.repo.CountJobs(ctx, nil); err != nil {
		return nil, wrap(err, "count jobs")
	}
	if out.TotalCategories, err = s.repo.CountCategories(ctx); err != nil {
		return nil, wrap(err, "count categories")
	}
	return &out, nil
}

// cached serves dest from the cache when possible and otherwise runs
// compute and stores the result. Cache errors are logged and ignored.
func (s *service) cached(ctx context.Context, keyParts []string, dest any, compute func() error) error {
	if s.cache == nil || s.ttl <= 0 {
		return compute()
	}
	key := s.cache.CacheKey(keyParts...)
	logCtx := s.logg.WithField(ctx, "cache_key", key)

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal([]byte(raw), dest); jsonErr == nil {
			return nil
		}
		s.logg.Warn(logCtx, "analytics cache entry unreadable")
	case !redis.IsMiss(err):
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "analytics cache read failed")
	}

	if err := compute(); err != nil {
		return err
	}
	encoded, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "analytics cache write failed")
	}
	return nil
}

func wrap(err error, op string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
