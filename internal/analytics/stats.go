package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	monthlyWindowMonths = 6
	growthPeriod        = 30 * 24 * time.Hour
	salesPeriod         = 30 * 24 * time.Hour
)

type MonthlyStat struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	TotalOrders  int64           `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type GrowthStats struct {
	UserGrowth    int64 `json:"userGrowth"`
	FarmerGrowth  int64 `json:"farmerGrowth"`
	ProductGrowth int64 `json:"productGrowth"`
	OrderGrowth   int64 `json:"orderGrowth"`
}

type RevenueStats struct {
	CurrentMonth decimal.Decimal `json:"currentMonth"`
	LastMonth    decimal.Decimal `json:"lastMonth"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type FarmerSales struct {
	TotalOrders       int64           `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalQuantity     int64           `json:"totalQuantitySold"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// CalculatePercentageGrowth compares two period counts. With no previous
// activity any current activity counts as 100%.
func CalculatePercentageGrowth(current, previous int64) int64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int64(math.Round(float64(current-previous) / float64(previous) * 100))
}

// monthlyWindowStart is the instant six months before now.
func monthlyWindowStart(now time.Time) time.Time {
	return now.AddDate(0, -monthlyWindowMonths, 0)
}

// monthSpan is one calendar month (UTC) clipped to the reporting window.
type monthSpan struct {
	Year   int
	Month  int
	Window Window
}

// monthSpans splits [from, now's month] into calendar months, ascending. The
// first span starts at from and the last is left open.
func monthSpans(from, now time.Time) []monthSpan {
	from, now = from.UTC(), now.UTC()
	var out []monthSpan
	start := from
	for {
		next := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		span := monthSpan{Year: start.Year(), Month: int(start.Month()), Window: Window{From: start}}
		if next.After(now) {
			out = append(out, span)
			return out
		}
		span.Window.To = next
		out = append(out, span)
		start = next
	}
}

// monthBounds returns the start of now's calendar month and of the month before.
func monthBounds(now time.Time) (thisMonth, lastMonth time.Time) {
	now = now.UTC()
	thisMonth = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth = thisMonth.AddDate(0, -1, 0)
	return thisMonth, lastMonth
}

// summarizeSales derives the dashboard figures from item-level totals:
// TotalOrders counts sold items and AverageOrderValue is their mean total.
func summarizeSales(agg SalesAggregate) FarmerSales {
	out := FarmerSales{
		TotalOrders:       agg.Lines,
		TotalRevenue:      agg.Revenue,
		TotalQuantity:     agg.Quantity,
		AverageOrderValue: decimal.Zero,
	}
	if agg.Lines > 0 {
		out.AverageOrderValue = agg.Revenue.DivRound(decimal.NewFromInt(agg.Lines), 2)
	}
	return out
}
