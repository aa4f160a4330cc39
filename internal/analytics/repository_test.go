package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srejanashetty/efarm-backend/pkg/db/dbtest"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

func TestOrderTotalsAggregatesInSQL(t *testing.T) {
	db := dbtest.Open(t, "analytics_order_totals")
	ctx := context.Background()
	repo := NewRepository(db)
	buyer := dbtest.CreateUser(t, db, enums.UserRoleUser)
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	seedOrder(t, db, buyer.ID, enums.OrderStatusDelivered, "10.10", day)
	seedOrder(t, db, buyer.ID, enums.OrderStatusDelivered, "20.20", day.Add(time.Hour))
	seedOrder(t, db, buyer.ID, enums.OrderStatusPending, "5.05", day.Add(2*time.Hour))

	all, err := repo.OrderTotals(ctx, Window{}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Orders)
	assert.True(t, all.Revenue.Equal(decimal.RequireFromString("35.35")), "revenue %s", all.Revenue)

	delivered, err := repo.DeliveredRevenue(ctx, Window{})
	require.NoError(t, err)
	assert.True(t, delivered.Equal(decimal.RequireFromString("30.30")), "delivered %s", delivered)

	empty, err := repo.OrderTotals(ctx, Window{From: day.AddDate(0, 1, 0)}, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Orders)
	assert.True(t, empty.Revenue.IsZero())
}

func TestFarmerSalesTotalsCountsItems(t *testing.T) {
	db := dbtest.Open(t, "analytics_sales_totals")
	ctx := context.Background()
	repo := NewRepository(db)
	buyer := dbtest.CreateUser(t, db, enums.UserRoleUser)
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	other := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	seedOrder(t, db, buyer.ID, enums.OrderStatusDelivered, "18", day,
		item(farmer.ID, 2, "8"), item(farmer.ID, 1, "4"), item(other.ID, 1, "6"))
	seedOrder(t, db, buyer.ID, enums.OrderStatusCancelled, "9", day, item(farmer.ID, 3, "9"))

	agg, err := repo.FarmerSalesTotals(ctx, farmer.ID, Window{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, agg.Lines)
	assert.EqualValues(t, 3, agg.Quantity)
	assert.True(t, agg.Revenue.Equal(decimal.NewFromInt(12)), "revenue %s", agg.Revenue)
}
