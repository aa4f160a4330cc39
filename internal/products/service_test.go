package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/auth"
	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/dbtest"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
)

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), dbpkg.Wrap(db), outbox.NewService(outbox.NewRepository(db), nil))
	require.NoError(t, err)
	return svc
}

func TestAddReviewRecomputesAverage(t *testing.T) {
	db := dbtest.Open(t, "products_reviews")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, nil)
	svc := newTestService(t, db)

	ratings := []int{5, 4, 4}
	var got *models.Product
	for _, rating := range ratings {
		reviewer := dbtest.CreateUser(t, db, enums.UserRoleUser)
		var err error
		got, err = svc.AddReview(ctx, AddReviewInput{ProductID: product.ID, UserID: reviewer.ID, Rating: rating})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, got.RatingCount)
	assert.True(t, got.RatingAverage.Equal(decimal.RequireFromString("4.33")), "average %s", got.RatingAverage)
	assert.Len(t, got.Reviews, 3)

	var events int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventProductReviewAdded).Count(&events).Error)
	assert.EqualValues(t, 3, events)
}

func TestAddReviewRejectsDuplicate(t *testing.T) {
	db := dbtest.Open(t, "products_review_dup")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, nil)
	reviewer := dbtest.CreateUser(t, db, enums.UserRoleUser)
	svc := newTestService(t, db)

	_, err := svc.AddReview(ctx, AddReviewInput{ProductID: product.ID, UserID: reviewer.ID, Rating: 5})
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, AddReviewInput{ProductID: product.ID, UserID: reviewer.ID, Rating: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonAlreadyReviewed))

	reloaded, err := NewRepository(db).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.RatingCount)
	assert.True(t, reloaded.RatingAverage.Equal(decimal.NewFromInt(5)))
}

func TestAddReviewValidation(t *testing.T) {
	db := dbtest.Open(t, "products_review_validation")
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.AddReview(ctx, AddReviewInput{ProductID: uuid.New(), UserID: uuid.New(), Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddReview(ctx, AddReviewInput{ProductID: uuid.New(), UserID: uuid.New(), Rating: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetIncrementsViewsAndHidesInactive(t *testing.T) {
	db := dbtest.Open(t, "products_get")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	active := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, nil)
	inactive := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, func(p *models.Product) { p.IsActive = false })
	svc := newTestService(t, db)

	got, err := svc.Get(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	_, err = svc.Get(ctx, inactive.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateRequiresFarmer(t *testing.T) {
	db := dbtest.Open(t, "products_create")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	svc := newTestService(t, db)

	input := CreateProductInput{
		Name:  "Fresh Eggs",
		Price: decimal.RequireFromString("6.499"),
		Unit:  enums.ProductUnitDozen,
		Stock: 0,
	}
	_, err := svc.Create(ctx, auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	product, err := svc.Create(ctx, auth.Actor{UserID: farmer.ID, Role: enums.UserRoleFarmer}, input)
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("6.5")))
	assert.Equal(t, enums.AvailabilityOutOfStock, product.Availability)
	assert.Equal(t, 1, product.MinOrderQuantity)
}

func TestAverageRating(t *testing.T) {
	assert.True(t, AverageRating(nil).IsZero())
	assert.True(t, AverageRating([]int{1, 2}).Equal(decimal.RequireFromString("1.5")))
	assert.True(t, AverageRating([]int{5, 5, 4}).Equal(decimal.RequireFromString("4.67")))
}

func TestUpdateKeepsAvailabilityInStepWithStock(t *testing.T) {
	db := dbtest.Open(t, "products_update")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, nil)
	svc := newTestService(t, db)
	owner := auth.Actor{UserID: farmer.ID, Role: enums.UserRoleFarmer}

	zero := 0
	organic := true
	got, err := svc.Update(ctx, owner, product.ID, UpdateProductInput{Stock: &zero, IsOrganic: &organic, Tags: []string{"greens"}})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, enums.AvailabilityOutOfStock, got.Availability)
	assert.True(t, got.IsOrganic)
	assert.Equal(t, []string{"greens"}, got.Tags)

	restock := 4
	price := decimal.RequireFromString("7.255")
	got, err = svc.Update(ctx, owner, product.ID, UpdateProductInput{Stock: &restock, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, enums.AvailabilityAvailable, got.Availability)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("7.26")), "price %s", got.Price)

	discontinued := enums.AvailabilityDiscontinued
	got, err = svc.Update(ctx, owner, product.ID, UpdateProductInput{Availability: &discontinued})
	require.NoError(t, err)
	assert.Equal(t, enums.AvailabilityDiscontinued, got.Availability)
	assert.Equal(t, 4, got.Stock)
}

func TestUpdateRejectsOtherFarmersAndBadInput(t *testing.T) {
	db := dbtest.Open(t, "products_update_owner")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	other := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, nil)
	svc := newTestService(t, db)

	stock := 1
	_, err := svc.Update(ctx, auth.Actor{UserID: other.ID, Role: enums.UserRoleFarmer}, product.ID, UpdateProductInput{Stock: &stock})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Update(ctx, auth.Actor{UserID: farmer.ID, Role: enums.UserRoleUser}, product.ID, UpdateProductInput{Stock: &stock})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	negative := -2
	_, err = svc.Update(ctx, auth.Actor{UserID: farmer.ID, Role: enums.UserRoleFarmer}, product.ID, UpdateProductInput{Stock: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	reloaded, err := NewRepository(db).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)
}

func TestDeleteRemovesOwnListing(t *testing.T) {
	db := dbtest.Open(t, "products_delete")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	other := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, db, farmer.ID, "5", 10, nil)
	svc := newTestService(t, db)

	reviewer := dbtest.CreateUser(t, db, enums.UserRoleUser)
	_, err := svc.AddReview(ctx, AddReviewInput{ProductID: product.ID, UserID: reviewer.ID, Rating: 4})
	require.NoError(t, err)

	err = svc.Delete(ctx, auth.Actor{UserID: other.ID, Role: enums.UserRoleFarmer}, product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, auth.Actor{UserID: farmer.ID, Role: enums.UserRoleFarmer}, product.ID))

	_, err = svc.Get(ctx, product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	var reviews int64
	require.NoError(t, db.Model(&models.ProductReview{}).Where("product_id = ?", product.ID).Count(&reviews).Error)
	assert.Zero(t, reviews)
}

func TestCategoryDetailCountsAvailableProducts(t *testing.T) {
	db := dbtest.Open(t, "products_category_detail")
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	produce := dbtest.CreateCategory(t, db, "Fresh Produce", true)
	retired := dbtest.CreateCategory(t, db, "Retired Goods", false)
	inCategory := func(p *models.Product) { p.CategoryID = &produce.ID }

	dbtest.CreateProduct(t, db, farmer.ID, "2", 5, inCategory)
	dbtest.CreateProduct(t, db, farmer.ID, "2", 5, inCategory)
	dbtest.CreateProduct(t, db, farmer.ID, "2", 0, func(p *models.Product) {
		inCategory(p)
		p.Availability = enums.AvailabilityOutOfStock
	})
	dbtest.CreateProduct(t, db, farmer.ID, "2", 5, func(p *models.Product) {
		inCategory(p)
		p.IsActive = false
	})
	svc := newTestService(t, db)

	detail, err := svc.GetCategory(ctx, produce.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Produce", detail.Category.Name)
	assert.EqualValues(t, 2, detail.ProductCount)

	bySlug, err := svc.GetCategoryBySlug(ctx, "Fresh-Produce")
	require.NoError(t, err)
	assert.Equal(t, produce.ID, bySlug.Category.ID)

	_, err = svc.GetCategory(ctx, retired.ID)
	require.NoError(t, err, "lookups by id include inactive categories")
	_, err = svc.GetCategoryBySlug(ctx, retired.Slug)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetCategory(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAvailabilityFor(t *testing.T) {
	tests := []struct {
		current enums.Availability
		stock   int
		want    enums.Availability
	}{
		{enums.AvailabilityAvailable, 3, enums.AvailabilityAvailable},
		{enums.AvailabilityAvailable, 0, enums.AvailabilityOutOfStock},
		{enums.AvailabilityOutOfStock, 2, enums.AvailabilityAvailable},
		{enums.AvailabilityDiscontinued, 0, enums.AvailabilityDiscontinued},
		{enums.AvailabilityDiscontinued, 9, enums.AvailabilityDiscontinued},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AvailabilityFor(tt.current, tt.stock), "%s with %d", tt.current, tt.stock)
	}
}
