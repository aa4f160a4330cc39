// Package dbtest opens throwaway sqlite databases migrated with every model
// and seeds common fixtures for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Open returns an in-memory database private to the test. The pool is
// capped at one connection so transactions serialize like row locks would.
func Open(t testing.TB, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, strings.ReplaceAll(uuid.NewString(), "-", ""))
	conn, err := gorm.Open(sqlite.Open(dsn), dbpkg.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func CreateUser(t testing.TB, db *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:     "Test " + string(role),
		Email:    fmt.Sprintf("efarm_%s@example.com", uuid.NewString()),
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateCategory seeds an active category named name. The slug is derived
// from the name.
func CreateCategory(t testing.TB, db *gorm.DB, name string, active bool) *models.Category {
	t.Helper()
	category := &models.Category{
		Name:        name,
		Slug:        strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Description: name + " from local farms",
		IsActive:    true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	if !active {
		if err := db.Model(category).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate category: %v", err)
		}
		category.IsActive = false
	}
	return category
}

// CreateProduct seeds an active, available product priced at price with the
// given stock. mutate may adjust fields before insert.
func CreateProduct(t testing.TB, db *gorm.DB, farmerID uuid.UUID, price string, stock int, mutate func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		FarmerID:         farmerID,
		Name:             "Product " + uuid.NewString()[:8],
		Price:            decimal.RequireFromString(price),
		Unit:             enums.ProductUnitKG,
		Stock:            stock,
		MinOrderQuantity: 1,
		Freshness:        enums.FreshnessFresh,
		Availability:     enums.AvailabilityAvailable,
		IsActive:         true,
		Tags:             []string{},
	}
	if mutate != nil {
		mutate(product)
	}
	// gorm writes the column default for a false bool and copies it back
	// into the struct, so remember the wanted flag before insert.
	wantActive := product.IsActive
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !wantActive {
		if err := db.Model(product).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate product: %v", err)
		}
		product.IsActive = false
	}
	return product
}

// CreateJob seeds an active job whose deadline is deadlineIn from now.
func CreateJob(t testing.TB, db *gorm.DB, farmerID uuid.UUID, deadlineIn time.Duration, mutate func(*models.Job)) *models.Job {
	t.Helper()
	now := time.Now().UTC()
	job := &models.Job{
		FarmerID:            farmerID,
		Title:               "Harvest hands",
		Description:         "Help bring in the apple harvest",
		JobType:             enums.JobTypeSeasonal,
		Category:            enums.JobCategoryHarvesting,
		Location:            models.JobLocation{City: "Fresno", State: "CA"},
		SalaryType:          enums.SalaryHourly,
		SalaryAmount:        decimal.NewFromInt(18),
		SalaryCurrency:      "USD",
		StartDate:           now.Add(14 * 24 * time.Hour),
		Skills:              []string{"picking"},
		ApplicationDeadline: now.Add(deadlineIn),
		Status:              enums.JobStatusActive,
	}
	if mutate != nil {
		mutate(job)
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}
