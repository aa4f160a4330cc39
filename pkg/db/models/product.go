package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Product is a farmer's listing. Stock and TotalSold move together: every
// unit sold leaves stock and is counted in total_sold, and a cancellation
// moves it back.
type Product struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID         uuid.UUID          `gorm:"column:farmer_id;type:uuid;not null;index"`
	CategoryID       *uuid.UUID         `gorm:"column:category_id;type:uuid;index"`
	Name             string             `gorm:"column:name;not null"`
	Description      string             `gorm:"column:description;not null;default:''"`
	Price            decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	Unit             enums.ProductUnit  `gorm:"column:unit;type:product_unit;not null"`
	Stock            int                `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	MinOrderQuantity int                `gorm:"column:min_order_quantity;not null;default:1"`
	TotalSold        int                `gorm:"column:total_sold;not null;default:0"`
	Views            int                `gorm:"column:views;not null;default:0"`
	Freshness        enums.Freshness    `gorm:"column:freshness;type:freshness;not null;default:fresh"`
	Availability     enums.Availability `gorm:"column:availability;type:availability;not null;default:available"`
	IsOrganic        bool               `gorm:"column:is_organic;not null;default:false"`
	IsFeatured       bool               `gorm:"column:is_featured;not null;default:false"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	Tags             []string           `gorm:"column:tags;type:jsonb;serializer:json"`
	RatingAverage    decimal.Decimal    `gorm:"column:rating_average;type:numeric(3,2);not null;default:0"`
	RatingCount      int                `gorm:"column:rating_count;not null;default:0"`
	Reviews          []ProductReview    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Sellable reports whether buyers may currently order the product.
func (p Product) Sellable() bool {
	return p.IsActive && p.Availability != enums.AvailabilityDiscontinued
}

// ProductReview is one buyer's rating of a product; a user reviews a product at most once.
type ProductReview struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_product_reviews_product_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_product_reviews_product_user"`
	Rating    int       `gorm:"column:rating;not null;check:rating BETWEEN 1 AND 5"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
