package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// Article is an editorial post written by an admin. PublishedAt is stamped
// the first time the article is published and never cleared.
type Article struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	AuthorID         uuid.UUID             `gorm:"column:author_id;type:uuid;not null;index"`
	Title            string                `gorm:"column:title;not null"`
	Slug             string                `gorm:"column:slug;not null;uniqueIndex:uq_articles_slug"`
	Content          string                `gorm:"column:content;not null"`
	Excerpt          string                `gorm:"column:excerpt;not null"`
	Category         enums.ArticleCategory `gorm:"column:category;type:article_category;not null;index"`
	Tags             []string              `gorm:"column:tags;type:jsonb;serializer:json"`
	FeaturedImageURL *string               `gorm:"column:featured_image_url"`
	Status           enums.ArticleStatus   `gorm:"column:status;type:article_status;not null;default:draft;index"`
	PublishedAt      *time.Time            `gorm:"column:published_at;index"`
	IsFeatured       bool                  `gorm:"column:is_featured;not null;default:false"`
	ReadingTime      int                   `gorm:"column:reading_time;not null;default:0"`
	Views            int                   `gorm:"column:views;not null;default:0"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
