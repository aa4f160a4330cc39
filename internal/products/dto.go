package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

type ProductDTO struct {
	ID               uuid.UUID          `json:"id"`
	FarmerID         uuid.UUID          `json:"farmerId"`
	CategoryID       *uuid.UUID         `json:"categoryId,omitempty"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Price            decimal.Decimal    `json:"price"`
	Unit             enums.ProductUnit  `json:"unit"`
	Stock            int                `json:"stock"`
	MinOrderQuantity int                `json:"minOrderQuantity"`
	TotalSold        int                `json:"totalSold"`
	Views            int                `json:"views"`
	Freshness        enums.Freshness    `json:"freshness"`
	Availability     enums.Availability `json:"availability"`
	IsOrganic        bool               `json:"isOrganic"`
	IsFeatured       bool               `json:"isFeatured"`
	Tags             []string           `json:"tags"`
	Rating           RatingDTO          `json:"rating"`
	Reviews          []ReviewDTO        `json:"reviews,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

type RatingDTO struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
}

type CategoryDetailDTO struct {
	CategoryDTO
	IsActive     bool  `json:"isActive"`
	SortOrder    int   `json:"sortOrder"`
	ProductCount int64 `json:"productCount"`
}

func FromModel(p *models.Product) ProductDTO {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	dto := ProductDTO{
		ID:               p.ID,
		FarmerID:         p.FarmerID,
		CategoryID:       p.CategoryID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price,
		Unit:             p.Unit,
		Stock:            p.Stock,
		MinOrderQuantity: p.MinOrderQuantity,
		TotalSold:        p.TotalSold,
		Views:            p.Views,
		Freshness:        p.Freshness,
		Availability:     p.Availability,
		IsOrganic:        p.IsOrganic,
		IsFeatured:       p.IsFeatured,
		Tags:             tags,
		Rating:           RatingDTO{Average: p.RatingAverage, Count: p.RatingCount},
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if len(p.Reviews) > 0 {
		dto.Reviews = ReviewsFromModels(p.Reviews)
	}
	return dto
}

func FromModels(in []models.Product) []ProductDTO {
	out := make([]ProductDTO, len(in))
	for i := range in {
		out[i] = FromModel(&in[i])
	}
	return out
}

func ReviewsFromModels(in []models.ProductReview) []ReviewDTO {
	out := make([]ReviewDTO, len(in))
	for i, r := range in {
		out[i] = ReviewDTO{
			ID:        r.ID,
			UserID:    r.UserID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

func categoryFromModel(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

func CategoriesFromModels(in []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, len(in))
	for i, c := range in {
		out[i] = categoryFromModel(c)
	}
	return out
}

func CategoryDetailFrom(d *CategoryDetail) CategoryDetailDTO {
	return CategoryDetailDTO{
		CategoryDTO:  categoryFromModel(d.Category),
		IsActive:     d.Category.IsActive,
		SortOrder:    d.Category.SortOrder,
		ProductCount: d.ProductCount,
	}
}
