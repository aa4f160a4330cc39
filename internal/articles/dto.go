package articles

import (
	"time"

	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

type ArticleDTO struct {
	ID               uuid.UUID             `json:"id"`
	AuthorID         uuid.UUID             `json:"author"`
	Title            string                `json:"title"`
	Slug             string                `json:"slug"`
	Content          string                `json:"content,omitempty"`
	Excerpt          string                `json:"excerpt"`
	Category         enums.ArticleCategory `json:"category"`
	Tags             []string              `json:"tags"`
	FeaturedImageURL *string               `json:"featuredImage,omitempty"`
	Status           enums.ArticleStatus   `json:"status"`
	PublishedAt      *time.Time            `json:"publishedAt,omitempty"`
	IsFeatured       bool                  `json:"isFeatured"`
	ReadingTime      int                   `json:"readingTime"`
	Views            int                   `json:"views"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func FromModel(a *models.Article) ArticleDTO {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return ArticleDTO{
		ID:               a.ID,
		AuthorID:         a.AuthorID,
		Title:            a.Title,
		Slug:             a.Slug,
		Content:          a.Content,
		Excerpt:          a.Excerpt,
		Category:         a.Category,
		Tags:             tags,
		FeaturedImageURL: a.FeaturedImageURL,
		Status:           a.Status,
		PublishedAt:      a.PublishedAt,
		IsFeatured:       a.IsFeatured,
		ReadingTime:      a.ReadingTime,
		Views:            a.Views,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// SummariesFrom renders list rows without the article body.
func SummariesFrom(in []models.Article) []ArticleDTO {
	out := make([]ArticleDTO, len(in))
	for i := range in {
		out[i] = FromModel(&in[i])
		out[i].Content = ""
	}
	return out
}

// StatusCountsDTO is the per-status summary on the admin listing.
type StatusCountsDTO struct {
	Total     int64 `json:"total"`
	Draft     int64 `json:"draft"`
	Published int64 `json:"published"`
	Archived  int64 `json:"archived"`
}

func StatusCountsFrom(counts map[enums.ArticleStatus]int64) StatusCountsDTO {
	out := StatusCountsDTO{
		Draft:     counts[enums.ArticleStatusDraft],
		Published: counts[enums.ArticleStatusPublished],
		Archived:  counts[enums.ArticleStatusArchived],
	}
	out.Total = out.Draft + out.Published + out.Archived
	return out
}
