package articles

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

// ListFilter narrows article listings. Status is only honoured on the admin
// listing; public reads are pinned to published.
type ListFilter struct {
	Category *enums.ArticleCategory
	Status   *enums.ArticleStatus
	Featured *bool
	Search   string
	Limit    int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *Repository) FindPublished(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, enums.ArticleStatusPublished).
		First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// Update writes the named columns of article; updated_at is always touched.
func (r *Repository) Update(ctx context.Context, article *models.Article, columns []string) error {
	return r.db.WithContext(ctx).
		Model(article).
		Select(append(columns, "updated_at")).
		Updates(article).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Article{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// ListPublished returns published articles, newest publication first.
func (r *Repository) ListPublished(ctx context.Context, filter ListFilter) ([]models.Article, error) {
	q := r.filtered(ctx, filter).Where("status = ?", enums.ArticleStatusPublished)
	var out []models.Article
	err := q.Order("published_at DESC").Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListPopular orders published articles by views, breaking ties on the most
// recent publication.
func (r *Repository) ListPopular(ctx context.Context, limit int) ([]models.Article, error) {
	q := r.db.WithContext(ctx).Where("status = ?", enums.ArticleStatusPublished)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Article
	err := q.Order("views DESC").Order("published_at DESC").Find(&out).Error
	return out, err
}

// ListAll backs the admin listing and spans every status.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter) ([]models.Article, error) {
	q := r.filtered(ctx, filter)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var out []models.Article
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// CountByStatus feeds the admin listing summary.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.ArticleStatus]int64, error) {
	var rows []struct {
		Status enums.ArticleStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ArticleStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *Repository) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Article{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Featured != nil {
		q = q.Where("is_featured = ?", *filter.Featured)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(content) LIKE ?)", like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}
