package articles

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/auth"
	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
)

const (
	slugUniqueConstraint = "uq_articles_slug"
	maxTitleLength       = 200
	maxExcerptLength     = 500
	excerptRunes         = 200
	wordsPerMinute       = 200
	defaultShortList     = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service publishes editorial articles. Reads outside the admin surface
// only ever see published articles.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]models.Article, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Article, error)
	Featured(ctx context.Context, limit int) ([]models.Article, error)
	Popular(ctx context.Context, limit int) ([]models.Article, error)
	Recent(ctx context.Context, limit int) ([]models.Article, error)

	AdminList(ctx context.Context, actor auth.Actor, filter ListFilter) (*AdminListing, error)
	AdminGet(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Article, error)
	Create(ctx context.Context, actor auth.Actor, input CreateArticleInput) (*models.Article, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateArticleInput) (*models.Article, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}

// AdminListing is the admin table plus per-status totals.
type AdminListing struct {
	Articles []models.Article
	Counts   map[enums.ArticleStatus]int64
}

type CreateArticleInput struct {
	Title            string
	Content          string
	Excerpt          *string
	Category         enums.ArticleCategory
	Tags             []string
	FeaturedImageURL *string
	Status           enums.ArticleStatus
	IsFeatured       bool
}

// UpdateArticleInput carries only the fields being changed.
type UpdateArticleInput struct {
	Title            *string
	Content          *string
	Excerpt          *string
	Category         *enums.ArticleCategory
	Tags             []string
	FeaturedImageURL *string
	Status           *enums.ArticleStatus
	IsFeatured       *bool
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("article repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo: repo,
		tx:   tx,
		logg: logg,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Article, error) {
	if filter.Category != nil && !filter.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article category filter")
	}
	filter.Status = nil
	out, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list articles")
	}
	return out, nil
}

// Get counts the view and returns the published article.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	article, err := s.repo.FindPublished(ctx, id)
	if err != nil {
		return nil, articleNotFoundOr(err, "load article")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment article views")
	}
	article.Views++
	return article, nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]models.Article, error) {
	featured := true
	out, err := s.repo.ListPublished(ctx, ListFilter{Featured: &featured, Limit: shortLimit(limit)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured articles")
	}
	return out, nil
}

func (s *service) Popular(ctx context.Context, limit int) ([]models.Article, error) {
	out, err := s.repo.ListPopular(ctx, shortLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list popular articles")
	}
	return out, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.Article, error) {
	out, err := s.repo.ListPublished(ctx, ListFilter{Limit: shortLimit(limit)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent articles")
	}
	return out, nil
}

func (s *service) AdminList(ctx context.Context, actor auth.Actor, filter ListFilter) (*AdminListing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article status filter")
	}
	if filter.Category != nil && !filter.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article category filter")
	}
	list, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list articles")
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count articles")
	}
	return &AdminListing{Articles: list, Counts: counts}, nil
}

func (s *service) AdminGet(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Article, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, articleNotFoundOr(err, "load article")
	}
	return article, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateArticleInput) (*models.Article, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = enums.ArticleStatusDraft
	}

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	switch {
	case title == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Article title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Title cannot exceed 200 characters")
	case content == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Article content is required")
	case !input.Category.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article category")
	case !input.Status.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article status")
	}
	slug := Slugify(title)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must contain letters or digits")
	}

	excerpt := DefaultExcerpt(content)
	if input.Excerpt != nil && strings.TrimSpace(*input.Excerpt) != "" {
		excerpt = strings.TrimSpace(*input.Excerpt)
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Excerpt cannot exceed 500 characters")
	}

	article := &models.Article{
		AuthorID:         actor.UserID,
		Title:            title,
		Slug:             slug,
		Content:          content,
		Excerpt:          excerpt,
		Category:         input.Category,
		Tags:             normalizeTags(input.Tags),
		FeaturedImageURL: trimmedOrNil(input.FeaturedImageURL),
		Status:           input.Status,
		IsFeatured:       input.IsFeatured,
		ReadingTime:      ReadingTime(content),
	}
	if article.Status == enums.ArticleStatusPublished {
		now := s.now()
		article.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, article); err != nil {
		if dbpkg.IsUniqueViolation(err, slugUniqueConstraint) {
			return nil, duplicateSlug(slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create article")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"article_id": article.ID.String(), "status": string(article.Status)})
	s.logg.Info(logCtx, "article created")
	return article, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateArticleInput) (*models.Article, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var article *models.Article
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return articleNotFoundOr(err, "load article")
		}
		columns, err := s.applyUpdate(current, input)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			article = current
			return nil
		}
		if err := repo.Update(ctx, current, columns); err != nil {
			if dbpkg.IsUniqueViolation(err, slugUniqueConstraint) {
				return duplicateSlug(current.Slug)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update article")
		}
		article = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// applyUpdate validates input against article and returns the columns that
// changed. The slug follows the title and reading time follows the content.
func (s *service) applyUpdate(article *models.Article, input UpdateArticleInput) ([]string, error) {
	var columns []string
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		switch {
		case title == "":
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Article title is required")
		case utf8.RuneCountInString(title) > maxTitleLength:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Title cannot exceed 200 characters")
		}
		slug := Slugify(title)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must contain letters or digits")
		}
		article.Title, article.Slug = title, slug
		columns = append(columns, "title", "slug")
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if content == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Article content is required")
		}
		article.Content = content
		article.ReadingTime = ReadingTime(content)
		columns = append(columns, "content", "reading_time")
	}
	if input.Excerpt != nil {
		excerpt := strings.TrimSpace(*input.Excerpt)
		if excerpt == "" {
			excerpt = DefaultExcerpt(article.Content)
		}
		if utf8.RuneCountInString(excerpt) > maxExcerptLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Excerpt cannot exceed 500 characters")
		}
		article.Excerpt = excerpt
		columns = append(columns, "excerpt")
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article category")
		}
		article.Category = *input.Category
		columns = append(columns, "category")
	}
	if input.Tags != nil {
		article.Tags = normalizeTags(input.Tags)
		columns = append(columns, "tags")
	}
	if input.FeaturedImageURL != nil {
		article.FeaturedImageURL = trimmedOrNil(input.FeaturedImageURL)
		columns = append(columns, "featured_image_url")
	}
	if input.IsFeatured != nil {
		article.IsFeatured = *input.IsFeatured
		columns = append(columns, "is_featured")
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid article status")
		}
		article.Status = *input.Status
		columns = append(columns, "status")
		if article.Status == enums.ArticleStatusPublished && article.PublishedAt == nil {
			now := s.now()
			article.PublishedAt = &now
			columns = append(columns, "published_at")
		}
	}
	return columns, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete article")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Article not found")
	}
	return nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title, collapses every run of other characters into a
// single hyphen and trims hyphens from both ends.
func Slugify(title string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// ReadingTime is whole minutes at 200 words per minute, rounded up.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// DefaultExcerpt is the first 200 characters of content followed by "...".
func DefaultExcerpt(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) > excerptRunes {
		runes = runes[:excerptRunes]
	}
	return string(runes) + "..."
}

func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func shortLimit(limit int) int {
	if limit <= 0 {
		return defaultShortList
	}
	return limit
}

func requireAdmin(actor auth.Actor) error {
	if actor.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can manage articles")
	}
	return nil
}

func duplicateSlug(slug string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "An article with this title already exists").
		WithDetail("slug", slug)
}

func articleNotFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Article not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
