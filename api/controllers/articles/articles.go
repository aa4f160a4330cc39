package articles

import (
	"context"
	"net/http"
	"strings"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	"github.com/srejanashetty/efarm-backend/api/responses"
	"github.com/srejanashetty/efarm-backend/api/validators"
	internalarticles "github.com/srejanashetty/efarm-backend/internal/articles"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/pagination"
	"github.com/srejanashetty/efarm-backend/pkg/types"
)

const shortListMax = 20

type createArticleRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Content       string   `json:"content" validate:"required"`
	Excerpt       *string  `json:"excerpt" validate:"omitempty,max=500"`
	Category      string   `json:"category" validate:"required"`
	Tags          []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	FeaturedImage *string  `json:"featuredImage" validate:"omitempty,max=500"`
	Status        string   `json:"status"`
	IsFeatured    bool     `json:"isFeatured"`
}

type updateArticleRequest struct {
	Title         *string  `json:"title" validate:"omitempty,max=200"`
	Content       *string  `json:"content"`
	Excerpt       *string  `json:"excerpt" validate:"omitempty,max=500"`
	Category      *string  `json:"category"`
	Tags          []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	FeaturedImage *string  `json:"featuredImage" validate:"omitempty,max=500"`
	Status        *string  `json:"status"`
	IsFeatured    *bool    `json:"isFeatured"`
}

type articleBody struct {
	Article internalarticles.ArticleDTO `json:"article"`
}

type adminListBody struct {
	types.ListPayload[internalarticles.ArticleDTO]
	Stats internalarticles.StatusCountsDTO `json:"stats"`
}

// List serves published articles, newest first, without their bodies.
func List(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Featured = featured

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewListPayload(internalarticles.SummariesFrom(list), filter.Limit))
	}
}

func Detail(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.URLParamUUID(r, "id", "Article")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		article, err := svc.Get(r.Context(), articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, articleBody{Article: internalarticles.FromModel(article)})
	}
}

func Featured(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return shortList(svc.Featured, logg)
}

func Popular(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return shortList(svc.Popular, logg)
}

func Recent(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return shortList(svc.Recent, logg)
}

func AdminList(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ArticleStatus.IsValid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if status != "" {
			filter.Status = &status
		}

		listing, err := svc.AdminList(r.Context(), middleware.ActorFromContext(r.Context()), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminListBody{
			ListPayload: types.NewListPayload(internalarticles.SummariesFrom(listing.Articles), filter.Limit),
			Stats:       internalarticles.StatusCountsFrom(listing.Counts),
		})
	}
}

func AdminDetail(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.URLParamUUID(r, "id", "Article")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		article, err := svc.AdminGet(r.Context(), middleware.ActorFromContext(r.Context()), articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, articleBody{Article: internalarticles.FromModel(article)})
	}
}

func Create(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createArticleRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		article, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), internalarticles.CreateArticleInput{
			Title:            req.Title,
			Content:          req.Content,
			Excerpt:          req.Excerpt,
			Category:         enums.ArticleCategory(strings.TrimSpace(req.Category)),
			Tags:             req.Tags,
			FeaturedImageURL: req.FeaturedImage,
			Status:           enums.ArticleStatus(strings.TrimSpace(req.Status)),
			IsFeatured:       req.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, "Article created successfully", articleBody{Article: internalarticles.FromModel(article)})
	}
}

func Update(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.URLParamUUID(r, "id", "Article")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateArticleRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalarticles.UpdateArticleInput{
			Title:            req.Title,
			Content:          req.Content,
			Excerpt:          req.Excerpt,
			Tags:             req.Tags,
			FeaturedImageURL: req.FeaturedImage,
			IsFeatured:       req.IsFeatured,
		}
		if req.Category != nil {
			category := enums.ArticleCategory(strings.TrimSpace(*req.Category))
			input.Category = &category
		}
		if req.Status != nil {
			status := enums.ArticleStatus(strings.TrimSpace(*req.Status))
			input.Status = &status
		}
		article, err := svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), articleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Article updated successfully", articleBody{Article: internalarticles.FromModel(article)})
	}
}

func Delete(svc internalarticles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.URLParamUUID(r, "id", "Article")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), articleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, "Article deleted successfully", nil)
	}
}

func parseFilter(r *http.Request) (internalarticles.ListFilter, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return internalarticles.ListFilter{}, err
	}
	category, err := validators.ParseQueryEnum(r, "category", enums.ArticleCategory.IsValid)
	if err != nil {
		return internalarticles.ListFilter{}, err
	}
	filter := internalarticles.ListFilter{
		Search: validators.SanitizeString(r.URL.Query().Get("search"), 100),
		Limit:  limit,
	}
	if category != "" {
		filter.Category = &category
	}
	return filter, nil
}

func shortList(list func(ctx context.Context, limit int) ([]models.Article, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 5, 1, shortListMax)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := list(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"articles": internalarticles.SummariesFrom(out)})
	}
}
