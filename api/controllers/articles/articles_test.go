package articles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	internalarticles "github.com/srejanashetty/efarm-backend/internal/articles"
	"github.com/srejanashetty/efarm-backend/pkg/auth"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
)

type stubArticleService struct {
	list      func(ctx context.Context, filter internalarticles.ListFilter) ([]models.Article, error)
	get       func(ctx context.Context, id uuid.UUID) (*models.Article, error)
	recent    func(ctx context.Context, limit int) ([]models.Article, error)
	adminList func(ctx context.Context, actor auth.Actor, filter internalarticles.ListFilter) (*internalarticles.AdminListing, error)
	create    func(ctx context.Context, actor auth.Actor, input internalarticles.CreateArticleInput) (*models.Article, error)
	update    func(ctx context.Context, actor auth.Actor, id uuid.UUID, input internalarticles.UpdateArticleInput) (*models.Article, error)
	delete    func(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}

func (s stubArticleService) List(ctx context.Context, filter internalarticles.ListFilter) ([]models.Article, error) {
	return s.list(ctx, filter)
}

func (s stubArticleService) Get(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	return s.get(ctx, id)
}

func (s stubArticleService) Featured(context.Context, int) ([]models.Article, error) {
	return nil, nil
}

func (s stubArticleService) Popular(context.Context, int) ([]models.Article, error) {
	return nil, nil
}

func (s stubArticleService) Recent(ctx context.Context, limit int) ([]models.Article, error) {
	return s.recent(ctx, limit)
}

func (s stubArticleService) AdminList(ctx context.Context, actor auth.Actor, filter internalarticles.ListFilter) (*internalarticles.AdminListing, error) {
	return s.adminList(ctx, actor, filter)
}

func (s stubArticleService) AdminGet(ctx context.Context, _ auth.Actor, id uuid.UUID) (*models.Article, error) {
	return s.get(ctx, id)
}

func (s stubArticleService) Create(ctx context.Context, actor auth.Actor, input internalarticles.CreateArticleInput) (*models.Article, error) {
	return s.create(ctx, actor, input)
}

func (s stubArticleService) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input internalarticles.UpdateArticleInput) (*models.Article, error) {
	return s.update(ctx, actor, id, input)
}

func (s stubArticleService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return s.delete(ctx, actor, id)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h http.HandlerFunc, method, target, body string, actor auth.Actor, params map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	req = req.WithContext(middleware.WithActor(context.WithValue(req.Context(), chi.RouteCtxKey, rc), actor))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func sampleArticle() *models.Article {
	return &models.Article{
		ID:       uuid.New(),
		AuthorID: uuid.New(),
		Title:    "Companion Planting",
		Slug:     "companion-planting",
		Content:  "Basil beside tomatoes.",
		Excerpt:  "Basil beside tomatoes....",
		Category: enums.ArticleCategoryFarmingTips,
		Status:   enums.ArticleStatusPublished,
	}
}

func TestListParsesFiltersAndDropsContent(t *testing.T) {
	var got internalarticles.ListFilter
	svc := stubArticleService{list: func(_ context.Context, filter internalarticles.ListFilter) ([]models.Article, error) {
		got = filter
		return []models.Article{*sampleArticle()}, nil
	}}

	rec, env := serve(t, List(svc, nil), http.MethodGet, "/?category=guides&featured=true&search=%20compost%20&limit=3", "", auth.Actor{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Category)
	assert.Equal(t, enums.ArticleCategoryGuides, *got.Category)
	require.NotNil(t, got.Featured)
	assert.True(t, *got.Featured)
	assert.Equal(t, "compost", got.Search)
	assert.Equal(t, 3, got.Limit)

	var body struct {
		Items []map[string]any `json:"items"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Equal(t, 1, body.Count)
	assert.NotContains(t, body.Items[0], "content")
	assert.Equal(t, "companion-planting", body.Items[0]["slug"])
}

func TestListRejectsUnknownCategory(t *testing.T) {
	svc := stubArticleService{list: func(context.Context, internalarticles.ListFilter) ([]models.Article, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	rec, env := serve(t, List(svc, nil), http.MethodGet, "/?category=recipes", "", auth.Actor{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Code)
}

func TestDetailWrapsArticle(t *testing.T) {
	article := sampleArticle()
	svc := stubArticleService{get: func(_ context.Context, id uuid.UUID) (*models.Article, error) {
		assert.Equal(t, article.ID, id)
		return article, nil
	}}
	rec, env := serve(t, Detail(svc, nil), http.MethodGet, "/", "", auth.Actor{}, map[string]string{"id": article.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	var body articleBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, article.ID, body.Article.ID)
	assert.Equal(t, "Basil beside tomatoes.", body.Article.Content)

	rec, _ = serve(t, Detail(svc, nil), http.MethodGet, "/", "", auth.Actor{}, map[string]string{"id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentCapsLimit(t *testing.T) {
	var got int
	svc := stubArticleService{recent: func(_ context.Context, limit int) ([]models.Article, error) {
		got = limit
		return nil, nil
	}}
	rec, env := serve(t, Recent(svc, nil), http.MethodGet, "/", "", auth.Actor{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, got)
	assert.JSONEq(t, `{"articles":[]}`, string(env.Data))

	rec, _ = serve(t, Recent(svc, nil), http.MethodGet, "/?limit=500", "", auth.Actor{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePassesCallerAndFields(t *testing.T) {
	admin := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	var gotActor auth.Actor
	var got internalarticles.CreateArticleInput
	svc := stubArticleService{create: func(_ context.Context, actor auth.Actor, input internalarticles.CreateArticleInput) (*models.Article, error) {
		gotActor, got = actor, input
		return sampleArticle(), nil
	}}

	body := `{"title":"Companion Planting","content":"Basil beside tomatoes.","category":"farming-tips","status":" published ","tags":["herbs"],"isFeatured":true}`
	rec, env := serve(t, Create(svc, nil), http.MethodPost, "/", body, admin, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Article created successfully", env.Message)
	assert.Equal(t, admin, gotActor)
	assert.Equal(t, enums.ArticleStatusPublished, got.Status)
	assert.Equal(t, enums.ArticleCategoryFarmingTips, got.Category)
	assert.True(t, got.IsFeatured)

	var wrapped articleBody
	require.NoError(t, json.Unmarshal(env.Data, &wrapped))
	assert.Equal(t, "companion-planting", wrapped.Article.Slug)

	rec, _ = serve(t, Create(svc, nil), http.MethodPost, "/", `{"content":"no title"}`, admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMapsOptionalFields(t *testing.T) {
	admin := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	id := uuid.New()
	var got internalarticles.UpdateArticleInput
	svc := stubArticleService{update: func(_ context.Context, _ auth.Actor, gotID uuid.UUID, input internalarticles.UpdateArticleInput) (*models.Article, error) {
		assert.Equal(t, id, gotID)
		got = input
		return sampleArticle(), nil
	}}

	rec, env := serve(t, Update(svc, nil), http.MethodPut, "/", `{"status":"archived","isFeatured":false}`, admin, map[string]string{"id": id.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Article updated successfully", env.Message)
	require.NotNil(t, got.Status)
	assert.Equal(t, enums.ArticleStatusArchived, *got.Status)
	require.NotNil(t, got.IsFeatured)
	assert.False(t, *got.IsFeatured)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.Category)
}

func TestAdminListIncludesStats(t *testing.T) {
	admin := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	var got internalarticles.ListFilter
	svc := stubArticleService{adminList: func(_ context.Context, _ auth.Actor, filter internalarticles.ListFilter) (*internalarticles.AdminListing, error) {
		got = filter
		return &internalarticles.AdminListing{
			Articles: []models.Article{*sampleArticle()},
			Counts:   map[enums.ArticleStatus]int64{enums.ArticleStatusDraft: 2, enums.ArticleStatusPublished: 1},
		}, nil
	}}

	rec, env := serve(t, AdminList(svc, nil), http.MethodGet, "/?status=draft", "", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Status)
	assert.Equal(t, enums.ArticleStatusDraft, *got.Status)

	var body struct {
		Count int                              `json:"count"`
		Stats internalarticles.StatusCountsDTO `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.Count)
	assert.EqualValues(t, 3, body.Stats.Total)
	assert.EqualValues(t, 2, body.Stats.Draft)
}

func TestDeleteMapsNotFound(t *testing.T) {
	admin := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	svc := stubArticleService{delete: func(context.Context, auth.Actor, uuid.UUID) error {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Article not found")
	}}
	rec, env := serve(t, Delete(svc, nil), http.MethodDelete, "/", "", admin, map[string]string{"id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article not found", env.Message)
}
