package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/internal/analytics"
	"github.com/srejanashetty/efarm-backend/internal/articles"
	"github.com/srejanashetty/efarm-backend/internal/jobs"
	"github.com/srejanashetty/efarm-backend/internal/orders"
	"github.com/srejanashetty/efarm-backend/internal/products"
	pkgauth "github.com/srejanashetty/efarm-backend/pkg/auth"
	"github.com/srejanashetty/efarm-backend/pkg/config"
	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/dbtest"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/metrics"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
)

type harness struct {
	handler http.Handler
	cfg     *config.Config
	db      *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "efarm-test", ExpirationMinutes: 15},
		FeatureFlags: config.FeatureFlagsConfig{
			Metrics:     true,
			Idempotency: true,
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t, strings.ReplaceAll(t.Name(), "/", "_"))
	tx := dbpkg.Wrap(db)
	emitter := outbox.NewService(outbox.NewRepository(db), nil)
	catalog := products.NewRepository(db)

	productSvc, err := products.NewService(catalog, tx, emitter)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(db), tx, products.NewInventory(catalog), emitter, orders.DefaultPricing(), 50, nil)
	require.NoError(t, err)
	jobSvc, err := jobs.NewService(jobs.NewRepository(db), tx, emitter, nil)
	require.NoError(t, err)
	analyticsSvc, err := analytics.NewService(analytics.NewRepository(db), nil, 0, nil)
	require.NoError(t, err)
	articleSvc, err := articles.NewService(articles.NewRepository(db), tx, nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	cfg := testConfig()
	handler := NewRouter(cfg, logger.Nop(), Infra{
		DB:      tx,
		Metrics: metrics.NewHTTPMetricsWithRegistry(reg, reg),
	}, Services{
		Orders:    orderSvc,
		Jobs:      jobSvc,
		Products:  productSvc,
		Analytics: analyticsSvc,
		Articles:  articleSvc,
	})
	return &harness{handler: handler, cfg: cfg, db: db}
}

func (h *harness) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(h.cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return token
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	h := newHarness(t)
	farmer := dbtest.CreateUser(t, h.db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, h.db, farmer.ID, "3.00", 5, nil)
	category := dbtest.CreateCategory(t, h.db, "Root Vegetables", true)

	for _, path := range []string{
		"/api/health/live",
		"/api/health/ready",
		"/api/products",
		"/api/products/" + product.ID.String(),
		"/api/products/" + product.ID.String() + "/reviews",
		"/api/categories",
		"/api/categories/" + category.ID.String(),
		"/api/categories/slug/root-vegetables",
		"/api/jobs",
		"/api/articles",
		"/api/articles/featured",
		"/api/articles/popular",
		"/api/articles/recent",
	} {
		rec := h.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/orders", `{}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	buyer := dbtest.CreateUser(t, h.db, enums.UserRoleUser)
	farmer := dbtest.CreateUser(t, h.db, enums.UserRoleFarmer)
	buyerToken := h.token(t, buyer)
	farmerToken := h.token(t, farmer)
	orderPath := "/api/orders/" + uuid.NewString()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"farmer cannot check out", http.MethodPost, "/api/orders", farmerToken, http.StatusForbidden},
		{"buyer cannot change status", http.MethodPut, orderPath + "/status", buyerToken, http.StatusForbidden},
		{"farmer cannot touch payment", http.MethodPut, orderPath + "/payment", farmerToken, http.StatusForbidden},
		{"buyer cannot post jobs", http.MethodPost, "/api/jobs", buyerToken, http.StatusForbidden},
		{"buyer cannot list products", http.MethodPost, "/api/products", buyerToken, http.StatusForbidden},
		{"buyer cannot read admin analytics", http.MethodGet, "/api/admin/analytics", buyerToken, http.StatusForbidden},
		{"farmer cannot read admin analytics", http.MethodGet, "/api/admin/analytics", farmerToken, http.StatusForbidden},
		{"farmer reads own analytics", http.MethodGet, "/api/farmer/analytics", farmerToken, http.StatusOK},
		{"buyer cannot edit products", http.MethodPut, "/api/products/" + uuid.NewString(), buyerToken, http.StatusForbidden},
		{"buyer cannot delete products", http.MethodDelete, "/api/products/" + uuid.NewString(), buyerToken, http.StatusForbidden},
		{"farmer cannot manage articles", http.MethodPost, "/api/admin/articles", farmerToken, http.StatusForbidden},
		{"buyer cannot list admin articles", http.MethodGet, "/api/admin/articles", buyerToken, http.StatusForbidden},
		{"buyer lists own applications", http.MethodGet, "/api/jobs/applications/me", buyerToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(tc.method, tc.path, `{}`, tc.token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCheckoutThroughRouter(t *testing.T) {
	h := newHarness(t)
	buyer := dbtest.CreateUser(t, h.db, enums.UserRoleUser)
	farmer := dbtest.CreateUser(t, h.db, enums.UserRoleFarmer)
	product := dbtest.CreateProduct(t, h.db, farmer.ID, "12.50", 10, nil)
	token := h.token(t, buyer)

	body := `{"items":[{"productId":"` + product.ID.String() + `","quantity":2}],` +
		`"shippingAddress":{"street":"1 Farm Rd","city":"Fresno","state":"CA","zipCode":"93650"},` +
		`"paymentMethod":"cash_on_delivery"}`
	rec := h.do(http.MethodPost, "/api/orders", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			Order struct {
				ID          string `json:"id"`
				OrderNumber string `json:"orderNumber"`
			} `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.Data.Order.ID)
	assert.True(t, strings.HasPrefix(created.Data.Order.OrderNumber, "EF"))

	rec = h.do(http.MethodGet, "/api/orders/"+created.Data.Order.ID, "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stock int
	require.NoError(t, h.db.WithContext(context.Background()).Model(&models.Product{}).
		Select("stock").Where("id = ?", product.ID).Scan(&stock).Error)
	assert.Equal(t, 8, stock)
}

func TestArticleLifecycleThroughRouter(t *testing.T) {
	h := newHarness(t)
	admin := dbtest.CreateUser(t, h.db, enums.UserRoleAdmin)
	token := h.token(t, admin)

	body := `{"title":"Winter Greenhouse Care","content":"Vent on sunny days.","category":"seasonal"}`
	rec := h.do(http.MethodPost, "/api/admin/articles", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data struct {
			Article struct {
				ID   string `json:"id"`
				Slug string `json:"slug"`
			} `json:"article"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "winter-greenhouse-care", created.Data.Article.Slug)
	path := "/api/articles/" + created.Data.Article.ID

	rec = h.do(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "drafts stay hidden")

	rec = h.do(http.MethodPut, "/api/admin/articles/"+created.Data.Article.ID, `{"status":"published"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, "/api/admin/articles/"+created.Data.Article.ID, "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointRecordsRoutePattern(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/api/products", "", "")

	rec := h.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/products"`)
}
