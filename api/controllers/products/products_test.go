package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	internalproducts "github.com/srejanashetty/efarm-backend/internal/products"
	"github.com/srejanashetty/efarm-backend/pkg/auth"
	dbpkg "github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/db/dbtest"
	"github.com/srejanashetty/efarm-backend/pkg/db/models"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/outbox"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

// these run against the real service on sqlite so the JSON contract is
// checked end to end.
func newService(t *testing.T, name string) (internalproducts.Service, *fixture) {
	t.Helper()
	db := dbtest.Open(t, name)
	svc, err := internalproducts.NewService(
		internalproducts.NewRepository(db),
		dbpkg.Wrap(db),
		outbox.NewService(outbox.NewRepository(db), nil),
	)
	require.NoError(t, err)
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	return svc, &fixture{farmer: farmer, product: dbtest.CreateProduct(t, db, farmer.ID, "4.50", 10, nil)}
}

type fixture struct {
	farmer  *models.User
	product *models.Product
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

// decodeProduct reads data.product and fails when the key is missing.
func decodeProduct(t *testing.T, raw json.RawMessage) internalproducts.ProductDTO {
	t.Helper()
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &keys))
	require.Contains(t, keys, "product", string(raw))
	var body productBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Product
}

func TestAddReviewRecomputesRating(t *testing.T) {
	svc, env := newService(t, "ctrl_products_review")
	params := map[string]string{"id": env.product.ID.String()}

	ratings := []int{5, 4, 4}
	var last internalproducts.ProductDTO
	for _, rating := range ratings {
		body := `{"rating":` + strconv.Itoa(rating) + `,"comment":"tasty"}`
		rec, out := serve(t, AddReview(svc, nil), http.MethodPost, "/", body, auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, params)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		last = decodeProduct(t, out.Data)
	}
	assert.Equal(t, "4.33", last.Rating.Average.StringFixed(2))
	assert.Equal(t, 3, last.Rating.Count)
	assert.Len(t, last.Reviews, 3)
}

func TestAddReviewDuplicateIsBadRequest(t *testing.T) {
	svc, env := newService(t, "ctrl_products_review_dup")
	params := map[string]string{"id": env.product.ID.String()}
	reviewer := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}

	rec, _ := serve(t, AddReview(svc, nil), http.MethodPost, "/", `{"rating":3}`, reviewer, params)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, out := serve(t, AddReview(svc, nil), http.MethodPost, "/", `{"rating":5}`, reviewer, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeBusinessRule), out.Code)
}

func TestAddReviewValidatesRating(t *testing.T) {
	svc, env := newService(t, "ctrl_products_review_invalid")
	rec, out := serve(t, AddReview(svc, nil), http.MethodPost, "/", `{"rating":7}`,
		auth.Actor{UserID: uuid.New()}, map[string]string{"id": env.product.ID.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(out.Details), "rating")
}

func TestDetailCountsViews(t *testing.T) {
	svc, env := newService(t, "ctrl_products_detail")
	params := map[string]string{"id": env.product.ID.String()}

	var dto internalproducts.ProductDTO
	for i := 0; i < 2; i++ {
		rec, out := serve(t, Detail(svc, nil), http.MethodGet, "/", "", auth.Actor{}, params)
		require.Equal(t, http.StatusOK, rec.Code)
		dto = decodeProduct(t, out.Data)
	}
	assert.Equal(t, 2, dto.Views)

	rec, _ := serve(t, Detail(svc, nil), http.MethodGet, "/", "", auth.Actor{}, map[string]string{"id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRequiresFarmer(t *testing.T) {
	svc, env := newService(t, "ctrl_products_create")
	body := `{"name":"Kale","price":"3.25","unit":"bunch","stock":12,"tags":["greens"]}`

	rec, _ := serve(t, Create(svc, nil), http.MethodPost, "/api/products", body, auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out := serve(t, Create(svc, nil), http.MethodPost, "/api/products", body, auth.Actor{UserID: env.farmer.ID, Role: enums.UserRoleFarmer}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decodeProduct(t, out.Data)
	assert.Equal(t, "Kale", dto.Name)
	assert.Equal(t, enums.AvailabilityAvailable, dto.Availability)
	assert.Equal(t, 1, dto.MinOrderQuantity)
}

func TestListFiltersAndLimits(t *testing.T) {
	svc, _ := newService(t, "ctrl_products_list")
	rec, out := serve(t, List(svc, nil), http.MethodGet, "/api/products?limit=5", "", auth.Actor{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(out.Data), `"count":1`)

	rec, _ = serve(t, List(svc, nil), http.MethodGet, "/api/products?organic=maybe", "", auth.Actor{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEditsOwnProduct(t *testing.T) {
	svc, env := newService(t, "ctrl_products_update")
	params := map[string]string{"id": env.product.ID.String()}
	owner := auth.Actor{UserID: env.farmer.ID, Role: enums.UserRoleFarmer}

	rec, out := serve(t, Update(svc, nil), http.MethodPut, "/", `{"stock":0,"name":" Baby Kale "}`, owner, params)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Product updated successfully", out.Message)
	dto := decodeProduct(t, out.Data)
	assert.Equal(t, "Baby Kale", dto.Name)
	assert.Equal(t, enums.AvailabilityOutOfStock, dto.Availability)

	rec, _ = serve(t, Update(svc, nil), http.MethodPut, "/", `{"stock":-1}`, owner, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stranger := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleFarmer}
	rec, _ = serve(t, Update(svc, nil), http.MethodPut, "/", `{"stock":3}`, stranger, params)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRemovesProduct(t *testing.T) {
	svc, env := newService(t, "ctrl_products_delete")
	params := map[string]string{"id": env.product.ID.String()}
	owner := auth.Actor{UserID: env.farmer.ID, Role: enums.UserRoleFarmer}

	rec, out := serve(t, Delete(svc, nil), http.MethodDelete, "/", "", owner, params)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Product deleted successfully", out.Message)

	rec, _ = serve(t, Delete(svc, nil), http.MethodDelete, "/", "", owner, params)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryLookups(t *testing.T) {
	db := dbtest.Open(t, "ctrl_products_categories")
	svc, err := internalproducts.NewService(internalproducts.NewRepository(db), dbpkg.Wrap(db), outbox.NewService(outbox.NewRepository(db), nil))
	require.NoError(t, err)
	category := dbtest.CreateCategory(t, db, "Root Vegetables", true)
	farmer := dbtest.CreateUser(t, db, enums.UserRoleFarmer)
	dbtest.CreateProduct(t, db, farmer.ID, "1", 3, func(p *models.Product) { p.CategoryID = &category.ID })

	rec, out := serve(t, CategoryDetail(svc, nil), http.MethodGet, "/", "", auth.Actor{}, map[string]string{"id": category.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body categoryBody
	require.NoError(t, json.Unmarshal(out.Data, &body))
	assert.Equal(t, "root-vegetables", body.Category.Slug)
	assert.EqualValues(t, 1, body.Category.ProductCount)

	rec, out = serve(t, CategoryBySlug(svc, nil), http.MethodGet, "/", "", auth.Actor{}, map[string]string{"slug": "root-vegetables"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(out.Data), `"category":{`)

	rec, _ = serve(t, CategoryBySlug(svc, nil), http.MethodGet, "/", "", auth.Actor{}, map[string]string{"slug": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = serve(t, ListCategories(svc, nil), http.MethodGet, "/", "", auth.Actor{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(out.Data), `"categories":[`)
}
