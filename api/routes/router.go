package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/srejanashetty/efarm-backend/api/controllers"
	analyticscontrollers "github.com/srejanashetty/efarm-backend/api/controllers/analytics"
	articlecontrollers "github.com/srejanashetty/efarm-backend/api/controllers/articles"
	jobcontrollers "github.com/srejanashetty/efarm-backend/api/controllers/jobs"
	ordercontrollers "github.com/srejanashetty/efarm-backend/api/controllers/orders"
	productcontrollers "github.com/srejanashetty/efarm-backend/api/controllers/products"
	"github.com/srejanashetty/efarm-backend/api/middleware"
	"github.com/srejanashetty/efarm-backend/internal/analytics"
	"github.com/srejanashetty/efarm-backend/internal/articles"
	"github.com/srejanashetty/efarm-backend/internal/jobs"
	"github.com/srejanashetty/efarm-backend/internal/orders"
	"github.com/srejanashetty/efarm-backend/internal/products"
	"github.com/srejanashetty/efarm-backend/pkg/config"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/metrics"
	pkgredis "github.com/srejanashetty/efarm-backend/pkg/redis"
)

// RedisStore is the slice of *redis.Client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

type Services struct {
	Orders    orders.Service
	Jobs      jobs.Service
	Products  products.Service
	Analytics analytics.Service
	Articles  articles.Service
}

// Infra carries the shared dependencies. A nil Redis disables idempotency
// and write throttling; nil Metrics skips /metrics.
type Infra struct {
	DB      controllers.Pinger
	Redis   RedisStore
	Metrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	ready := map[string]controllers.Pinger{"db": infra.DB}
	if infra.Redis != nil {
		ready["redis"] = infra.Redis
	}
	if infra.Metrics != nil && cfg.FeatureFlags.Metrics {
		r.Method(http.MethodGet, "/metrics", infra.Metrics.Handler())
	}

	idem := func(next http.Handler) http.Handler { return next }
	if infra.Redis != nil && cfg.FeatureFlags.Idempotency {
		idem = middleware.Idempotency(infra.Redis, cfg.Redis.IdempotencyTTL, logg)
	}
	writeLimit := func(next http.Handler) http.Handler { return next }
	if infra.Redis != nil {
		writeLimit = middleware.WriteRateLimit(middleware.RateLimitPolicy{
			Name:   "writes",
			Limit:  cfg.App.WriteRateLimit,
			Window: cfg.App.WriteRateWindow,
		}, infra.Redis, logg)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health/live", controllers.HealthLive(cfg))
		r.Get("/health/ready", controllers.HealthReady(cfg, logg, ready))

		// public catalog, job board and articles
		r.Get("/products", productcontrollers.List(svc.Products, logg))
		r.Get("/products/{id}", productcontrollers.Detail(svc.Products, logg))
		r.Get("/products/{id}/reviews", productcontrollers.ListReviews(svc.Products, logg))
		r.Get("/categories", productcontrollers.ListCategories(svc.Products, logg))
		r.Get("/categories/slug/{slug}", productcontrollers.CategoryBySlug(svc.Products, logg))
		r.Get("/categories/{id}", productcontrollers.CategoryDetail(svc.Products, logg))
		r.Get("/jobs", jobcontrollers.List(svc.Jobs, logg))
		r.Get("/jobs/{id}", jobcontrollers.Detail(svc.Jobs, logg))
		r.Get("/articles", articlecontrollers.List(svc.Articles, logg))
		r.Get("/articles/featured", articlecontrollers.Featured(svc.Articles, logg))
		r.Get("/articles/popular", articlecontrollers.Popular(svc.Articles, logg))
		r.Get("/articles/recent", articlecontrollers.Recent(svc.Articles, logg))
		r.Get("/articles/{id}", articlecontrollers.Detail(svc.Articles, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(writeLimit)

			buyer := middleware.RequireRole(logg, enums.UserRoleUser)
			farmerOrAdmin := middleware.RequireRole(logg, enums.UserRoleFarmer, enums.UserRoleAdmin)
			farmer := middleware.RequireRole(logg, enums.UserRoleFarmer)
			admin := middleware.RequireRole(logg, enums.UserRoleAdmin)

			r.Route("/orders", func(r chi.Router) {
				r.With(buyer, idem).Post("/", ordercontrollers.Create(svc.Orders, logg))
				r.Get("/", ordercontrollers.List(svc.Orders, logg))
				r.Get("/{id}", ordercontrollers.Detail(svc.Orders, logg))
				r.With(buyer).Put("/{id}/cancel", ordercontrollers.Cancel(svc.Orders, logg))
				r.With(farmerOrAdmin).Put("/{id}/status", ordercontrollers.UpdateStatus(svc.Orders, logg))
				r.With(farmerOrAdmin).Post("/{id}/notes", ordercontrollers.AddNote(svc.Orders, logg))
				r.With(farmerOrAdmin).Put("/{id}/shipping", ordercontrollers.UpdateShipping(svc.Orders, logg))
				r.With(admin).Put("/{id}/payment", ordercontrollers.UpdatePayment(svc.Orders, logg))
			})

			r.With(farmer).Post("/products", productcontrollers.Create(svc.Products, logg))
			r.With(farmer).Put("/products/{id}", productcontrollers.Update(svc.Products, logg))
			r.With(farmer).Delete("/products/{id}", productcontrollers.Delete(svc.Products, logg))
			r.With(idem).Post("/products/{id}/review", productcontrollers.AddReview(svc.Products, logg))

			r.With(farmer).Post("/jobs", jobcontrollers.Create(svc.Jobs, logg))
			r.Get("/jobs/applications/me", jobcontrollers.MyApplications(svc.Jobs, logg))
			r.With(idem).Post("/jobs/{id}/apply", jobcontrollers.Apply(svc.Jobs, logg))
			r.With(farmerOrAdmin).Get("/jobs/{id}/applications", jobcontrollers.ListApplications(svc.Jobs, logg))
			r.With(farmerOrAdmin).Put("/jobs/{id}/applications/{applicantId}", jobcontrollers.UpdateApplicationStatus(svc.Jobs, logg))

			r.With(admin).Get("/admin/analytics", analyticscontrollers.AdminDashboard(svc.Analytics, logg))
			r.With(farmer).Get("/farmer/analytics", analyticscontrollers.FarmerDashboard(svc.Analytics, logg))

			r.With(admin).Route("/admin/articles", func(r chi.Router) {
				r.Get("/", articlecontrollers.AdminList(svc.Articles, logg))
				r.Post("/", articlecontrollers.Create(svc.Articles, logg))
				r.Get("/{id}", articlecontrollers.AdminDetail(svc.Articles, logg))
				r.Put("/{id}", articlecontrollers.Update(svc.Articles, logg))
				r.Delete("/{id}", articlecontrollers.Delete(svc.Articles, logg))
			})
		})
	})

	return r
}
