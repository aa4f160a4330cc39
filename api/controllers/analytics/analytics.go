package analytics

import (
	"net/http"

	"github.com/srejanashetty/efarm-backend/api/middleware"
	"github.com/srejanashetty/efarm-backend/api/responses"
	"github.com/srejanashetty/efarm-backend/internal/analytics"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
)

// AdminDashboard serves marketplace-wide totals, growth, monthly buckets and
// revenue.
func AdminDashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !middleware.ActorFromContext(ctx).IsAdmin() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
			return
		}

		dashboard, err := svc.AdminDashboard(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

// FarmerDashboard serves the calling farmer's listing counts and 30-day sales.
func FarmerDashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor := middleware.ActorFromContext(ctx)
		if !actor.IsFarmer() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "farmer access required"))
			return
		}

		dashboard, err := svc.FarmerDashboard(ctx, actor.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
