package middleware

import (
	"net/http"
	"strings"

	"github.com/srejanashetty/efarm-backend/api/responses"
	pkgAuth "github.com/srejanashetty/efarm-backend/pkg/auth"
	"github.com/srejanashetty/efarm-backend/pkg/config"
	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
)

// Auth requires a valid access token and stores the caller on the context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token"))
				return
			}
			actor := pkgAuth.ActorFromClaims(claims)
			if actor.IsZero() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token subject missing"))
				return
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actor.UserID.String(),
					"actor_role": string(actor.Role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts "Bearer <jwt>" or a bare token.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "bearer") {
		header = strings.TrimSpace(rest)
	}
	return header, header != ""
}
