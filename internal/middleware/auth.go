package middleware

import (
	"net/http"
	"time"

	"marketplace-service/internal/model"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionAuth returns a middleware that resolves the session cookie into an
// authenticated principal. Identity is carried in the echo context only;
// handlers never consult any global login state.
func SessionAuth(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Warn("Missing session cookie")
				prometheus.RecordAuthError("missing_session")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			defer prometheus.TrackDBOperation("query")(time.Now())
			var session model.Session
			result := database.GetDB().Where("token = ?", cookie.Value).First(&session)
			if result.Error != nil {
				log.Warn("Unknown session token")
				prometheus.RecordAuthError("unknown_session")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			if !session.IsValid() {
				log.Warn("Expired or revoked session", zap.String("session_id", session.ID))
				prometheus.RecordAuthError("invalid_session")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
			}

			switch session.PrincipalKind {
			case model.PrincipalUser:
				var user model.User
				if err := database.GetDB().First(&user, session.PrincipalID).Error; err != nil {
					log.Warn("Session principal no longer exists", zap.Uint("user_id", session.PrincipalID))
					prometheus.RecordAuthError("principal_missing")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
				}
				if user.Status != model.UserActive {
					log.Warn("Login attempt on non-active account",
						zap.Uint("user_id", user.ID),
						zap.String("status", string(user.Status)))
					prometheus.RecordAuthError("account_disabled")
					return c.JSON(http.StatusForbidden, echo.Map{"error": "account is disabled"})
				}
				c.Set("current_user", user)
				c.Set("email", user.Email)

			case model.PrincipalSupplier:
				var supplier model.Supplier
				if err := database.GetDB().First(&supplier, session.PrincipalID).Error; err != nil {
					log.Warn("Session principal no longer exists", zap.Uint("supplier_id", session.PrincipalID))
					prometheus.RecordAuthError("principal_missing")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
				}
				if supplier.Status != model.SupplierApproved {
					log.Warn("Session for non-approved supplier",
						zap.Uint("supplier_id", supplier.ID),
						zap.String("status", string(supplier.Status)))
					prometheus.RecordAuthError("supplier_not_approved")
					return c.JSON(http.StatusForbidden, echo.Map{"error": "supplier account is not approved"})
				}
				c.Set("current_supplier", supplier)
				c.Set("email", supplier.Email)

			default:
				log.Error("Session with unknown principal kind",
					zap.String("session_id", session.ID),
					zap.String("kind", string(session.PrincipalKind)))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			c.Set("session", session)
			c.Set("principal_id", session.PrincipalID)
			c.Set("role", session.Role)

			return next(c)
		}
	}
}

// RequireRole returns a middleware that rejects requests whose session role
// is not one of the given roles. Must run after SessionAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(model.Role)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			logger.FromContext(c).Warn("Role not allowed for route",
				zap.String("role", string(role)),
				zap.String("path", c.Path()))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
	}
}

// CurrentUser retrieves the authenticated user from the context
func CurrentUser(c echo.Context) (model.User, bool) {
	user, ok := c.Get("current_user").(model.User)
	return user, ok
}

// CurrentSupplier retrieves the authenticated supplier from the context
func CurrentSupplier(c echo.Context) (model.Supplier, bool) {
	supplier, ok := c.Get("current_supplier").(model.Supplier)
	return supplier, ok
}

// CurrentSession retrieves the session record from the context
func CurrentSession(c echo.Context) (model.Session, bool) {
	session, ok := c.Get("session").(model.Session)
	return session, ok
}
