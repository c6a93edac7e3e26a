package handler

import (
	"net/http"
	"time"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/model"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var sessionConfig config.SessionConfig

// InitAuthHandler initializes the auth handlers with session configuration
func InitAuthHandler(cfg *config.Config) {
	sessionConfig = cfg.Session
}

// principal is the resolved identity behind a login attempt. Users and
// suppliers authenticate through the same endpoint; the kind tag tells them
// apart after the shared credential check.
type principal struct {
	Kind     model.PrincipalKind
	ID       uint
	Name     string
	Email    string
	Password string
	Role     model.Role
	Approved bool
}

// findPrincipalByEmail looks up a user first, then a supplier
func findPrincipalByEmail(email string) (*principal, bool) {
	var user model.User
	if err := database.GetDB().Where("email = ?", email).First(&user).Error; err == nil {
		return &principal{
			Kind:     model.PrincipalUser,
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Password: user.Password,
			Role:     user.Role,
			Approved: user.Status == model.UserActive,
		}, true
	}

	var supplier model.Supplier
	if err := database.GetDB().Where("email = ?", email).First(&supplier).Error; err == nil {
		return &principal{
			Kind:     model.PrincipalSupplier,
			ID:       supplier.ID,
			Name:     supplier.CompanyName,
			Email:    supplier.Email,
			Password: supplier.Password,
			Role:     model.RoleSupplier,
			Approved: supplier.Status == model.SupplierApproved,
		}, true
	}

	return nil, false
}

// RegisterUser handles user registration
func RegisterUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRegistration("user")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
		City     string `json:"city"`
		Country  string `json:"country"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Reject emails already used by either principal kind
	if _, exists := findPrincipalByEmail(req.Email); exists {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		Country:  req.Country,
		Role:     model.RoleUser,
		Status:   model.UserActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// RegisterSupplier handles supplier registration; new suppliers start PENDING
func RegisterSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRegistration("supplier")

	var req struct {
		CompanyName string `json:"company_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Description string `json:"description"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse supplier registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.CompanyName == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name, email and password are required"})
	}

	if _, exists := findPrincipalByEmail(req.Email); exists {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	supplier := model.Supplier{
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    string(hashedPassword),
		Description: req.Description,
		Phone:       req.Phone,
		Address:     req.Address,
		Status:      model.SupplierPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&supplier); result.Error != nil {
		log.Error("Failed to create supplier", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Supplier registered, awaiting approval",
		zap.String("email", supplier.Email),
		zap.String("company", supplier.CompanyName))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Supplier registered successfully, awaiting approval",
		"supplier": map[string]interface{}{
			"id":           supplier.ID,
			"company_name": supplier.CompanyName,
			"email":        supplier.Email,
			"status":       supplier.Status,
		},
	})
}

// Login authenticates a user or supplier and opens a session
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	p, found := findPrincipalByEmail(req.Email)
	if !found {
		log.Warn("Login for unknown email", zap.String("email", req.Email))
		prometheus.RecordAuthError("principal_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Suppliers cannot log in until an admin approves them; disabled user
	// accounts are likewise blocked.
	if !p.Approved {
		if p.Kind == model.PrincipalSupplier {
			log.Warn("Login by non-approved supplier", zap.String("email", req.Email))
			prometheus.RecordAuthError("supplier_not_approved")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "supplier account is pending approval"})
		}
		log.Warn("Login by disabled account", zap.String("email", req.Email))
		prometheus.RecordAuthError("account_disabled")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is disabled"})
	}

	session := model.Session{
		PrincipalKind: p.Kind,
		PrincipalID:   p.ID,
		Role:          p.Role,
		ExpiresAt:     time.Now().Add(sessionConfig.Lifetime),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&session); result.Error != nil {
		log.Error("Failed to create session", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionConfig.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   sessionConfig.CookieSecure,
		SameSite: sessionConfig.SameSite,
	})

	prometheus.ActiveSessionsGauge.Inc()
	log.Info("Principal logged in",
		zap.String("email", p.Email),
		zap.String("kind", string(p.Kind)),
		zap.String("role", string(p.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"id":    p.ID,
		"name":  p.Name,
		"email": p.Email,
		"role":  p.Role,
	})
}

// Logout revokes the current session and expires the cookie
func Logout(c echo.Context) error {
	log := logger.FromContext(c)

	session, ok := middleware.CurrentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&session).Update("revoked", true).Error; err != nil {
		log.Error("Failed to revoke session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionConfig.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sessionConfig.CookieSecure,
		SameSite: sessionConfig.SameSite,
	})

	prometheus.ActiveSessionsGauge.Dec()
	log.Info("Session revoked", zap.String("session_id", session.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated principal
func Me(c echo.Context) error {
	if user, ok := middleware.CurrentUser(c); ok {
		return c.JSON(http.StatusOK, user)
	}
	if supplier, ok := middleware.CurrentSupplier(c); ok {
		return c.JSON(http.StatusOK, supplier)
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
}
