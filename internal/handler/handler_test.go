package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/model"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/filestore"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var metricsOnce sync.Once

// testCookieName is the session cookie used by the test server
const testCookieName = "marketplace_session"

// setupTest prepares a fresh in-memory database and the handler globals.
// Metrics are registered exactly once for the whole test binary.
func setupTest(t *testing.T) {
	t.Helper()

	cfg := &config.Config{
		Session: config.SessionConfig{
			CookieName: testCookieName,
			Lifetime:   time.Hour,
			SameSite:   http.SameSiteLaxMode,
		},
		Upload: config.UploadConfig{
			Dir:        t.TempDir(),
			PublicPath: "/uploads",
		},
		Metrics: config.MetricsConfig{Prefix: "marketplace_test"},
	}

	metricsOnce.Do(func() { prometheus.InitMetrics(cfg) })

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.Supplier{},
		&model.Category{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Comment{},
		&model.Session{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	database.SetDB(db)

	InitAuthHandler(cfg)

	uploads, err := filestore.New(&cfg.Upload)
	if err != nil {
		t.Fatalf("failed to create test file store: %v", err)
	}
	InitSupplierHandler(uploads)
}

// setupServer builds an echo instance with the full route table
func setupServer() *echo.Echo {
	e := echo.New()
	sessionAuth := middleware.SessionAuth(testCookieName)

	e.POST("/api/auth/register-user", RegisterUser)
	e.POST("/api/auth/register-supplier", RegisterSupplier)
	e.POST("/api/auth/login", Login)
	e.POST("/api/auth/logout", Logout, sessionAuth)
	e.GET("/api/auth/me", Me, sessionAuth)

	e.GET("/api/products", ListProducts)
	e.GET("/api/products/:id", GetProduct)
	e.GET("/api/products/:id/comments", ListProductComments)
	e.GET("/api/categories", ListCategories)

	cartAPI := e.Group("/api/cart", sessionAuth, middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	cartAPI.GET("", GetCart)
	cartAPI.POST("/add", AddToCart)
	cartAPI.PUT("/update/:itemId", UpdateCartItem)
	cartAPI.DELETE("/remove/:itemId", RemoveFromCart)
	cartAPI.DELETE("/clear", ClearCart)

	orderAPI := e.Group("/api/orders", sessionAuth, middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	orderAPI.POST("", PlaceOrder)

	userAPI := e.Group("/api/user", sessionAuth, middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	userAPI.GET("/profile", GetProfile)
	userAPI.PUT("/profile", UpdateProfile)
	userAPI.PUT("/password", ChangePassword)
	userAPI.GET("/orders", ListMyOrders)
	userAPI.POST("/products/:id/comments", CreateComment)

	supplierAPI := e.Group("/api/supplier", sessionAuth, middleware.RequireRole(model.RoleSupplier))
	supplierAPI.GET("/profile", SupplierProfile)
	supplierAPI.GET("/products/mine", MyProducts)
	supplierAPI.GET("/products/:id", GetMyProduct)
	supplierAPI.POST("/products", CreateProduct)
	supplierAPI.PUT("/products/:id", UpdateProduct)
	supplierAPI.DELETE("/products/:id", DeleteProduct)
	supplierAPI.GET("/orders", SupplierOrders)
	supplierAPI.GET("/earnings", SupplierEarnings)
	supplierAPI.GET("/stats", SupplierStats)

	adminAPI := e.Group("/api/admin", sessionAuth, middleware.RequireRole(model.RoleAdmin))
	adminAPI.GET("/dashboard", Dashboard)
	adminAPI.GET("/analytics", Analytics)
	adminAPI.GET("/analytics/sales-monthly", MonthlySales)
	adminAPI.GET("/users", ListUsers)
	adminAPI.PUT("/users/:id/toggle-status", ToggleUserStatus)
	adminAPI.DELETE("/users/:id", DeleteUser)
	adminAPI.GET("/suppliers", ListSuppliers)
	adminAPI.PUT("/suppliers/:id/approve", ApproveSupplier)
	adminAPI.PUT("/suppliers/:id/reject", RejectSupplier)
	adminAPI.DELETE("/suppliers/:id", DeleteSupplier)
	adminAPI.GET("/products", ListAllProducts)
	adminAPI.PUT("/products/:id/approve", ApproveProduct)
	adminAPI.PUT("/products/:id/reject", RejectProduct)
	adminAPI.GET("/orders", ListOrders)
	adminAPI.PUT("/orders/:id/status", UpdateOrderStatus)

	return e
}

// doJSON performs a JSON request against the test server
func doJSON(e *echo.Echo, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// doForm performs a multipart form request against the test server. When
// fileField is non-empty a small file part is attached.
func doForm(t *testing.T, e *echo.Echo, method, path string, fields map[string]string, fileField, filename string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response body
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

// createUser inserts a user with the given role and returns it
func createUser(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	user := model.User{
		Name:     "Test User",
		Email:    email,
		Password: mustHash(t, "secret123"),
		Role:     role,
		Status:   model.UserActive,
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// createSupplier inserts a supplier with the given approval status
func createSupplier(t *testing.T, email string, status model.SupplierStatus) model.Supplier {
	t.Helper()
	supplier := model.Supplier{
		Email:       email,
		CompanyName: "Acme Supplies",
		Password:    mustHash(t, "secret123"),
		Status:      status,
	}
	if err := database.GetDB().Create(&supplier).Error; err != nil {
		t.Fatalf("failed to create supplier: %v", err)
	}
	return supplier
}

// createCategory inserts a category
func createCategory(t *testing.T, name string) model.Category {
	t.Helper()
	category := model.Category{Name: name}
	if err := database.GetDB().Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return category
}

// createProduct inserts a product owned by the supplier
func createProduct(t *testing.T, supplierID, categoryID uint, name string, price float64, status model.ProductStatus) model.Product {
	t.Helper()
	product := model.Product{
		Name:       name,
		Price:      price,
		Stock:      10,
		CategoryID: categoryID,
		SupplierID: supplierID,
		Status:     status,
	}
	if err := database.GetDB().Create(&product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}

// productPath formats a route containing an entity ID
func productPath(id uint, format string) string {
	return fmt.Sprintf(format, id)
}

// login authenticates against the test server and returns the session cookie
func login(t *testing.T, e *echo.Echo, email, password string) *http.Cookie {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rec.Code, rec.Body.String())
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == testCookieName {
			return cookie
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}
