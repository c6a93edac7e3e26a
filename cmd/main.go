package main

import (
	"marketplace-service/internal/handler"
	mid "marketplace-service/internal/middleware"
	"marketplace-service/internal/model"
	"marketplace-service/pkg/config"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/filestore"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting marketplace-service", appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Run migrations
	err = database.MigrateModels(
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
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Seed the default category set
	if err := database.SeedCategories(); err != nil {
		log.Fatal("Failed to seed categories", zap.Error(err))
	}

	// Initialize upload storage
	store, err := filestore.New(&appConfig.Upload)
	if err != nil {
		log.Fatal("Failed to initialize upload storage", zap.Error(err))
	}
	log.Info("Upload storage initialized", zap.String("dir", store.Dir()))

	// Initialize handlers
	handler.InitAuthHandler(appConfig)
	handler.InitSupplierHandler(store)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     appConfig.Server.AllowOrigins,
		AllowCredentials: true,
	}))
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Uploaded product images
	e.Static(appConfig.Upload.PublicPath, store.Dir())

	sessionAuth := mid.SessionAuth(appConfig.Session.CookieName)

	// Authentication routes
	authAPI := e.Group("/api/auth")
	authAPI.POST("/register-user", handler.RegisterUser)
	authAPI.POST("/register-supplier", handler.RegisterSupplier)
	authAPI.POST("/login", handler.Login)
	authAPI.POST("/logout", handler.Logout, sessionAuth)
	authAPI.GET("/me", handler.Me, sessionAuth)

	// Public catalog routes
	e.GET("/api/products", handler.ListProducts)
	e.GET("/api/products/:id", handler.GetProduct)
	e.GET("/api/products/:id/comments", handler.ListProductComments)
	e.GET("/api/categories", handler.ListCategories)

	// Cart routes - buyers only
	cartAPI := e.Group("/api/cart", sessionAuth, mid.RequireRole(model.RoleUser, model.RoleAdmin))
	cartAPI.GET("", handler.GetCart)
	cartAPI.POST("/add", handler.AddToCart)
	cartAPI.PUT("/update/:itemId", handler.UpdateCartItem)
	cartAPI.DELETE("/remove/:itemId", handler.RemoveFromCart)
	cartAPI.DELETE("/clear", handler.ClearCart)

	// Order placement - buyers only
	orderAPI := e.Group("/api/orders", sessionAuth, mid.RequireRole(model.RoleUser, model.RoleAdmin))
	orderAPI.POST("", handler.PlaceOrder)

	// User account routes
	userAPI := e.Group("/api/user", sessionAuth, mid.RequireRole(model.RoleUser, model.RoleAdmin))
	userAPI.GET("/profile", handler.GetProfile)
	userAPI.PUT("/profile", handler.UpdateProfile)
	userAPI.PUT("/password", handler.ChangePassword)
	userAPI.GET("/orders", handler.ListMyOrders)
	userAPI.POST("/products/:id/comments", handler.CreateComment)

	// Supplier routes
	supplierAPI := e.Group("/api/supplier", sessionAuth, mid.RequireRole(model.RoleSupplier))
	supplierAPI.GET("/profile", handler.SupplierProfile)
	supplierAPI.GET("/products/mine", handler.MyProducts)
	supplierAPI.GET("/products/:id", handler.GetMyProduct)
	supplierAPI.POST("/products", handler.CreateProduct)
	supplierAPI.PUT("/products/:id", handler.UpdateProduct)
	supplierAPI.DELETE("/products/:id", handler.DeleteProduct)
	supplierAPI.GET("/orders", handler.SupplierOrders)
	supplierAPI.GET("/earnings", handler.SupplierEarnings)
	supplierAPI.GET("/stats", handler.SupplierStats)

	// Admin routes
	adminAPI := e.Group("/api/admin", sessionAuth, mid.RequireRole(model.RoleAdmin))
	adminAPI.GET("/dashboard", handler.Dashboard)
	adminAPI.GET("/analytics", handler.Analytics)
	adminAPI.GET("/analytics/sales-monthly", handler.MonthlySales)
	adminAPI.GET("/users", handler.ListUsers)
	adminAPI.PUT("/users/:id/toggle-status", handler.ToggleUserStatus)
	adminAPI.DELETE("/users/:id", handler.DeleteUser)
	adminAPI.GET("/suppliers", handler.ListSuppliers)
	adminAPI.PUT("/suppliers/:id/approve", handler.ApproveSupplier)
	adminAPI.PUT("/suppliers/:id/reject", handler.RejectSupplier)
	adminAPI.DELETE("/suppliers/:id", handler.DeleteSupplier)
	adminAPI.GET("/products", handler.ListAllProducts)
	adminAPI.PUT("/products/:id/approve", handler.ApproveProduct)
	adminAPI.PUT("/products/:id/reject", handler.RejectProduct)
	adminAPI.GET("/orders", handler.ListOrders)
	adminAPI.PUT("/orders/:id/status", handler.UpdateOrderStatus)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
