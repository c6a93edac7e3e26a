package handler

import (
	"net/http"
	"time"

	"marketplace-service/internal/model"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dashboard summarizes the marketplace for administrators: entity counts,
// moderation backlogs, and revenue totals
func Dashboard(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	db := database.GetDB()

	var userCount, supplierCount, productCount, orderCount int64
	db.Model(&model.User{}).Count(&userCount)
	db.Model(&model.Supplier{}).Count(&supplierCount)
	db.Model(&model.Product{}).Count(&productCount)
	db.Model(&model.Order{}).Count(&orderCount)

	var pendingProducts, pendingSuppliers int64
	db.Model(&model.Product{}).Where("status = ?", model.ProductPending).Count(&pendingProducts)
	db.Model(&model.Supplier{}).Where("status = ?", model.SupplierPending).Count(&pendingSuppliers)

	var totalRevenue, monthRevenue float64
	db.Model(&model.Order{}).Select("COALESCE(SUM(total), 0)").Scan(&totalRevenue)

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	db.Model(&model.Order{}).Where("created_at >= ?", monthStart).
		Select("COALESCE(SUM(total), 0)").Scan(&monthRevenue)

	log.Info("Dashboard requested")
	return c.JSON(http.StatusOK, echo.Map{
		"users":             userCount,
		"suppliers":         supplierCount,
		"products":          productCount,
		"orders":            orderCount,
		"pending_products":  pendingProducts,
		"pending_suppliers": pendingSuppliers,
		"total_revenue":     totalRevenue,
		"month_revenue":     monthRevenue,
	})
}

// Analytics breaks the marketplace down by status, category and supplier
func Analytics(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	db := database.GetDB()

	type countRow struct {
		Label string `json:"label"`
		Count int64  `json:"count"`
	}

	var ordersByStatus []countRow
	if err := db.Model(&model.Order{}).
		Select("status AS label, COUNT(*) AS count").
		Group("status").Scan(&ordersByStatus).Error; err != nil {
		log.Error("Failed to aggregate orders by status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve analytics"})
	}

	var productsByCategory []countRow
	if err := db.Model(&model.Product{}).
		Select("categories.name AS label, COUNT(*) AS count").
		Joins("JOIN categories ON categories.id = products.category_id").
		Group("categories.name").Scan(&productsByCategory).Error; err != nil {
		log.Error("Failed to aggregate products by category", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve analytics"})
	}

	var productsBySupplier []countRow
	if err := db.Model(&model.Product{}).
		Select("suppliers.company_name AS label, COUNT(*) AS count").
		Joins("JOIN suppliers ON suppliers.id = products.supplier_id").
		Group("suppliers.company_name").Scan(&productsBySupplier).Error; err != nil {
		log.Error("Failed to aggregate products by supplier", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve analytics"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders_by_status":     ordersByStatus,
		"products_by_category": productsByCategory,
		"products_by_supplier": productsBySupplier,
	})
}

// MonthlySales returns revenue bucketed per month for the last twelve
// months, oldest first, with empty months zero-filled. Orders older than
// the window are excluded.
func MonthlySales(c echo.Context) error {
	log := logger.FromContext(c)

	now := time.Now()
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []model.Order
	if err := database.GetDB().Where("created_at >= ?", windowStart).Find(&orders).Error; err != nil {
		log.Error("Failed to load orders for monthly sales", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve sales"})
	}

	totals := make(map[string]float64, 12)
	for _, order := range orders {
		totals[order.CreatedAt.Format("2006-01")] += order.Total
	}

	type monthBucket struct {
		Month string  `json:"month"`
		Total float64 `json:"total"`
	}

	buckets := make([]monthBucket, 0, 12)
	for i := 0; i < 12; i++ {
		month := windowStart.AddDate(0, i, 0)
		buckets = append(buckets, monthBucket{
			Month: month.Format("Jan"),
			Total: totals[month.Format("2006-01")],
		})
	}

	return c.JSON(http.StatusOK, buckets)
}

// ListUsers returns every user account
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if result := database.GetDB().Order("created_at desc").Find(&users); result.Error != nil {
		log.Error("Failed to list users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, users)
}

// ToggleUserStatus flips a user between ACTIVE and INACTIVE. Suspended
// accounts are reactivated.
func ToggleUserStatus(c echo.Context) error {
	log := logger.FromContext(c)

	var user model.User
	if result := database.GetDB().First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.Status == model.UserActive {
		user.Status = model.UserInactive
	} else {
		user.Status = model.UserActive
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("status", user.Status).Error; err != nil {
		log.Error("Failed to toggle user status", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	log.Info("User status toggled",
		zap.Uint("user_id", user.ID),
		zap.String("status", string(user.Status)))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser soft-deletes a user account
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)

	var user model.User
	if result := database.GetDB().First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&user).Error; err != nil {
		log.Error("Failed to delete user", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}

	log.Info("User deleted", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

// ListSuppliers returns every supplier account
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var suppliers []model.Supplier
	if result := database.GetDB().Order("created_at desc").Find(&suppliers); result.Error != nil {
		log.Error("Failed to list suppliers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve suppliers"})
	}

	return c.JSON(http.StatusOK, suppliers)
}

// setSupplierStatus applies an admin moderation decision to a supplier
func setSupplierStatus(c echo.Context, status model.SupplierStatus, decision string) error {
	log := logger.FromContext(c)

	var supplier model.Supplier
	if result := database.GetDB().First(&supplier, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "supplier not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&supplier).Update("status", status).Error; err != nil {
		log.Error("Failed to update supplier status", zap.Uint("supplier_id", supplier.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update supplier"})
	}
	supplier.Status = status
	supplier.Approved = status == model.SupplierApproved

	prometheus.RecordModeration("supplier", decision)
	log.Info("Supplier moderated",
		zap.Uint("supplier_id", supplier.ID),
		zap.String("decision", decision))
	return c.JSON(http.StatusOK, supplier)
}

// ApproveSupplier marks a supplier APPROVED, allowing login
func ApproveSupplier(c echo.Context) error {
	return setSupplierStatus(c, model.SupplierApproved, "approved")
}

// RejectSupplier marks a supplier REJECTED
func RejectSupplier(c echo.Context) error {
	return setSupplierStatus(c, model.SupplierRejected, "rejected")
}

// DeleteSupplier soft-deletes a supplier account
func DeleteSupplier(c echo.Context) error {
	log := logger.FromContext(c)

	var supplier model.Supplier
	if result := database.GetDB().First(&supplier, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "supplier not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&supplier).Error; err != nil {
		log.Error("Failed to delete supplier", zap.Uint("supplier_id", supplier.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete supplier"})
	}

	log.Info("Supplier deleted", zap.Uint("supplier_id", supplier.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Supplier deleted successfully"})
}

// ListAllProducts returns every product in every moderation state
func ListAllProducts(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	result := database.GetDB().Preload("Category").Preload("Supplier").
		Order("created_at desc").Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// setProductStatus applies an admin moderation decision to a product
func setProductStatus(c echo.Context, status model.ProductStatus, decision string) error {
	log := logger.FromContext(c)

	var product model.Product
	if result := database.GetDB().First(&product, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&product).Update("status", status).Error; err != nil {
		log.Error("Failed to update product status", zap.Uint("product_id", product.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
	}
	product.Status = status

	prometheus.RecordModeration("product", decision)
	log.Info("Product moderated",
		zap.Uint("product_id", product.ID),
		zap.String("decision", decision))
	return c.JSON(http.StatusOK, product)
}

// ApproveProduct makes a product publicly visible
func ApproveProduct(c echo.Context) error {
	return setProductStatus(c, model.ProductApproved, "approved")
}

// RejectProduct rejects a product listing
func RejectProduct(c echo.Context) error {
	return setProductStatus(c, model.ProductRejected, "rejected")
}

// ListOrders returns every order with its user and item lines
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []model.Order
	result := database.GetDB().Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Preload("Product") }).
		Order("created_at desc").Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus moves an order through its fulfillment states
func UpdateOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)

	var order model.Order
	if result := database.GetDB().First(&order, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if !model.ValidOrderStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order status"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&order).Update("status", model.OrderStatus(req.Status)).Error; err != nil {
		log.Error("Failed to update order status", zap.Uint("order_id", order.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}
	order.Status = model.OrderStatus(req.Status)

	prometheus.RecordOrderStatus(req.Status)
	log.Info("Order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", req.Status))
	return c.JSON(http.StatusOK, order)
}
