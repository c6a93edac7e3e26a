package handler

import (
	"net/http"
	"strconv"
	"time"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/model"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/filestore"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// placeholderImage is served for products created without an upload
const placeholderImage = "https://via.placeholder.com/300x300?text=No+Image"

var store *filestore.Store

// InitSupplierHandler wires the upload store into the supplier handlers
func InitSupplierHandler(s *filestore.Store) {
	store = s
}

// findOwnProduct resolves a product and verifies the supplier owns it
func findOwnProduct(c echo.Context, supplierID uint) (model.Product, int, string) {
	var product model.Product
	if result := database.GetDB().First(&product, c.Param("id")); result.Error != nil {
		return product, http.StatusNotFound, "product not found"
	}
	if product.SupplierID != supplierID {
		return product, http.StatusForbidden, "access denied"
	}
	return product, 0, ""
}

// CreateProduct handles a supplier listing a new product. The listing starts
// PENDING until an admin approves it. Accepts multipart form data with an
// optional image.
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("create")

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	name := c.FormValue("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product name is required"})
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
	}

	stock, _ := strconv.Atoi(c.FormValue("stock"))

	var category model.Category
	if result := database.GetDB().Where("name = ?", c.FormValue("category")).First(&category); result.Error != nil {
		log.Warn("Unknown category", zap.String("category", c.FormValue("category")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	image := placeholderImage
	if file, err := c.FormFile("image"); err == nil {
		path, err := store.Save(file)
		if err != nil {
			log.Error("Failed to store product image", zap.Error(err))
			prometheus.RecordUpload("error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
		}
		if path != "" {
			image = path
			prometheus.RecordUpload("success")
		}
	}

	product := model.Product{
		Name:        name,
		Description: c.FormValue("description"),
		Price:       price,
		Stock:       stock,
		Image:       image,
		CategoryID:  category.ID,
		SupplierID:  supplier.ID,
		Status:      model.ProductPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&product); result.Error != nil {
		log.Error("Failed to create product", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}

	log.Info("Product created, awaiting approval",
		zap.Uint("product_id", product.ID),
		zap.Uint("supplier_id", supplier.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct edits an owned product. Any edit sends the listing back to
// PENDING moderation; a new image replaces the stored file.
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("update")

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	product, status, errMsg := findOwnProduct(c, supplier.ID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	if name := c.FormValue("name"); name != "" {
		product.Name = name
	}
	if desc := c.FormValue("description"); desc != "" {
		product.Description = desc
	}
	if rawPrice := c.FormValue("price"); rawPrice != "" {
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil || price < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
		}
		product.Price = price
	}
	if rawStock := c.FormValue("stock"); rawStock != "" {
		stock, err := strconv.Atoi(rawStock)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock"})
		}
		product.Stock = stock
	}
	if categoryName := c.FormValue("category"); categoryName != "" {
		var category model.Category
		if result := database.GetDB().Where("name = ?", categoryName).First(&category); result.Error != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		product.CategoryID = category.ID
	}

	if file, err := c.FormFile("image"); err == nil {
		path, err := store.Save(file)
		if err != nil {
			log.Error("Failed to store product image", zap.Error(err))
			prometheus.RecordUpload("error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
		}
		if path != "" {
			store.Delete(product.Image)
			product.Image = path
			prometheus.RecordUpload("success")
		}
	}

	// Edited listings go back through moderation
	product.Status = model.ProductPending

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&product); result.Error != nil {
		log.Error("Failed to update product", zap.Uint("product_id", product.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
	}

	log.Info("Product updated, awaiting approval",
		zap.Uint("product_id", product.ID),
		zap.Uint("supplier_id", supplier.ID))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes an owned product. Historical order items keep their
// name and price snapshots but lose the product reference; cart lines and
// comments for the product are dropped.
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("delete")

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	product, status, errMsg := findOwnProduct(c, supplier.ID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.OrderItem{}).
			Where("product_id = ?", product.ID).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		log.Error("Failed to delete product", zap.Uint("product_id", product.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}

	store.Delete(product.Image)

	log.Info("Product deleted",
		zap.Uint("product_id", product.ID),
		zap.Uint("supplier_id", supplier.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// MyProducts lists the supplier's own products in every moderation state
func MyProducts(c echo.Context) error {
	log := logger.FromContext(c)

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	result := database.GetDB().Where("supplier_id = ?", supplier.ID).
		Preload("Category").Order("created_at desc").Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Uint("supplier_id", supplier.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetMyProduct returns one of the supplier's own products
func GetMyProduct(c echo.Context) error {
	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	product, status, errMsg := findOwnProduct(c, supplier.ID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	database.GetDB().Preload("Category").First(&product, product.ID)
	return c.JSON(http.StatusOK, product)
}

// SupplierProfile returns the authenticated supplier's account
func SupplierProfile(c echo.Context) error {
	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, supplier)
}

// supplierOrderView is an order narrowed to the lines belonging to one
// supplier, with a subtotal over just those lines.
type supplierOrderView struct {
	OrderID   uint              `json:"order_id"`
	Status    model.OrderStatus `json:"status"`
	Customer  string            `json:"customer"`
	Items     []model.OrderItem `json:"items"`
	Subtotal  float64           `json:"subtotal"`
	CreatedAt time.Time         `json:"created_at"`
}

// supplierOrders collects the orders containing the supplier's products,
// newest first, each narrowed to the supplier's own lines.
func supplierOrders(supplierID uint) ([]supplierOrderView, error) {
	var orders []model.Order
	err := database.GetDB().
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.supplier_id = ?", supplierID).
		Distinct("orders.*").
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Preload("Product") }).
		Order("orders.created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	views := make([]supplierOrderView, 0, len(orders))
	for _, order := range orders {
		view := supplierOrderView{
			OrderID:   order.ID,
			Status:    order.Status,
			CreatedAt: order.CreatedAt,
		}
		if order.User != nil {
			view.Customer = order.User.Name
		}
		for _, item := range order.Items {
			if item.Product == nil || item.Product.SupplierID != supplierID {
				continue
			}
			view.Items = append(view.Items, item)
			view.Subtotal += item.Price * float64(item.Quantity)
		}
		views = append(views, view)
	}
	return views, nil
}

// SupplierOrders lists orders containing the supplier's products
func SupplierOrders(c echo.Context) error {
	log := logger.FromContext(c)

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	views, err := supplierOrders(supplier.ID)
	if err != nil {
		log.Error("Failed to list supplier orders", zap.Uint("supplier_id", supplier.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, views)
}

// SupplierEarnings reports what the supplier has earned per sold line,
// using the prices snapshotted at purchase
func SupplierEarnings(c echo.Context) error {
	log := logger.FromContext(c)

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var items []model.OrderItem
	err := database.GetDB().
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.supplier_id = ?", supplier.ID).
		Preload("Product").
		Find(&items).Error
	if err != nil {
		log.Error("Failed to compute earnings", zap.Uint("supplier_id", supplier.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve earnings"})
	}

	type earningDetail struct {
		OrderID     uint    `json:"order_id"`
		ProductName string  `json:"product_name"`
		Quantity    int     `json:"quantity"`
		Price       float64 `json:"price"`
		Amount      float64 `json:"amount"`
	}

	var total float64
	details := make([]earningDetail, 0, len(items))
	for _, item := range items {
		amount := item.Price * float64(item.Quantity)
		details = append(details, earningDetail{
			OrderID:     item.OrderID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Amount:      amount,
		})
		total += amount
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":   total,
		"details": details,
	})
}

// SupplierStats summarizes the supplier's listings and sales
func SupplierStats(c echo.Context) error {
	log := logger.FromContext(c)

	supplier, ok := middleware.CurrentSupplier(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	db := database.GetDB()

	var productCount, pendingCount int64
	db.Model(&model.Product{}).Where("supplier_id = ?", supplier.ID).Count(&productCount)
	db.Model(&model.Product{}).Where("supplier_id = ? AND status = ?", supplier.ID, model.ProductPending).Count(&pendingCount)

	views, err := supplierOrders(supplier.ID)
	if err != nil {
		log.Error("Failed to compute supplier stats", zap.Uint("supplier_id", supplier.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve stats"})
	}

	var earnings float64
	for _, view := range views {
		earnings += view.Subtotal
	}

	recent := views
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product_count":  productCount,
		"pending_count":  pendingCount,
		"order_count":    len(views),
		"total_earnings": earnings,
		"recent_orders":  recent,
	})
}
