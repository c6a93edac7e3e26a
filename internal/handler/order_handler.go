package handler

import (
	"net/http"
	"time"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/model"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlaceOrder creates an order from (product, quantity) lines. Unit prices
// and product names are snapshotted so later product edits or deletions do
// not rewrite order history. Stock is not decremented.
func PlaceOrder(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	var req struct {
		Items []struct {
			ProductID uint `json:"product_id"`
			Quantity  int  `json:"quantity"`
		} `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order must contain at least one item"})
	}

	order := model.Order{
		UserID: user.ID,
		Status: model.OrderPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]model.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			qty := line.Quantity
			if qty <= 0 {
				qty = 1
			}

			var product model.Product
			if result := tx.First(&product, line.ProductID); result.Error != nil {
				return result.Error
			}

			productID := product.ID
			items = append(items, model.OrderItem{
				ProductID:   &productID,
				ProductName: product.Name,
				Quantity:    qty,
				Price:       product.Price,
			})
			total += product.Price * float64(qty)
		}

		order.Total = total
		order.Items = items
		return tx.Create(&order).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Warn("Order references missing product", zap.Uint("user_id", user.ID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		log.Error("Failed to place order", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to place order"})
	}

	// Placing an order empties the cart
	var cart model.Cart
	if result := database.GetDB().Where("user_id = ?", user.ID).First(&cart); result.Error == nil {
		database.GetDB().Where("cart_id = ?", cart.ID).Delete(&model.CartItem{})
	}

	prometheus.OrdersPlacedCounter.Inc()
	prometheus.RecordOrderStatus(string(model.OrderPending))
	log.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", user.ID),
		zap.Float64("total", order.Total),
		zap.Int("items", len(order.Items)))

	return c.JSON(http.StatusCreated, order)
}

// ListMyOrders returns the current user's orders, newest first
func ListMyOrders(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []model.Order
	result := database.GetDB().Where("user_id = ?", user.ID).
		Preload("Items").Preload("Items.Product").
		Order("created_at desc").Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list orders", zap.Uint("user_id", user.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, orders)
}
