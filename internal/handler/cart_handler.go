package handler

import (
	"net/http"
	"strconv"
	"time"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/model"
	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// loadOrCreateCart fetches the user's cart with its items, creating the cart
// lazily on first access.
func loadOrCreateCart(userID uint) (model.Cart, error) {
	var cart model.Cart
	err := database.GetDB().Where("user_id = ?", userID).
		Preload("Items").Preload("Items.Product").First(&cart).Error
	if err == nil {
		return cart, nil
	}

	cart = model.Cart{UserID: userID}
	if err := database.GetDB().Create(&cart).Error; err != nil {
		return cart, err
	}
	return cart, nil
}

// GetCart returns the current user's cart with its computed total
func GetCart(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCartOperation("get")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	cart, err := loadOrCreateCart(user.ID)
	if err != nil {
		log.Error("Failed to load cart", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":      cart.ID,
		"user_id": cart.UserID,
		"items":   cart.Items,
		"total":   cart.Total(),
	})
}

// AddToCart adds a product to the user's cart, merging quantities when the
// product is already present
func AddToCart(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCartOperation("add")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	var product model.Product
	if result := database.GetDB().First(&product, req.ProductID); result.Error != nil {
		log.Warn("Product not found", zap.Uint("product_id", req.ProductID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	cart, err := loadOrCreateCart(user.ID)
	if err != nil {
		log.Error("Failed to load cart", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	// Merge with an existing line for the same product
	var existing model.CartItem
	result := database.GetDB().Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&existing)
	if result.Error == nil {
		existing.Quantity += req.Quantity
		if err := database.GetDB().Save(&existing).Error; err != nil {
			log.Error("Failed to update cart item", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
		}
	} else {
		item := model.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
		}
		if err := database.GetDB().Create(&item).Error; err != nil {
			log.Error("Failed to add cart item", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
		}
	}

	var count int64
	database.GetDB().Model(&model.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count)

	log.Info("Product added to cart",
		zap.Uint("user_id", user.ID),
		zap.Uint("product_id", product.ID),
		zap.Int("quantity", req.Quantity))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product added to cart", "cart_size": count})
}

// UpdateCartItem changes the quantity of a cart line; a quantity of zero or
// less removes the line
func UpdateCartItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCartOperation("update")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart item ID"})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	item, cart, status, errMsg := findOwnedCartItem(uint(itemID), user.ID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if req.Quantity <= 0 {
		if err := database.GetDB().Delete(&item).Error; err != nil {
			log.Error("Failed to remove cart item", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from cart"})
	}

	item.Quantity = req.Quantity
	if err := database.GetDB().Save(&item).Error; err != nil {
		log.Error("Failed to update cart item", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
	}

	log.Info("Cart item updated",
		zap.Uint("cart_id", cart.ID),
		zap.Uint64("item_id", itemID),
		zap.Int("quantity", req.Quantity))
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated"})
}

// RemoveFromCart deletes a cart line owned by the current user
func RemoveFromCart(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCartOperation("remove")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart item ID"})
	}

	item, _, status, errMsg := findOwnedCartItem(uint(itemID), user.ID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&item).Error; err != nil {
		log.Error("Failed to remove cart item", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
	}

	log.Info("Cart item removed", zap.Uint("user_id", user.ID), zap.Uint64("item_id", itemID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from cart"})
}

// ClearCart removes every line from the current user's cart
func ClearCart(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCartOperation("clear")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	var cart model.Cart
	if result := database.GetDB().Where("user_id = ?", user.ID).First(&cart); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cart not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		log.Error("Failed to clear cart", zap.Uint("cart_id", cart.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear cart"})
	}

	log.Info("Cart cleared", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart cleared"})
}

// findOwnedCartItem resolves a cart item and verifies it belongs to the
// given user. Returns an HTTP status and message when resolution fails.
func findOwnedCartItem(itemID, userID uint) (model.CartItem, model.Cart, int, string) {
	var item model.CartItem
	if result := database.GetDB().First(&item, itemID); result.Error != nil {
		return item, model.Cart{}, http.StatusNotFound, "cart item not found"
	}

	var cart model.Cart
	if result := database.GetDB().First(&cart, item.CartID); result.Error != nil {
		return item, cart, http.StatusNotFound, "cart not found"
	}

	if cart.UserID != userID {
		return item, cart, http.StatusForbidden, "access denied"
	}

	return item, cart, 0, ""
}
