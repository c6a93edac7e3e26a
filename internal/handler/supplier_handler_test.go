package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"marketplace-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplierCreateProductStartsPending(t *testing.T) {
	setupTest(t)
	e := setupServer()

	createSupplier(t, "vendor@example.com", model.SupplierApproved)
	createCategory(t, "Electronics")
	cookie := login(t, e, "vendor@example.com", "secret123")

	rec := doForm(t, e, http.MethodPost, "/api/supplier/products", map[string]string{
		"name":        "New Keyboard",
		"description": "mechanical",
		"price":       "49.99",
		"stock":       "5",
		"category":    "Electronics",
	}, "", "", cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var product model.Product
	decodeBody(t, rec, &product)
	assert.Equal(t, model.ProductPending, product.Status)
	assert.Equal(t, placeholderImage, product.Image)

	// Not publicly listed until approved
	rec = doJSON(e, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Product
	decodeBody(t, rec, &listed)
	assert.Empty(t, listed)
}

func TestSupplierCreateProductWithImage(t *testing.T) {
	setupTest(t)
	e := setupServer()

	createSupplier(t, "vendor@example.com", model.SupplierApproved)
	createCategory(t, "Electronics")
	cookie := login(t, e, "vendor@example.com", "secret123")

	rec := doForm(t, e, http.MethodPost, "/api/supplier/products", map[string]string{
		"name":     "Webcam",
		"price":    "25",
		"category": "Electronics",
	}, "image", "webcam.png", cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var product model.Product
	decodeBody(t, rec, &product)
	assert.True(t, strings.HasPrefix(product.Image, "/uploads/"))
	assert.True(t, strings.HasSuffix(product.Image, ".png"))
}

func TestSupplierCreateProductUnknownCategory(t *testing.T) {
	setupTest(t)
	e := setupServer()

	createSupplier(t, "vendor@example.com", model.SupplierApproved)
	cookie := login(t, e, "vendor@example.com", "secret123")

	rec := doForm(t, e, http.MethodPost, "/api/supplier/products", map[string]string{
		"name":     "Widget",
		"price":    "1",
		"category": "Nonexistent",
	}, "", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSupplierUpdateResetsApproval(t *testing.T) {
	setupTest(t)
	e := setupServer()

	supplier := createSupplier(t, "vendor@example.com", model.SupplierApproved)
	category := createCategory(t, "Electronics")
	product := createProduct(t, supplier.ID, category.ID, "Keyboard", 30, model.ProductApproved)
	cookie := login(t, e, "vendor@example.com", "secret123")

	rec := doForm(t, e, http.MethodPut, fmt.Sprintf("/api/supplier/products/%d", product.ID), map[string]string{
		"price": "35",
	}, "", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Product
	decodeBody(t, rec, &updated)
	assert.InDelta(t, 35.0, updated.Price, 0.001)
	assert.Equal(t, model.ProductPending, updated.Status)
}

func TestSupplierCannotTouchForeignProduct(t *testing.T) {
	setupTest(t)
	e := setupServer()

	owner := createSupplier(t, "owner@example.com", model.SupplierApproved)
	createSupplier(t, "other@example.com", model.SupplierApproved)
	category := createCategory(t, "Electronics")
	product := createProduct(t, owner.ID, category.ID, "Keyboard", 30, model.ProductApproved)
	cookie := login(t, e, "other@example.com", "secret123")

	rec := doForm(t, e, http.MethodPut, fmt.Sprintf("/api/supplier/products/%d", product.ID), map[string]string{
		"price": "1",
	}, "", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/supplier/products/%d", product.ID), nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/supplier/products/%d", product.ID), nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSupplierListsOwnProductsInAllStates(t *testing.T) {
	setupTest(t)
	e := setupServer()

	supplier := createSupplier(t, "vendor@example.com", model.SupplierApproved)
	other := createSupplier(t, "other@example.com", model.SupplierApproved)
	category := createCategory(t, "Electronics")
	createProduct(t, supplier.ID, category.ID, "Approved One", 10, model.ProductApproved)
	createProduct(t, supplier.ID, category.ID, "Pending One", 10, model.ProductPending)
	createProduct(t, other.ID, category.ID, "Foreign One", 10, model.ProductApproved)
	cookie := login(t, e, "vendor@example.com", "secret123")

	rec := doJSON(e, http.MethodGet, "/api/supplier/products/mine", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []model.Product
	decodeBody(t, rec, &products)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.Equal(t, supplier.ID, p.SupplierID)
	}
}

func TestSupplierOrdersAndEarnings(t *testing.T) {
	setupTest(t)
	e := setupServer()

	supplier := createSupplier(t, "vendor@example.com", model.SupplierApproved)
	other := createSupplier(t, "other@example.com", model.SupplierApproved)
	category := createCategory(t, "Electronics")
	mine := createProduct(t, supplier.ID, category.ID, "Keyboard", 10.00, model.ProductApproved)
	foreign := createProduct(t, other.ID, category.ID, "Mouse", 5.00, model.ProductApproved)
	createUser(t, "buyer@example.com", model.RoleUser)
	buyerCookie := login(t, e, "buyer@example.com", "secret123")

	// One mixed order: only the supplier's own line counts toward earnings
	rec := doJSON(e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": mine.ID, "quantity": 3},
			{"product_id": foreign.ID, "quantity": 2},
		},
	}, buyerCookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := login(t, e, "vendor@example.com", "secret123")

	rec = doJSON(e, http.MethodGet, "/api/supplier/orders", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []struct {
		OrderID  uint              `json:"order_id"`
		Items    []model.OrderItem `json:"items"`
		Subtotal float64           `json:"subtotal"`
	}
	decodeBody(t, rec, &views)
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1)
	assert.Equal(t, "Keyboard", views[0].Items[0].ProductName)
	assert.InDelta(t, 30.00, views[0].Subtotal, 0.001)

	rec = doJSON(e, http.MethodGet, "/api/supplier/earnings", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var earnings struct {
		Total   float64 `json:"total"`
		Details []struct {
			ProductName string  `json:"product_name"`
			Amount      float64 `json:"amount"`
		} `json:"details"`
	}
	decodeBody(t, rec, &earnings)
	assert.InDelta(t, 30.00, earnings.Total, 0.001)
	require.Len(t, earnings.Details, 1)
	assert.Equal(t, "Keyboard", earnings.Details[0].ProductName)
}

func TestSupplierStats(t *testing.T) {
	setupTest(t)
	e := setupServer()

	supplier := createSupplier(t, "vendor@example.com", model.SupplierApproved)
	category := createCategory(t, "Electronics")
	product := createProduct(t, supplier.ID, category.ID, "Keyboard", 10.00, model.ProductApproved)
	createProduct(t, supplier.ID, category.ID, "Draft", 5.00, model.ProductPending)
	createUser(t, "buyer@example.com", model.RoleUser)
	buyerCookie := login(t, e, "buyer@example.com", "secret123")

	rec := doJSON(e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 2},
		},
	}, buyerCookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := login(t, e, "vendor@example.com", "secret123")
	rec = doJSON(e, http.MethodGet, "/api/supplier/stats", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		ProductCount  int64   `json:"product_count"`
		PendingCount  int64   `json:"pending_count"`
		OrderCount    int     `json:"order_count"`
		TotalEarnings float64 `json:"total_earnings"`
	}
	decodeBody(t, rec, &stats)
	assert.Equal(t, int64(2), stats.ProductCount)
	assert.Equal(t, int64(1), stats.PendingCount)
	assert.Equal(t, 1, stats.OrderCount)
	assert.InDelta(t, 20.00, stats.TotalEarnings, 0.001)
}

func TestUserCannotReachSupplierRoutes(t *testing.T) {
	setupTest(t)
	e := setupServer()

	createUser(t, "buyer@example.com", model.RoleUser)
	cookie := login(t, e, "buyer@example.com", "secret123")

	rec := doJSON(e, http.MethodGet, "/api/supplier/profile", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
