package handler

import (
	"net/http"
	"testing"

	"marketplace-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	setupTest(t)
	e := setupServer()

	createUser(t, "buyer@example.com", model.RoleUser)
	cookie := login(t, e, "buyer@example.com", "secret123")

	rec := doJSON(e, http.MethodPut, "/api/user/profile", map[string]string{
		"name":    "New Name",
		"phone":   "555-0100",
		"city":    "Lisbon",
		"country": "Portugal",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/user/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile model.User
	decodeBody(t, rec, &profile)
	assert.Equal(t, "New Name", profile.Name)
	assert.Equal(t, "Lisbon", profile.City)
	// Email is not editable through the profile
	assert.Equal(t, "buyer@example.com", profile.Email)
}

func TestChangePassword(t *testing.T) {
	setupTest(t)
	e := setupServer()

	createUser(t, "buyer@example.com", model.RoleUser)
	cookie := login(t, e, "buyer@example.com", "secret123")

	// Wrong current password is refused
	rec := doJSON(e, http.MethodPut, "/api/user/password", map[string]string{
		"current_password": "wrongpass",
		"new_password":     "newsecret",
	}, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPut, "/api/user/password", map[string]string{
		"current_password": "secret123",
		"new_password":     "newsecret",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// The old password no longer works, the new one does
	rec = doJSON(e, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "buyer@example.com",
		"password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	login(t, e, "buyer@example.com", "newsecret")
}
