package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-shop/velora/internal/models"
)

func seedUsers(t *testing.T, env *testEnv) []models.User {
	t.Helper()
	users := []models.User{
		{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleAdmin},
		{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", Role: models.RoleUser},
		{Name: "Carol", Email: "carol@example.com", PasswordHash: "x", Role: models.RoleUser},
	}
	for i := range users {
		require.NoError(t, env.DB.Create(&users[i]).Error)
	}
	return users
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	seedUsers(t, env)

	rec, c := env.doJSONRequest(t, http.MethodGet, "/api/users", nil)
	asAdmin(c, 1)
	require.NoError(t, env.U.ListUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []userResponse `json:"items"`
		Total int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(3), resp.Total)

	rec, c = env.doJSONRequest(t, http.MethodGet, "/api/users?role=USER", nil)
	asAdmin(c, 1)
	require.NoError(t, env.U.ListUsers(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp.Total)

	rec, c = env.doJSONRequest(t, http.MethodGet, "/api/users?q=alice", nil)
	asAdmin(c, 1)
	require.NoError(t, env.U.ListUsers(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	require.Equal(t, "Alice", resp.Items[0].Name)
}

func TestGetUserWithOrdersCount(t *testing.T) {
	env := newTestEnv(t)
	users := seedUsers(t, env)

	order := models.Order{
		OrderNumber: "VEL-2025-TEST01", UserID: users[1].ID, Status: models.OrderStatusPending,
		Total: 10, Currency: "EUR", ShippingName: "Bob", ShippingAddress1: "A1",
		ShippingCity: "C", ShippingZip: "Z", ShippingCountry: "RS",
	}
	require.NoError(t, env.DB.Create(&order).Error)

	rec, c := env.doJSONRequest(t, http.MethodGet, "/api/users/2", nil)
	c.SetParamNames("id")
	c.SetParamValues("2")
	asAdmin(c, 1)
	require.NoError(t, env.U.GetUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Bob", resp.Name)
	require.Equal(t, int64(1), resp.OrdersCount)

	_, c = env.doJSONRequest(t, http.MethodGet, "/api/users/999", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")
	asAdmin(c, 1)
	require.Equal(t, http.StatusNotFound, httpErrorCode(t, env.U.GetUser(c)))
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	seedUsers(t, env)

	rec, c := env.doJSONRequest(t, http.MethodPatch, "/api/users/2/role", map[string]string{"role": "ADMIN"})
	c.SetParamNames("id")
	c.SetParamValues("2")
	asAdmin(c, 1)
	require.NoError(t, env.U.UpdateUserRole(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, models.RoleAdmin, resp.Role)

	_, c = env.doJSONRequest(t, http.MethodPatch, "/api/users/2/role", map[string]string{"role": "SUPERUSER"})
	c.SetParamNames("id")
	c.SetParamValues("2")
	asAdmin(c, 1)
	require.Equal(t, http.StatusBadRequest, httpErrorCode(t, env.U.UpdateUserRole(c)))
}
