package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/velora-shop/velora/internal/models"
	"github.com/velora-shop/velora/internal/util"
)

// UserHandler serves the admin back-office user endpoints.
type UserHandler struct {
	DB *gorm.DB
}

type userResponse struct {
	models.User
	OrdersCount int64 `json:"ordersCount"`
}

func (h *UserHandler) withOrdersCount(u models.User) (userResponse, error) {
	var count int64
	if err := h.DB.Model(&models.Order{}).Where("user_id = ?", u.ID).Count(&count).Error; err != nil {
		return userResponse{}, err
	}
	return userResponse{User: u, OrdersCount: count}, nil
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("pageSize"), 0)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.User{})
	if term := strings.TrimSpace(c.QueryParam("q")); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	if role == models.RoleUser || role == models.RoleAdmin {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	var users []models.User
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp, err := h.withOrdersCount(u)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
		}
		items = append(items, resp)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items":      items,
		"page":       util.NormalizePage(page),
		"pageSize":   limit,
		"total":      total,
		"totalPages": util.TotalPages(total, limit),
	})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	resp, err := h.withOrdersCount(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) UpdateUserRole(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid role")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	user.Role = req.Role
	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	resp, err := h.withOrdersCount(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, resp)
}
