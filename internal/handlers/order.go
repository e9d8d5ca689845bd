package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velora-shop/velora/internal/logging"
	"github.com/velora-shop/velora/internal/middleware/auth"
	"github.com/velora-shop/velora/internal/mykafka"
	"github.com/velora-shop/velora/internal/service/order"
)

type OrderHandler struct {
	Service  *order.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) identity(c echo.Context) (order.Identity, error) {
	userID, role, err := auth.Identity(c)
	if err != nil {
		return order.Identity{}, err
	}
	return order.Identity{UserID: userID, Role: role}, nil
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	ident, err := h.identity(c)
	if err != nil {
		return err
	}

	var req order.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Service.CreateOrder(ctx, ident, req)
	if err != nil {
		l.Warn("create_order_failed", "user_id", ident.UserID, "error", err)
		return serviceError(err)
	}

	l.Info("create_order_success", "user_id", ident.UserID, "order_id", created.ID, "total", created.Total)
	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      ident.UserID,
		"orderID":     created.ID,
		"orderNumber": created.OrderNumber,
		"total":       created.Total,
	})

	return c.JSON(http.StatusCreated, created)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ident, err := h.identity(c)
	if err != nil {
		return err
	}

	filter := order.ListFilter{
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		PageSize: parseIntDefault(c.QueryParam("pageSize"), 0),
		Status:   c.QueryParam("status"),
	}
	if ident.IsAdmin() {
		filter.UserID = uint(parseIntDefault(c.QueryParam("userId"), 0))
	}

	page, err := h.Service.ListOrders(c.Request().Context(), ident, filter)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ident, err := h.identity(c)
	if err != nil {
		return err
	}

	id, err := idParam(c)
	if err != nil {
		return err
	}

	found, err := h.Service.GetOrder(c.Request().Context(), ident, id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, found)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ident, err := h.identity(c)
	if err != nil {
		return err
	}

	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Service.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return serviceError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"userID":  ident.UserID,
		"orderID": updated.ID,
		"status":  updated.Status,
	})

	return c.JSON(http.StatusOK, updated)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ident, err := h.identity(c)
	if err != nil {
		return err
	}

	id, err := idParam(c)
	if err != nil {
		return err
	}

	canceled, err := h.Service.CancelOrder(c.Request().Context(), ident, id)
	if err != nil {
		return serviceError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_canceled",
		"userID":  ident.UserID,
		"orderID": canceled.ID,
	})

	return c.JSON(http.StatusOK, canceled)
}
