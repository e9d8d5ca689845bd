package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/velora-shop/velora/internal/models"
	"github.com/velora-shop/velora/internal/util"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

const DefaultCurrency = "EUR"

// how often we re-roll the order number on a unique-index collision
const maxOrderNumberAttempts = 3

type Identity struct {
	UserID uint
	Role   string
}

func (id Identity) IsAdmin() bool { return id.Role == models.RoleAdmin }

type CreateItem struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type CreateRequest struct {
	Items            []CreateItem `json:"items"`
	ShippingName     string       `json:"shippingName"`
	ShippingAddress1 string       `json:"shippingAddress1"`
	ShippingAddress2 string       `json:"shippingAddress2"`
	ShippingCity     string       `json:"shippingCity"`
	ShippingZip      string       `json:"shippingZip"`
	ShippingCountry  string       `json:"shippingCountry"`
	Note             string       `json:"note"`
	Currency         string       `json:"currency"`
}

type ListFilter struct {
	Page     int
	PageSize int
	Status   string
	UserID   uint // admin-only filter
}

type Page struct {
	Items      []models.Order `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
}

type Service struct {
	DB *gorm.DB
}

// CreateOrder validates the requested items against the catalog, freezes a
// price/name/image snapshot per line item and, in one transaction, persists
// the order and decrements each product's stock. The decrement is a guarded
// conditional update so two racing orders can never both take the last
// units of a product.
func (s *Service) CreateOrder(ctx context.Context, ident Identity, req CreateRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order items are required", ErrValidation)
	}
	if req.ShippingName == "" || req.ShippingAddress1 == "" ||
		req.ShippingCity == "" || req.ShippingZip == "" || req.ShippingCountry == "" {
		return nil, fmt.Errorf("%w: shipping information is incomplete", ErrValidation)
	}

	currency := req.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	seen := make(map[uint]struct{}, len(req.Items))
	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == 0 {
			return nil, fmt.Errorf("%w: invalid productId in items", ErrValidation)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: each item must have quantity >= 1", ErrValidation)
		}
		if _, dup := seen[it.ProductID]; !dup {
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}

	var order models.Order
	txErr := s.withOrderNumberRetry(func(orderNumber string) error {
		order = models.Order{}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var products []models.Product
			if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
				return err
			}
			if len(products) != len(ids) {
				return fmt.Errorf("%w: unknown product in items", ErrValidation)
			}

			byID := make(map[uint]models.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}

			var total float64
			items := make([]models.OrderItem, 0, len(req.Items))
			for _, it := range req.Items {
				p := byID[it.ProductID]
				if !p.IsActive {
					return fmt.Errorf("%w: product %d not available", ErrValidation, it.ProductID)
				}
				if p.Stock < it.Quantity {
					return fmt.Errorf("%w: insufficient stock for product %s", ErrValidation, p.Name)
				}
				total += p.Price * float64(it.Quantity)
				items = append(items, models.OrderItem{
					ProductID: p.ID,
					Name:      p.Name,
					Price:     p.Price,
					ImageURL:  p.ImageURL,
					Quantity:  uint(it.Quantity),
				})
			}

			order = models.Order{
				OrderNumber:      orderNumber,
				UserID:           ident.UserID,
				Status:           models.OrderStatusPending,
				Total:            total,
				Currency:         currency,
				ShippingName:     req.ShippingName,
				ShippingAddress1: req.ShippingAddress1,
				ShippingAddress2: req.ShippingAddress2,
				ShippingCity:     req.ShippingCity,
				ShippingZip:      req.ShippingZip,
				ShippingCountry:  req.ShippingCountry,
				Note:             req.Note,
				Items:            items,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}

			for _, it := range req.Items {
				res := tx.Model(&models.Product{}).
					Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
					UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
				if res.Error != nil {
					return res.Error
				}
				// the pre-check above saw enough stock, so a failed guard
				// means a concurrent order won the race
				if res.RowsAffected == 0 {
					return fmt.Errorf("%w: insufficient stock for product %s", ErrValidation, byID[it.ProductID].Name)
				}
			}

			return tx.Preload("Items").First(&order, order.ID).Error
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

func (s *Service) withOrderNumberRetry(fn func(orderNumber string) error) error {
	var err error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		err = fn(NewOrderNumber())
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("%w: order number collision: %v", ErrConflict, err)
}

// CancelOrder moves a PENDING order to CANCELED and restores each line
// item's quantity to the product's stock, atomically. Only the owner or an
// admin may cancel. The status flip is a guarded conditional update so two
// racing cancellations can never both release the same reservation.
func (s *Service) CancelOrder(ctx context.Context, ident Identity, orderID uint) (*models.Order, error) {
	var order models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if order.UserID != ident.UserID && !ident.IsAdmin() {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Update("status", models.OrderStatusCanceled)
		if res.Error != nil {
			return res.Error
		}
		// a failed guard means the order left PENDING, possibly under a
		// concurrent cancel that already restocked
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: only PENDING orders can be canceled", ErrValidation)
		}

		if err := restock(tx, order.Items); err != nil {
			return err
		}

		order.Status = models.OrderStatusCanceled
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// UpdateStatus sets an order's status directly (admin path). Moving a
// PENDING order to CANCELED releases its stock reservation exactly like an
// owner cancellation; from any other status the reservation was already
// settled and no restock happens. The write is conditional on the status
// the transaction read, so a transition racing a cancellation fails with a
// conflict instead of resurrecting an already restocked order.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	switch status {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCanceled:
	default:
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	var order models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d was modified concurrently", ErrConflict, order.ID)
		}

		if status == models.OrderStatusCanceled && order.Status == models.OrderStatusPending {
			if err := restock(tx, order.Items); err != nil {
				return err
			}
		}

		order.Status = status
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

func restock(tx *gorm.DB, items []models.OrderItem) error {
	for _, it := range items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", it.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListOrders returns a page of orders, newest first. Non-admins only ever
// see their own orders; admins may narrow by status and owning user.
func (s *Service) ListOrders(ctx context.Context, ident Identity, f ListFilter) (*Page, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if ident.IsAdmin() {
		if f.UserID != 0 {
			q = q.Where("user_id = ?", f.UserID)
		}
	} else {
		q = q.Where("user_id = ?", ident.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	offset, limit := util.Calculate(f.Page, f.PageSize)

	var orders []models.Order
	if err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	return &Page{
		Items:      orders,
		Page:       util.NormalizePage(f.Page),
		PageSize:   limit,
		Total:      total,
		TotalPages: util.TotalPages(total, limit),
	}, nil
}

func (s *Service) GetOrder(ctx context.Context, ident Identity, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return &order, nil
}
