package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

// CreateOrder persists an order with its items and optional promotion usage
// in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, usage *models.PromotionUsage) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, store_info_id, customer_id, order_number, status, subtotal, discount_total, total, promotion_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`,
		order.ID, order.StoreInfoID, nullUUID(order.CustomerID), order.OrderNumber,
		order.Status, order.Subtotal, order.DiscountTotal, order.Total, nullUUID(order.PromotionID),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, category_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.ProductID, nullUUID(item.CategoryID), item.Name, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if usage != nil {
		if usage.ID == uuid.Nil {
			usage.ID = uuid.New()
		}
		usage.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO promotion_usage (id, promotion_id, customer_id, order_id, discount_amount)
			VALUES ($1, $2, $3, $4, $5)
		`, usage.ID, usage.PromotionID, nullUUID(usage.CustomerID), usage.OrderID, usage.DiscountAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to record promotion usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

// GetOrder retrieves an order with its items.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	var customerID, promotionID uuid.NullUUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_info_id, customer_id, order_number, status, subtotal, discount_total, total, promotion_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.StoreInfoID, &customerID, &order.OrderNumber, &order.Status,
		&order.Subtotal, &order.DiscountTotal, &order.Total, &promotionID,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if customerID.Valid {
		order.CustomerID = &customerID.UUID
	}
	if promotionID.Valid {
		order.PromotionID = &promotionID.UUID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, category_id, name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var categoryID uuid.NullUUID
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &categoryID,
			&item.Name, &item.Quantity, &item.UnitPrice, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if categoryID.Valid {
			item.CategoryID = &categoryID.UUID
		}
		order.Items = append(order.Items, item)
	}
	return &order, rows.Err()
}
