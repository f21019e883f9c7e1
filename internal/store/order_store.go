package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/menuorder/internal/domain"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, menu_id, customer_name, is_delivery, delivery_address, phone_number, remarks, is_paid, total_amount, created_at`

// Create inserts an order and its details atomically and returns the stored order.
func (s *OrderStore) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (menu_id, customer_name, is_delivery, delivery_address, phone_number, remarks, is_paid, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, o.MenuID, o.CustomerName, o.IsDelivery, o.DeliveryAddress, o.PhoneNumber, o.Remarks, o.IsPaid, o.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, d := range o.Details {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_details (order_id, item_name, price, quantity) VALUES (?, ?, ?, ?)
		`, id, d.ItemName, d.Price, d.Quantity); err != nil {
			return nil, fmt.Errorf("failed to create order detail %q: %w", d.ItemName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *OrderStore) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	details, err := s.listDetails(ctx, `WHERE d.order_id = ?`, id)
	if err != nil {
		return nil, err
	}
	order.Details = details[order.ID]

	return order, nil
}

// ListByMenuID returns a menu's orders in the order they were placed, each
// with its details.
func (s *OrderStore) ListByMenuID(ctx context.Context, menuID int64) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE menu_id = ? ORDER BY created_at ASC, id ASC
	`, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	// Close before the next query; the pool holds a single connection.
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	details, err := s.listDetails(ctx, `JOIN orders o ON o.id = d.order_id WHERE o.menu_id = ?`, menuID)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Details = details[o.ID]
	}

	return orders, nil
}

func (s *OrderStore) SetPaid(ctx context.Context, id int64, paid bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET is_paid = ? WHERE id = ?
	`, paid, id)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return expectOneRow(result, "order")
}

func (s *OrderStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM orders WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return expectOneRow(result, "order")
}

// listDetails loads order details matching filter, keyed by order id.
func (s *OrderStore) listDetails(ctx context.Context, filter string, arg any) (map[int64][]*domain.OrderDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.order_id, d.item_name, d.price, d.quantity FROM order_details d
		`+filter+`
		ORDER BY d.id ASC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list order details: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	details := make(map[int64][]*domain.OrderDetail)
	for rows.Next() {
		d := &domain.OrderDetail{}
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ItemName, &d.Price, &d.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		details[d.OrderID] = append(details[d.OrderID], d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order details: %w", err)
	}

	return details, nil
}

func scanOrder(row scanner) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(&o.ID, &o.MenuID, &o.CustomerName, &o.IsDelivery, &o.DeliveryAddress,
		&o.PhoneNumber, &o.Remarks, &o.IsPaid, &o.TotalAmount, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}
