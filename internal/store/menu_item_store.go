package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/menuorder/internal/domain"
)

type MenuItemStore struct {
	db *sql.DB
}

func NewMenuItemStore(db *sql.DB) *MenuItemStore {
	return &MenuItemStore{db: db}
}

// CreateBatch inserts items for a menu in a single transaction. Positions are
// assigned from the slice order.
func (s *MenuItemStore) CreateBatch(ctx context.Context, menuID int64, items []domain.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO menu_items (menu_id, category, name, price, position) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("failed to close statement", "error", err)
		}
	}()

	for i, item := range items {
		if _, err := stmt.ExecContext(ctx, menuID, item.Category, item.Name, item.Price, i); err != nil {
			return fmt.Errorf("failed to create menu item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menu items: %w", err)
	}

	return nil
}

func (s *MenuItemStore) GetByID(ctx context.Context, id int64) (*domain.MenuItem, error) {
	item := &domain.MenuItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, menu_id, category, name, price, position, created_at FROM menu_items WHERE id = ?
	`, id).Scan(&item.ID, &item.MenuID, &item.Category, &item.Name, &item.Price, &item.Position, &item.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}

	return item, nil
}

// ListByMenuID returns a menu's items in the order they were pasted.
func (s *MenuItemStore) ListByMenuID(ctx context.Context, menuID int64) ([]*domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, menu_id, category, name, price, position, created_at FROM menu_items
		WHERE menu_id = ? ORDER BY position ASC, id ASC
	`, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.MenuItem
	for rows.Next() {
		item := &domain.MenuItem{}
		if err := rows.Scan(&item.ID, &item.MenuID, &item.Category, &item.Name, &item.Price, &item.Position, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}
