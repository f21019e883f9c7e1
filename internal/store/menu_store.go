package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/menuorder/internal/domain"
)

// ErrNotFound is wrapped by updates and deletes that matched no row.
var ErrNotFound = errors.New("not found")

// DateLayout is the storage format of menus.menu_date.
const DateLayout = "2006-01-02"

type MenuStore struct {
	db *sql.DB
}

func NewMenuStore(db *sql.DB) *MenuStore {
	return &MenuStore{db: db}
}

func (s *MenuStore) Create(ctx context.Context, menuDate time.Time, isClosed bool, photoID *int64) (*domain.Menu, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO menus (menu_date, is_closed, photo_id) VALUES (?, ?, ?)
	`, menuDate.Format(DateLayout), isClosed, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *MenuStore) GetByID(ctx context.Context, id int64) (*domain.Menu, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, menu_date, is_closed, photo_id, created_at FROM menus WHERE id = ?
	`, id)

	menu, err := scanMenu(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}

	return menu, nil
}

// List returns all menus, most recent menu date first.
func (s *MenuStore) List(ctx context.Context) ([]*domain.Menu, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, menu_date, is_closed, photo_id, created_at FROM menus
		ORDER BY menu_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var menus []*domain.Menu
	for rows.Next() {
		menu, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu: %w", err)
		}
		menus = append(menus, menu)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menus: %w", err)
	}

	return menus, nil
}

func (s *MenuStore) SetClosed(ctx context.Context, id int64, closed bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE menus SET is_closed = ? WHERE id = ?
	`, closed, id)
	if err != nil {
		return fmt.Errorf("failed to update menu: %w", err)
	}

	return expectOneRow(result, "menu")
}

func (s *MenuStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM menus WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu: %w", err)
	}

	return expectOneRow(result, "menu")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMenu(row scanner) (*domain.Menu, error) {
	menu := &domain.Menu{}
	var menuDate string
	if err := row.Scan(&menu.ID, &menuDate, &menu.IsClosed, &menu.PhotoID, &menu.CreatedAt); err != nil {
		return nil, err
	}

	d, err := time.Parse(DateLayout, menuDate)
	if err != nil {
		return nil, fmt.Errorf("invalid menu date %q: %w", menuDate, err)
	}
	menu.MenuDate = d

	return menu, nil
}

func expectOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}

	return nil
}
