package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/menuorder/internal/domain"
	"github.com/vbonduro/menuorder/internal/menutext"
	"github.com/vbonduro/menuorder/internal/ordertext"
	"github.com/vbonduro/menuorder/internal/photostore"
	"github.com/vbonduro/menuorder/internal/store"
	"github.com/vbonduro/menuorder/internal/transcribe"
)

var (
	ErrMenuNotFound  = errors.New("menu not found")
	ErrMenuClosed    = errors.New("menu is closed for orders")
	ErrInvalidMenu   = errors.New("menu has no items")
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")

	// ErrNoTranscriber is returned by TranscribePhoto when no backend is configured.
	ErrNoTranscriber = errors.New("photo transcription is not configured")
)

// menuRepository is the subset of store.MenuStore that MenuService requires.
type menuRepository interface {
	Create(ctx context.Context, menuDate time.Time, isClosed bool, photoID *int64) (*domain.Menu, error)
	GetByID(ctx context.Context, id int64) (*domain.Menu, error)
	List(ctx context.Context) ([]*domain.Menu, error)
	SetClosed(ctx context.Context, id int64, closed bool) error
	Delete(ctx context.Context, id int64) error
}

// menuItemRepository is the subset of store.MenuItemStore that MenuService requires.
type menuItemRepository interface {
	CreateBatch(ctx context.Context, menuID int64, items []domain.MenuItem) error
	ListByMenuID(ctx context.Context, menuID int64) ([]*domain.MenuItem, error)
}

// orderRepository is the subset of store.OrderStore that MenuService requires.
type orderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByMenuID(ctx context.Context, menuID int64) ([]*domain.Order, error)
	SetPaid(ctx context.Context, id int64, paid bool) error
	Delete(ctx context.Context, id int64) error
}

// photoRepository is the subset of store.PhotoStore that MenuService requires.
type photoRepository interface {
	Create(ctx context.Context, storageKey, mimeType string) (*domain.Photo, error)
	GetByID(ctx context.Context, id int64) (*domain.Photo, error)
	Delete(ctx context.Context, id int64) error
}

type MenuService struct {
	menuStore   menuRepository
	itemStore   menuItemRepository
	orderStore  orderRepository
	photoStore  photoRepository
	photoStg    photostore.PhotoStore
	transcriber transcribe.Transcriber
	deliveryFee decimal.Decimal
	logger      *slog.Logger
}

// NewMenuService wires the service. transcriber may be nil, in which case
// TranscribePhoto always fails with ErrNoTranscriber.
func NewMenuService(
	menuStore menuRepository,
	itemStore menuItemRepository,
	orderStore orderRepository,
	photoStore photoRepository,
	photoStg photostore.PhotoStore,
	transcriber transcribe.Transcriber,
	deliveryFee decimal.Decimal,
	logger *slog.Logger,
) *MenuService {
	return &MenuService{
		menuStore:   menuStore,
		itemStore:   itemStore,
		orderStore:  orderStore,
		photoStore:  photoStore,
		photoStg:    photoStg,
		transcriber: transcriber,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

func (s *MenuService) DeliveryFee() decimal.Decimal {
	return s.deliveryFee
}

// PreviewMenu parses pasted text without storing anything.
func (s *MenuService) PreviewMenu(raw string) []menutext.Category {
	return menutext.Parse(raw)
}

// CreateMenu parses raw and stores the menu with its items flattened in
// source order.
func (s *MenuService) CreateMenu(ctx context.Context, menuDate time.Time, raw string, isClosed bool, photoID *int64) (*domain.Menu, error) {
	flat := menutext.Flatten(menutext.Parse(raw))
	if len(flat) == 0 {
		return nil, ErrInvalidMenu
	}

	items := make([]domain.MenuItem, 0, len(flat))
	for _, f := range flat {
		items = append(items, domain.MenuItem{
			Category: f.Category,
			Name:     f.Item.Name,
			Price:    menutext.ParsePrice(f.Item.Price),
		})
	}

	menu, err := s.menuStore.Create(ctx, menuDate, isClosed, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu: %w", err)
	}

	if err := s.itemStore.CreateBatch(ctx, menu.ID, items); err != nil {
		if delErr := s.menuStore.Delete(ctx, menu.ID); delErr != nil {
			s.logger.Error("failed to roll back menu after item error", "menu_id", menu.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to store menu items: %w", err)
	}

	s.logger.Info("menu created", "menu_id", menu.ID, "date", menuDate.Format(store.DateLayout), "items", len(items))
	return menu, nil
}

// MenuSummary is a menu with counts for list rendering.
type MenuSummary struct {
	*domain.Menu
	ItemCount  int
	OrderCount int
}

func (s *MenuService) ListMenus(ctx context.Context) ([]*MenuSummary, error) {
	menus, err := s.menuStore.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*MenuSummary, 0, len(menus))
	for _, menu := range menus {
		items, err := s.itemStore.ListByMenuID(ctx, menu.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list items for menu %d: %w", menu.ID, err)
		}
		orders, err := s.orderStore.ListByMenuID(ctx, menu.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders for menu %d: %w", menu.ID, err)
		}
		summaries = append(summaries, &MenuSummary{Menu: menu, ItemCount: len(items), OrderCount: len(orders)})
	}
	return summaries, nil
}

// MenuCategory is a category of stored items, ready for the order form.
type MenuCategory = menutext.Section[*domain.MenuItem]

type MenuView struct {
	*domain.Menu
	Categories []MenuCategory
}

// ItemCount returns the number of items across all categories.
func (v *MenuView) ItemCount() int {
	n := 0
	for _, c := range v.Categories {
		n += len(c.Items)
	}
	return n
}

func (s *MenuService) GetMenu(ctx context.Context, menuID int64) (*MenuView, error) {
	menu, err := s.requireMenu(ctx, menuID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemStore.ListByMenuID(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &MenuView{Menu: menu, Categories: menutext.GroupBy(items, itemCategory)}, nil
}

func itemCategory(it *domain.MenuItem) string {
	return it.Category
}

// MenuText rebuilds the parsed categories of a stored menu in the shape the
// parser produces, for JSON export.
func (s *MenuService) MenuText(ctx context.Context, menuID int64) ([]menutext.Category, error) {
	if _, err := s.requireMenu(ctx, menuID); err != nil {
		return nil, err
	}

	items, err := s.itemStore.ListByMenuID(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	flat := make([]menutext.FlatItem, 0, len(items))
	for i, it := range items {
		flat = append(flat, menutext.FlatItem{
			Category: it.Category,
			Item: menutext.Item{
				ID:    strconv.Itoa(i + 1),
				Name:  it.Name,
				Price: menutext.FormatPrice(it.Price),
			},
		})
	}
	return menutext.Group(flat), nil
}

func (s *MenuService) SetMenuClosed(ctx context.Context, menuID int64, closed bool) error {
	if err := s.menuStore.SetClosed(ctx, menuID, closed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMenuNotFound
		}
		return fmt.Errorf("failed to update menu: %w", err)
	}
	s.logger.Info("menu status changed", "menu_id", menuID, "closed", closed)
	return nil
}

// DeleteMenu removes the menu with its items and orders, then the screenshot
// it was transcribed from, if any.
func (s *MenuService) DeleteMenu(ctx context.Context, menuID int64) error {
	menu, err := s.requireMenu(ctx, menuID)
	if err != nil {
		return err
	}

	if err := s.menuStore.Delete(ctx, menuID); err != nil {
		return fmt.Errorf("failed to delete menu: %w", err)
	}

	if menu.PhotoID != nil {
		s.deletePhoto(ctx, *menu.PhotoID)
	}
	return nil
}

// deletePhoto removes a photo record and its file. Failures are logged only;
// the owning menu is already gone.
func (s *MenuService) deletePhoto(ctx context.Context, photoID int64) {
	photo, err := s.photoStore.GetByID(ctx, photoID)
	if err != nil || photo == nil {
		if err != nil {
			s.logger.Error("failed to look up photo", "photo_id", photoID, "error", err)
		}
		return
	}
	if err := s.photoStore.Delete(ctx, photoID); err != nil {
		s.logger.Error("failed to delete photo record", "photo_id", photoID, "error", err)
	}
	if err := s.photoStg.Delete(ctx, photo.StorageKey); err != nil {
		s.logger.Error("failed to delete photo file", "storage_key", photo.StorageKey, "error", err)
	}
}

// TranscribePhoto reads the menu text off a screenshot and keeps the image so
// the menu created from the text can link back to it.
func (s *MenuService) TranscribePhoto(ctx context.Context, imageData []byte, mimeType string) (string, *domain.Photo, error) {
	if s.transcriber == nil {
		return "", nil, ErrNoTranscriber
	}
	s.logger.Info("transcription started", "mime_type", mimeType, "bytes", len(imageData))

	result, err := s.transcriber.Transcribe(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return "", nil, fmt.Errorf("failed to transcribe image: %w", err)
	}
	s.logger.Info("transcription complete", "chars", len(result.Text))

	storageKey, err := s.photoStg.Save(ctx, "menu", mimeType, bytes.NewReader(imageData))
	if err != nil {
		return "", nil, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "storage_key", storageKey)

	photo, err := s.photoStore.Create(ctx, storageKey, mimeType)
	if err != nil {
		_ = s.photoStg.Delete(ctx, storageKey)
		return "", nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	return result.Text, photo, nil
}

// GetMenuPhoto opens the screenshot attached to a menu. The caller must close
// the returned reader.
func (s *MenuService) GetMenuPhoto(ctx context.Context, menuID int64) (io.ReadCloser, string, error) {
	menu, err := s.requireMenu(ctx, menuID)
	if err != nil {
		return nil, "", err
	}
	if menu.PhotoID == nil {
		return nil, "", photostore.ErrNotFound
	}

	photo, err := s.photoStore.GetByID(ctx, *menu.PhotoID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get photo: %w", err)
	}
	if photo == nil {
		return nil, "", photostore.ErrNotFound
	}

	return s.photoStg.Get(ctx, photo.StorageKey)
}

// OrderRequest is a customer's order as submitted from the order page.
// Quantities is keyed by menu item ID.
type OrderRequest struct {
	CustomerName string
	Quantities   map[int64]int
	IsDelivery   bool
	Address      string
	Phone        string
	Remarks      string
}

func invalidOrder(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

// PlaceOrder validates req against the menu and stores it. Prices are taken
// from the stored menu; the delivery fee is added to the total for delivery
// orders.
func (s *MenuService) PlaceOrder(ctx context.Context, menuID int64, req OrderRequest) (*domain.Order, error) {
	menu, err := s.requireMenu(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if menu.IsClosed {
		return nil, ErrMenuClosed
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, invalidOrder("name is required")
	}
	address := strings.TrimSpace(req.Address)
	phone := strings.TrimSpace(req.Phone)
	if req.IsDelivery && (address == "" || phone == "") {
		return nil, invalidOrder("delivery address and phone number are required for delivery")
	}
	if !req.IsDelivery {
		address = ""
	}

	items, err := s.itemStore.ListByMenuID(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	known := make(map[int64]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	for id, qty := range req.Quantities {
		if qty < 0 {
			return nil, invalidOrder("quantity for item %d cannot be negative", id)
		}
		if qty > 0 && !known[id] {
			return nil, invalidOrder("item %d is not on this menu", id)
		}
	}

	total := decimal.Zero
	var details []*domain.OrderDetail
	for _, it := range items {
		qty := req.Quantities[it.ID]
		if qty <= 0 {
			continue
		}
		details = append(details, &domain.OrderDetail{
			ItemName: it.Name,
			Price:    decimal.NewNullDecimal(it.Price),
			Quantity: qty,
		})
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	if len(details) == 0 {
		return nil, invalidOrder("select at least one item")
	}
	if req.IsDelivery {
		total = total.Add(s.deliveryFee)
	}

	order, err := s.orderStore.Create(ctx, &domain.Order{
		MenuID:          menuID,
		CustomerName:    name,
		Details:         details,
		IsDelivery:      req.IsDelivery,
		DeliveryAddress: address,
		PhoneNumber:     phone,
		Remarks:         strings.TrimSpace(req.Remarks),
		TotalAmount:     decimal.NewNullDecimal(total),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order placed", "menu_id", menuID, "order_id", order.ID, "items", len(details), "total", total.StringFixed(2))
	return order, nil
}

// ListOrders returns the orders for a menu in the order they were placed.
func (s *MenuService) ListOrders(ctx context.Context, menuID int64) ([]*domain.Order, error) {
	if _, err := s.requireMenu(ctx, menuID); err != nil {
		return nil, err
	}
	return s.orderStore.ListByMenuID(ctx, menuID)
}

func (s *MenuService) SetOrderPaid(ctx context.Context, orderID int64, paid bool) (*domain.Order, error) {
	if err := s.orderStore.SetPaid(ctx, orderID, paid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return s.orderStore.GetByID(ctx, orderID)
}

func (s *MenuService) DeleteOrder(ctx context.Context, orderID int64) error {
	if err := s.orderStore.Delete(ctx, orderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// OrderSummary renders every order of a menu as a chat message.
func (s *MenuService) OrderSummary(ctx context.Context, menuID int64) (string, error) {
	menu, err := s.requireMenu(ctx, menuID)
	if err != nil {
		return "", err
	}

	orders, err := s.orderStore.ListByMenuID(ctx, menuID)
	if err != nil {
		return "", fmt.Errorf("failed to list orders: %w", err)
	}

	return ordertext.Format(orders, menu.MenuDate), nil
}

func (s *MenuService) requireMenu(ctx context.Context, menuID int64) (*domain.Menu, error) {
	menu, err := s.menuStore.GetByID(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}
	if menu == nil {
		return nil, ErrMenuNotFound
	}
	return menu, nil
}
