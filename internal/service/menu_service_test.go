package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/menuorder/internal/db"
	"github.com/vbonduro/menuorder/internal/photostore"
	"github.com/vbonduro/menuorder/internal/store"
	"github.com/vbonduro/menuorder/internal/transcribe"
)

const testMenu = `Menu daily, order before 10am
NASI
====
1. Nasi Lemak RM 8.50
2. Nasi Goreng RM 7
AIR
====
3. Teh Tarik RM 2.00
`

// stubTranscriber is a minimal Transcriber for tests.
type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ io.Reader, _ string) (*transcribe.Transcription, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &transcribe.Transcription{Text: s.text, RawResponse: s.text}, nil
}

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	saved   map[string][]byte
	saveErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	key := prefix + "_photo.jpg"
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := s.saved[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	delete(s.saved, key)
	return nil
}

func newTestService(t *testing.T, tr transcribe.Transcriber) (*MenuService, *stubPhotoStore) {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	photoStg := newStubPhotoStore()
	svc := NewMenuService(
		store.NewMenuStore(d),
		store.NewMenuItemStore(d),
		store.NewOrderStore(d),
		store.NewPhotoStore(d),
		photoStg,
		tr,
		decimal.RequireFromString("3.00"),
		slog.Default(),
	)
	return svc, photoStg
}

func menuDate() time.Time {
	return time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
}

func createTestMenu(t *testing.T, svc *MenuService) *MenuView {
	t.Helper()
	ctx := context.Background()
	menu, err := svc.CreateMenu(ctx, menuDate(), testMenu, false, nil)
	require.NoError(t, err)
	view, err := svc.GetMenu(ctx, menu.ID)
	require.NoError(t, err)
	return view
}

// itemID finds a menu item by name in a view.
func itemID(t *testing.T, view *MenuView, name string) int64 {
	t.Helper()
	for _, c := range view.Categories {
		for _, it := range c.Items {
			if it.Name == name {
				return it.ID
			}
		}
	}
	t.Fatalf("item %q not on menu", name)
	return 0
}

func TestMenuServicePreviewMenu(t *testing.T) {
	svc, _ := newTestService(t, nil)

	categories := svc.PreviewMenu(testMenu)
	require.Len(t, categories, 2)
	assert.Equal(t, "NASI", categories[0].Name)
	assert.Equal(t, "RM 7.00", categories[0].Items[1].Price)
}

func TestMenuServiceCreateAndGetMenu(t *testing.T) {
	svc, _ := newTestService(t, nil)

	view := createTestMenu(t, svc)

	assert.Equal(t, menuDate(), view.MenuDate)
	assert.False(t, view.IsClosed)
	assert.Equal(t, 3, view.ItemCount())
	require.Len(t, view.Categories, 2)
	assert.Equal(t, "NASI", view.Categories[0].Name)
	assert.Equal(t, "AIR", view.Categories[1].Name)
	assert.Equal(t, "Nasi Lemak", view.Categories[0].Items[0].Name)
	assert.True(t, decimal.RequireFromString("8.5").Equal(view.Categories[0].Items[0].Price))
	assert.True(t, decimal.RequireFromString("7").Equal(view.Categories[0].Items[1].Price))
}

func TestMenuServiceCreateMenu_NoItems(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateMenu(ctx, menuDate(), "Menu daily\nno prices here", false, nil)
	assert.ErrorIs(t, err, ErrInvalidMenu)

	menus, err := svc.ListMenus(ctx)
	require.NoError(t, err)
	assert.Empty(t, menus)
}

func TestMenuServiceGetMenu_NotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.GetMenu(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestMenuServiceMenuText(t *testing.T) {
	svc, _ := newTestService(t, nil)
	view := createTestMenu(t, svc)

	categories, err := svc.MenuText(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "AIR", categories[1].Name)
	assert.Equal(t, "Teh Tarik", categories[1].Items[0].Name)
	assert.Equal(t, "RM 2.00", categories[1].Items[0].Price)
	assert.Equal(t, "3", categories[1].Items[0].ID)
}

func TestMenuServiceListMenus(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	view := createTestMenu(t, svc)

	_, err := svc.PlaceOrder(ctx, view.ID, OrderRequest{
		CustomerName: "Ali",
		Quantities:   map[int64]int{itemID(t, view, "Teh Tarik"): 1},
	})
	require.NoError(t, err)

	menus, err := svc.ListMenus(ctx)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, 3, menus[0].ItemCount)
	assert.Equal(t, 1, menus[0].OrderCount)
}

func TestMenuServiceSetMenuClosed(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	view := createTestMenu(t, svc)

	require.NoError(t, svc.SetMenuClosed(ctx, view.ID, true))
	updated, err := svc.GetMenu(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsClosed)

	assert.ErrorIs(t, svc.SetMenuClosed(ctx, 99999, true), ErrMenuNotFound)
}

func TestMenuServiceDeleteMenu_RemovesPhoto(t *testing.T) {
	svc, photoStg := newTestService(t, &stubTranscriber{text: testMenu})
	ctx := context.Background()

	text, photo, err := svc.TranscribePhoto(ctx, []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	menu, err := svc.CreateMenu(ctx, menuDate(), text, false, &photo.ID)
	require.NoError(t, err)
	require.Len(t, photoStg.saved, 1)

	require.NoError(t, svc.DeleteMenu(ctx, menu.ID))

	_, err = svc.GetMenu(ctx, menu.ID)
	assert.ErrorIs(t, err, ErrMenuNotFound)
	assert.Empty(t, photoStg.saved)

	assert.ErrorIs(t, svc.DeleteMenu(ctx, menu.ID), ErrMenuNotFound)
}

func TestMenuServiceTranscribePhoto(t *testing.T) {
	svc, photoStg := newTestService(t, &stubTranscriber{text: "1. Nasi Lemak RM 8.50"})
	ctx := context.Background()

	text, photo, err := svc.TranscribePhoto(ctx, []byte{0xFF, 0xD8, 0xFF}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "1. Nasi Lemak RM 8.50", text)
	require.NotNil(t, photo)
	assert.Equal(t, "image/jpeg", photo.MimeType)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, photoStg.saved[photo.StorageKey])

	menu, err := svc.CreateMenu(ctx, menuDate(), text, false, &photo.ID)
	require.NoError(t, err)

	rc, mimeType, err := svc.GetMenuPhoto(ctx, menu.ID)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestMenuServiceTranscribePhoto_NoTranscriber(t *testing.T) {
	svc, photoStg := newTestService(t, nil)

	_, _, err := svc.TranscribePhoto(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	assert.ErrorIs(t, err, ErrNoTranscriber)
	assert.Empty(t, photoStg.saved)
}

func TestMenuServiceTranscribePhoto_BackendError(t *testing.T) {
	backendErr := errors.New("model unavailable")
	svc, photoStg := newTestService(t, &stubTranscriber{err: backendErr})

	_, _, err := svc.TranscribePhoto(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	assert.ErrorIs(t, err, backendErr)
	assert.Empty(t, photoStg.saved, "nothing is stored when transcription fails")
}

func TestMenuServiceTranscribePhoto_SaveError(t *testing.T) {
	svc, photoStg := newTestService(t, &stubTranscriber{text: "menu"})
	photoStg.saveErr = errors.New("disk full")

	_, _, err := svc.TranscribePhoto(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	assert.Error(t, err)
}

func TestMenuServiceGetMenuPhoto_NoPhoto(t *testing.T) {
	svc, _ := newTestService(t, nil)
	view := createTestMenu(t, svc)

	_, _, err := svc.GetMenuPhoto(context.Background(), view.ID)
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestMenuServicePlaceOrder(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	view := createTestMenu(t, svc)

	order, err := svc.PlaceOrder(ctx, view.ID, OrderRequest{
		CustomerName: "  Ali  ",
		Quantities: map[int64]int{
			itemID(t, view, "Teh Tarik"):   2,
			itemID(t, view, "Nasi Lemak"):  1,
			itemID(t, view, "Nasi Goreng"): 0,
		},
		Address: "ignored for pickup",
		Remarks: "Less sugar",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ali", order.CustomerName)
	assert.False(t, order.IsDelivery)
	assert.Empty(t, order.DeliveryAddress)
	assert.Equal(t, "Less sugar", order.Remarks)
	require.True(t, order.TotalAmount.Valid)
	assert.True(t, decimal.RequireFromString("12.50").Equal(order.TotalAmount.Decimal))

	// Details follow menu order, not map order.
	require.Len(t, order.Details, 2)
	assert.Equal(t, "Nasi Lemak", order.Details[0].ItemName)
	assert.Equal(t, 1, order.Details[0].Quantity)
	assert.Equal(t, "Teh Tarik", order.Details[1].ItemName)
	assert.Equal(t, 2, order.Details[1].Quantity)
	assert.True(t, decimal.RequireFromString("2").Equal(order.Details[1].Price.Decimal))
}

func TestMenuServicePlaceOrder_DeliveryAddsFee(t *testing.T) {
	svc, _ := newTestService(t, nil)
	view := createTestMenu(t, svc)

	order, err := svc.PlaceOrder(context.Background(), view.ID, OrderRequest{
		CustomerName: "Siti",
		Quantities:   map[int64]int{itemID(t, view, "Nasi Goreng"): 2},
		IsDelivery:   true,
		Address:      "12 Jalan Mawar",
		Phone:        "0123456789",
	})
	require.NoError(t, err)

	assert.True(t, order.IsDelivery)
	assert.Equal(t, "12 Jalan Mawar", order.DeliveryAddress)
	assert.Equal(t, "0123456789", order.PhoneNumber)
	assert.True(t, decimal.RequireFromString("17").Equal(order.TotalAmount.Decimal))
}

func TestMenuServicePlaceOrder_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	view := createTestMenu(t, svc)
	tehTarik := itemID(t, view, "Teh Tarik")

	tests := []struct {
		name string
		req  OrderRequest
		want string
	}{
		{
			name: "missing name",
			req:  OrderRequest{CustomerName: "   ", Quantities: map[int64]int{tehTarik: 1}},
			want: "name",
		},
		{
			name: "no items",
			req:  OrderRequest{CustomerName: "Ali", Quantities: map[int64]int{tehTarik: 0}},
			want: "at least one item",
		},
		{
			name: "negative quantity",
			req:  OrderRequest{CustomerName: "Ali", Quantities: map[int64]int{tehTarik: -1}},
			want: "negative",
		},
		{
			name: "unknown item",
			req:  OrderRequest{CustomerName: "Ali", Quantities: map[int64]int{99999: 1}},
			want: "not on this menu",
		},
		{
			name: "delivery without address",
			req: OrderRequest{
				CustomerName: "Ali", Quantities: map[int64]int{tehTarik: 1},
				IsDelivery: true, Phone: "0123456789",
			},
			want: "delivery",
		},
		{
			name: "delivery without phone",
			req: OrderRequest{
				CustomerName: "Ali", Quantities: map[int64]int{tehTarik: 1},
				IsDelivery: true, Address: "12 Jalan Mawar",
			},
			want: "delivery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), view.ID, tt.req)
			require.ErrorIs(t, err, ErrInvalidOrder)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	orders, err := svc.ListOrders(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMenuServicePlaceOrder_ItemFromAnotherMenu(t *testing.T) {
	svc, _ := newTestService(t, nil)
	first := createTestMenu(t, svc)
	second := createTestMenu(t, svc)

	_, err := svc.PlaceOrder(context.Background(), second.ID, OrderRequest{
		CustomerName: "Ali",
		Quantities:   map[int64]int{itemID(t, first, "Teh Tarik"): 1},
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestMenuServicePlaceOrder_ClosedMenu(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	view := createTestMenu(t, svc)
	require.NoError(t, svc.SetMenuClosed(ctx, view.ID, true))

	_, err := svc.PlaceOrder(ctx, view.ID, OrderRequest{
		CustomerName: "Ali",
		Quantities:   map[int64]int{itemID(t, view, "Teh Tarik"): 1},
	})
	assert.ErrorIs(t, err, ErrMenuClosed)
}

func TestMenuServicePlaceOrder_MenuNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.PlaceOrder(context.Background(), 99999, OrderRequest{CustomerName: "Ali"})
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestMenuServiceSetOrderPaidAndDelete(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	view := createTestMenu(t, svc)

	order, err := svc.PlaceOrder(ctx, view.ID, OrderRequest{
		CustomerName: "Ali",
		Quantities:   map[int64]int{itemID(t, view, "Teh Tarik"): 1},
	})
	require.NoError(t, err)

	paid, err := svc.SetOrderPaid(ctx, order.ID, true)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	_, err = svc.SetOrderPaid(ctx, 99999, true)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	assert.ErrorIs(t, svc.DeleteOrder(ctx, order.ID), ErrOrderNotFound)

	orders, err := svc.ListOrders(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMenuServiceListOrders_MenuNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.ListOrders(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestMenuServiceOrderSummary(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	view := createTestMenu(t, svc)

	summary, err := svc.OrderSummary(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "No orders yet.", summary)

	order, err := svc.PlaceOrder(ctx, view.ID, OrderRequest{
		CustomerName: "Ali",
		Quantities:   map[int64]int{itemID(t, view, "Nasi Lemak"): 1},
		IsDelivery:   true,
		Address:      "12 Jalan Mawar",
		Phone:        "0123456789",
	})
	require.NoError(t, err)
	_, err = svc.SetOrderPaid(ctx, order.ID, true)
	require.NoError(t, err)

	summary, err = svc.OrderSummary(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(summary, "📋 *Order List - Jumaat, 16 Oktober 2026*\n"))
	assert.Contains(t, summary, "💰 *Total Collected: RM 11.50*")
	assert.Contains(t, summary, "1. *Ali* (RM 11.50) 🚚")
	assert.Contains(t, summary, "   📍 12 Jalan Mawar")
	assert.Contains(t, summary, "   ✅ Paid")
}
