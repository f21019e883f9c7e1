package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/menuorder/internal/ordertext"
	"github.com/vbonduro/menuorder/internal/service"
)

const (
	maxCustomerNameLen = 100
	maxFieldLen        = 500
	// qtyFieldPrefix prefixes the quantity inputs on the order form, one per
	// menu item, e.g. qty_12.
	qtyFieldPrefix = "qty_"
)

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	menuID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	req := service.OrderRequest{
		CustomerName: r.PostFormValue("name"),
		Quantities:   make(map[int64]int),
		IsDelivery:   r.PostFormValue("is_delivery") != "",
		Address:      r.PostFormValue("address"),
		Phone:        r.PostFormValue("phone"),
		Remarks:      r.PostFormValue("remarks"),
	}
	if len(req.CustomerName) > maxCustomerNameLen {
		http.Error(w, "name too long", http.StatusBadRequest)
		return
	}
	for _, v := range []string{req.Address, req.Phone, req.Remarks} {
		if len(v) > maxFieldLen {
			http.Error(w, "field too long", http.StatusBadRequest)
			return
		}
	}

	for key, values := range r.PostForm {
		idStr, ok := strings.CutPrefix(key, qtyFieldPrefix)
		if !ok || len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		itemID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "invalid item id", http.StatusBadRequest)
			return
		}
		qty, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			http.Error(w, "invalid quantity", http.StatusBadRequest)
			return
		}
		req.Quantities[itemID] = qty
	}

	order, err := s.service.PlaceOrder(r.Context(), menuID, req)
	if err != nil {
		s.writeServiceError(w, r, err, "place order")
		return
	}

	if err := s.renderPartial(w, "partials/order_confirmation.html", order); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	menuID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	view, err := s.service.GetMenu(r.Context(), menuID)
	if err != nil {
		s.writeServiceError(w, r, err, "get menu")
		return
	}
	orders, err := s.service.ListOrders(r.Context(), menuID)
	if err != nil {
		s.writeServiceError(w, r, err, "list orders")
		return
	}

	if err := s.renderPage(w,
		map[string]any{
			"Menu":      view,
			"Orders":    orders,
			"Total":     ordertext.TotalCollected(orders),
			"ActiveNav": "menus",
		},
		"base.html", "pages/orders.html", "partials/order_row.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleOrderSummary returns the order list as plain text for pasting into a
// chat group.
func (s *Server) handleOrderSummary(w http.ResponseWriter, r *http.Request) {
	menuID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	summary, err := s.service.OrderSummary(r.Context(), menuID)
	if err != nil {
		s.writeServiceError(w, r, err, "build order summary")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(summary)); err != nil {
		s.logger.Error("write summary failed", "menu_id", menuID, "error", err)
	}
}

func (s *Server) handleSetOrderPaid(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	paid, err := strconv.ParseBool(r.FormValue("paid"))
	if err != nil {
		http.Error(w, "paid must be true or false", http.StatusBadRequest)
		return
	}

	order, err := s.service.SetOrderPaid(r.Context(), orderID, paid)
	if err != nil {
		s.writeServiceError(w, r, err, "update order")
		return
	}

	if err := s.renderPartial(w, "partials/order_row.html", order); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteOrder(r.Context(), orderID); err != nil {
		s.writeServiceError(w, r, err, "delete order")
		return
	}

	w.WriteHeader(http.StatusOK)
}
