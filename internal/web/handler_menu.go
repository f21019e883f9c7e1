package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/menuorder/internal/menutext"
	"github.com/vbonduro/menuorder/internal/service"
	"github.com/vbonduro/menuorder/internal/store"
)

const maxMenuTextLen = 20000

func (s *Server) handleListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := s.service.ListMenus(r.Context())
	if err != nil {
		http.Error(w, "failed to list menus", http.StatusInternalServerError)
		s.logger.Error("list menus failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Menus": menus, "ActiveNav": "menus"},
		"base.html", "pages/menus.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleNewMenu(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w,
		map[string]any{
			"Today":     time.Now().Format(store.DateLayout),
			"ActiveNav": "new",
			"Text":      "",
			"PhotoID":   int64(0),
		},
		"base.html", "pages/menu_new.html", "partials/menu_text.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handlePreviewMenu renders the parsed categories for the text typed so far.
func (s *Server) handlePreviewMenu(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("menu_text")
	if len(raw) > maxMenuTextLen {
		http.Error(w, "menu text too long", http.StatusBadRequest)
		return
	}

	if err := s.renderPartial(w, "partials/menu_preview.html", s.service.PreviewMenu(raw)); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("menu_text")
	if strings.TrimSpace(raw) == "" {
		http.Error(w, "menu text required", http.StatusBadRequest)
		return
	}
	if len(raw) > maxMenuTextLen {
		http.Error(w, "menu text too long", http.StatusBadRequest)
		return
	}

	menuDate, err := parseMenuDate(r.FormValue("menu_date"))
	if err != nil {
		http.Error(w, "invalid menu date", http.StatusBadRequest)
		return
	}

	var photoID *int64
	if v := r.FormValue("photo_id"); v != "" && v != "0" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid photo id", http.StatusBadRequest)
			return
		}
		photoID = &id
	}

	menu, err := s.service.CreateMenu(r.Context(), menuDate, raw, r.FormValue("is_closed") != "", photoID)
	if errors.Is(err, service.ErrInvalidMenu) {
		http.Error(w, "no menu items found in the text", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "failed to create menu", http.StatusInternalServerError)
		s.logger.Error("create menu failed", "error", err)
		return
	}

	location := "/menus/" + strconv.FormatInt(menu.ID, 10)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// parseMenuDate reads a YYYY-MM-DD form value. An empty value means today.
func parseMenuDate(v string) (time.Time, error) {
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(store.DateLayout, v)
}

func (s *Server) handleGetMenu(w http.ResponseWriter, r *http.Request) {
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

	if err := s.renderPage(w,
		map[string]any{
			"Menu":        view,
			"DeliveryFee": s.service.DeliveryFee(),
			"ActiveNav":   "menus",
		},
		"base.html", "pages/menu_order.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleExportMenu returns the stored menu in the parser's JSON shape.
func (s *Server) handleExportMenu(w http.ResponseWriter, r *http.Request) {
	menuID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	categories, err := s.service.MenuText(r.Context(), menuID)
	if err != nil {
		s.writeServiceError(w, r, err, "export menu")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Categories []menutext.Category `json:"categories"`
		ItemCount  int                 `json:"item_count"`
	}{categories, menutext.CountItems(categories)}); err != nil {
		s.logger.Error("write export failed", "menu_id", menuID, "error", err)
	}
}

func (s *Server) handleSetMenuClosed(closed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menuID, err := parseID(r)
		if err != nil {
			http.Error(w, "invalid menu id", http.StatusBadRequest)
			return
		}

		if err := s.service.SetMenuClosed(r.Context(), menuID, closed); err != nil {
			s.writeServiceError(w, r, err, "set menu closed")
			return
		}

		location := "/menus/" + strconv.FormatInt(menuID, 10)
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleDeleteMenu(w http.ResponseWriter, r *http.Request) {
	menuID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteMenu(r.Context(), menuID); err != nil {
		s.writeServiceError(w, r, err, "delete menu")
		return
	}

	w.Header().Set("HX-Redirect", "/menus")
	w.WriteHeader(http.StatusOK)
}

// writeServiceError maps service errors onto HTTP status codes. Unexpected
// errors are logged and reported as 500 without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, service.ErrMenuNotFound), errors.Is(err, service.ErrOrderNotFound):
		http.NotFound(w, r)
	case errors.Is(err, service.ErrMenuClosed):
		http.Error(w, "this menu is closed for orders", http.StatusConflict)
	case errors.Is(err, service.ErrInvalidOrder):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "failed to "+action, http.StatusInternalServerError)
		s.logger.Error(action+" failed", "path", r.URL.Path, "error", err)
	}
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
