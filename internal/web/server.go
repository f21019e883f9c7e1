package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/menuorder/internal/ordertext"
	"github.com/vbonduro/menuorder/internal/service"
	"github.com/vbonduro/menuorder/internal/store"
)

type Server struct {
	service   *service.MenuService
	templates embed.FS
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(svc *service.MenuService, tmpl embed.FS, logger *slog.Logger) *Server {
	s := &Server{
		service:   svc,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"categoryIcon": categoryIcon,
			"money":        money,
			"malayDate":    ordertext.FormatDate,
			"isoDate":      func(t time.Time) string { return t.Format(store.DateLayout) },
			"inc":          func(i int) int { return i + 1 },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/menus", http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /menus", s.handleListMenus)
	s.mux.HandleFunc("GET /menus/new", s.handleNewMenu)
	s.mux.HandleFunc("POST /menus/preview", s.handlePreviewMenu)
	s.mux.HandleFunc("POST /menus/transcribe", s.handleTranscribe)
	s.mux.HandleFunc("POST /menus", s.handleCreateMenu)
	s.mux.HandleFunc("GET /menus/{id}", s.handleGetMenu)
	s.mux.HandleFunc("DELETE /menus/{id}", s.handleDeleteMenu)
	s.mux.HandleFunc("POST /menus/{id}/close", s.handleSetMenuClosed(true))
	s.mux.HandleFunc("POST /menus/{id}/open", s.handleSetMenuClosed(false))
	s.mux.HandleFunc("GET /menus/{id}/photo", s.handleGetPhoto)
	s.mux.HandleFunc("GET /menus/{id}/export", s.handleExportMenu)
	s.mux.HandleFunc("POST /menus/{id}/orders", s.handlePlaceOrder)
	s.mux.HandleFunc("GET /menus/{id}/orders", s.handleListOrders)
	s.mux.HandleFunc("GET /menus/{id}/summary", s.handleOrderSummary)
	s.mux.HandleFunc("POST /orders/{id}/paid", s.handleSetOrderPaid)
	s.mux.HandleFunc("DELETE /orders/{id}", s.handleDeleteOrder)
}

// securityHeaders sets the browser security headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// NewHTTPServer returns an http.Server for addr with the timeouts the app runs
// with. Transcription requests can take a while, hence the long write timeout.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// ParseFS registers both the file-basename template and any {{define}} blocks.
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			return t.Execute(w, data)
		}
	}
	return tmpl.ExecuteTemplate(w, basename, data)
}

// money renders an amount with two decimals. Null amounts render empty.
func money(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.StringFixed(2)
	case decimal.NullDecimal:
		if !d.Valid {
			return ""
		}
		return d.Decimal.StringFixed(2)
	default:
		return ""
	}
}

// categoryIcon returns an emoji based on keywords in a menu category name.
func categoryIcon(name string) string {
	lower := strings.ToLower(name)
	switch {
	case contains(lower, "air", "minum", "drink", "teh", "kopi"):
		return "🥤"
	case contains(lower, "kuih", "dessert", "manis", "pencuci"):
		return "🍰"
	case contains(lower, "mee", "mi ", "noodle", "laksa"):
		return "🍜"
	case contains(lower, "lauk", "ayam", "ikan", "daging", "sotong"):
		return "🍗"
	case contains(lower, "nasi", "rice"):
		return "🍚"
	default:
		return "🍽️"
	}
}

func contains(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
