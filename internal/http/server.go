// Package http wires the fragment handlers to a chi router and renders
// the embedded templates.
package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"shoplist/internal/core"
	appweb "shoplist/web"
)

// ItemStore is the slice of the repository the item handlers need.
type ItemStore interface {
	ListItems(ctx context.Context) ([]core.Item, error)
	AddItem(ctx context.Context, it core.Item) error
	UpdateField(ctx context.Context, id int64, field, raw string) error
	GetField(ctx context.Context, id int64, field string) (string, error)
	ToggleFound(ctx context.Context, id int64) error
	RemoveItem(ctx context.Context, id int64) error
	TotalCents(ctx context.Context) (int64, error)
}

// BudgetStore is the slice of the repository the budget handlers need.
type BudgetStore interface {
	CurrentBudgetCents(ctx context.Context) (int64, error)
	SetBudget(ctx context.Context, cents int64) error
}

type Server struct {
	http.Server
	templates *template.Template
	items     ItemStore
	budgets   BudgetStore
	logger    *slog.Logger
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, items ItemStore, budgets BudgetStore) *Server {
	r := chi.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: r,
		},
		items:   items,
		budgets: budgets,
		logger:  slog.Default(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Get("/", s.handleIndex)
	r.Get("/new_item_form", s.handleNewItemForm)
	r.Get("/close_modal", s.handleCloseModal)
	r.Post("/add_item", s.handleAddItem)

	r.Get("/edit/budget/amount", s.handleEditBudget)
	r.Post("/update/budget/amount", s.handleUpdateBudget)
	r.Post("/set_budget", s.handleSetBudget)

	r.Post("/toggle_found/{itemID}", s.handleToggleFound)
	r.Post("/remove_item/{itemID}", s.handleRemoveItem)
	r.Get("/edit/{itemID}/{field}", s.handleEditField)
	r.Post("/update/{itemID}/{field}", s.handleUpdateField)

	return s
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
