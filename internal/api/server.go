// Package api is presentation glue: a thin chi router translating HTTP
// requests into reconciliation-engine calls. The engine itself defines no
// wire protocol; everything here could be swapped for another front end.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skycole768/RoommateShopping/internal/auth"
	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/service"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// Server wires the engine services into an HTTP API.
type Server struct {
	catalog  *service.CatalogService
	basket   *service.BasketService
	checkout *service.CheckoutService
	returns  *service.ReturnService
	price    *service.PriceService
	feed     *service.Feed
	taxRate  decimal.Decimal // applied when a checkout request names none
	logger   *logrus.Logger
	router   chi.Router
}

// NewServer creates a Server and registers all routes.
func NewServer(
	catalog *service.CatalogService,
	basket *service.BasketService,
	checkout *service.CheckoutService,
	returns *service.ReturnService,
	price *service.PriceService,
	feed *service.Feed,
	defaultTaxRate decimal.Decimal,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		catalog:  catalog,
		basket:   basket,
		checkout: checkout,
		returns:  returns,
		price:    price,
		feed:     feed,
		taxRate:  defaultTaxRate,
		logger:   logger,
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identityMiddleware)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Post("/", s.handleAddItem)
			r.Put("/{id}", s.handleUpdateItem)
			r.Delete("/{id}", s.handleRemoveItem)
		})

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", s.handleListBasket)
			r.Post("/items", s.handleMoveToBasket)
			r.Post("/items/{id}/unstage", s.handleMoveToList)
			r.Post("/checkout", s.handleCheckout)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", s.handleListPurchases)
			r.Post("/{id}/returns", s.handleReturn)
			r.Put("/{id}/amount", s.handleEditAmount)
		})
	})

	s.router = r
}

// identityMiddleware stamps the caller's user id into the request context.
// Real session handling lives outside this repository; the engine only
// needs the opaque id.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			s.respondError(w, http.StatusUnauthorized, auth.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// ----- items -----

type itemRequest struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.ListItems(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, items)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	item, err := s.catalog.AddItem(r.Context(), req.Name, req.Quantity, req.Price)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var item domain.ShoppingItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	item.ID = chi.URLParam(r, "id")
	if err := s.catalog.UpdateItem(r.Context(), item); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ----- basket -----

func (s *Server) handleListBasket(w http.ResponseWriter, r *http.Request) {
	items, err := s.basket.ListBasket(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, items)
}

func (s *Server) handleMoveToBasket(w http.ResponseWriter, r *http.Request) {
	var item domain.ShoppingItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.basket.MoveToBasket(r.Context(), item); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "moved to basket"})
}

func (s *Server) handleMoveToList(w http.ResponseWriter, r *http.Request) {
	var item domain.ShoppingItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	item.ID = chi.URLParam(r, "id")
	if err := s.basket.MoveToShoppingList(r.Context(), item); err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "moved to shopping list"})
}

type checkoutRequest struct {
	TaxRate *decimal.Decimal `json:"tax_rate,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	// The payload is optional; an empty body means the default tax rate.
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	taxRate := s.taxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	items, err := s.basket.ListBasket(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	purchase, err := s.checkout.Checkout(r.Context(), items, taxRate)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, purchase)
}

// ----- purchases -----

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.feed.Purchases(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, purchases)
}

type returnRequest struct {
	ItemIDs []string `json:"item_ids"`
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	purchase, err := s.feed.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	remaining, err := s.returns.ReturnItems(r.Context(), *purchase, req.ItemIDs)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	if remaining == nil {
		s.respond(w, http.StatusOK, map[string]string{"status": "purchase deleted"})
		return
	}
	s.respond(w, http.StatusOK, remaining)
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleEditAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	purchase, err := s.feed.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	updated, err := s.price.EditAmount(r.Context(), *purchase, req.Amount)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

// ----- responses -----

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("write response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, errorResponse{Error: err.Error(), Kind: errorKind(err)})
}

// respondEngineError maps engine errors onto HTTP statuses. Partial
// failures get their own status so clients know to reload and reconcile
// instead of retrying blindly.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case isValidation(err):
		s.respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, auth.ErrNotAuthenticated):
		s.respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err)
	case service.IsPartial(err):
		s.logger.Warnf("partial failure: %v", err)
		s.respondError(w, http.StatusConflict, err)
	default:
		s.logger.Errorf("store failure: %v", err)
		s.respondError(w, http.StatusBadGateway, err)
	}
}

func errorKind(err error) string {
	switch {
	case isValidation(err):
		return "validation"
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "unauthenticated"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case service.IsPartial(err):
		return "partial_failure"
	default:
		return "store_error"
	}
}

func isValidation(err error) bool {
	return errors.Is(err, service.ErrEmptyBasket) ||
		errors.Is(err, service.ErrEmptySelection) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrInvalidItem) ||
		errors.Is(err, service.ErrInvalidTaxRate)
}
