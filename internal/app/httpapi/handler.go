// Package httpapi exposes the storefront services over a local REST API for
// the device UI.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	app "github.com/squadbid/storefront/internal/app"
	"github.com/squadbid/storefront/internal/app/domain/cart"
	"github.com/squadbid/storefront/internal/app/domain/product"
	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/app/services/agents"
	authsvc "github.com/squadbid/storefront/internal/app/services/auth"
	"github.com/squadbid/storefront/internal/app/services/catalog"
	checkoutsvc "github.com/squadbid/storefront/internal/app/services/checkout"
	"github.com/squadbid/storefront/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the storefront REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", h.login)
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/auth/logout", h.logout)
	mux.HandleFunc("/auth/session", h.session)
	mux.HandleFunc("/products", h.products)
	mux.HandleFunc("/products/", h.productByID)
	mux.HandleFunc("/product-requests", h.productRequests)
	mux.HandleFunc("/cart", h.cart)
	mux.HandleFunc("/cart/items", h.cartItems)
	mux.HandleFunc("/cart/items/", h.cartItemActions)
	mux.HandleFunc("/checkout", h.checkout)
	mux.HandleFunc("/orders", h.orders)
	mux.HandleFunc("/collection-points", h.collectionPoints)
	mux.HandleFunc("/collection-points/selection", h.selection)
	return mux
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, authsvc.ErrNotCustomer) {
			status = http.StatusForbidden
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload authsvc.RegisterRequest
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Auth.Register(r.Context(), payload); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.app.Auth.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, err := h.app.Auth.Session(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, authsvc.ErrNotAuthenticated) || errors.Is(err, session.ErrExpired) {
			status = http.StatusUnauthorized
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handler) products(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	products, err := h.app.Catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *handler) productByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products"), "/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	p, err := h.app.Catalog.Get(r.Context(), id)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) productRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload product.Request
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Catalog.SubmitRequest(r.Context(), payload); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type cartView struct {
	Items []cart.LineItem `json:"items"`
	Total string          `json:"total"`
}

func (h *handler) cartState() cartView {
	return cartView{
		Items: h.app.Cart.Items(),
		Total: h.app.Cart.Total().String(),
	}
}

func (h *handler) cart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.cartState())
	case http.MethodDelete:
		h.app.Cart.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) cartItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Catalog.Purchasable(r.Context(), payload.ProductID)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			status = http.StatusNotFound
		case errors.Is(err, catalog.ErrProductUnavailable):
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}

	if err := h.app.Cart.AddItem(p.ID, p.Name, payload.Quantity, p.Price, p.ImageURL); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartState())
}

func (h *handler) cartItemActions(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/cart/items"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	productID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.app.Cart.Remove(productID)
		writeJSON(w, http.StatusOK, h.cartState())
		return
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch parts[1] {
	case "increment":
		h.app.Cart.Increment(productID)
	case "decrement":
		h.app.Cart.Decrement(productID)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.cartState())
}

func (h *handler) checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, err := h.app.Checkout.StartCheckout(r.Context())
	if err != nil {
		var partial *checkoutsvc.PartialFailureError
		switch {
		case errors.Is(err, checkoutsvc.ErrCheckoutInFlight):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, checkoutsvc.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, checkoutsvc.ErrCartChanged):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, checkoutsvc.ErrPaymentDeclined):
			writeError(w, http.StatusPaymentRequired, err)
		case errors.As(err, &partial):
			// The customer has been charged. The body carries the journal
			// record so the UI can surface a support reference.
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":        err.Error(),
				"record_id":    partial.RecordID,
				"amount_minor": partial.AmountMinor,
			})
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) orders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	history, err := h.app.Orders.History(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, session.ErrExpired) {
			status = http.StatusUnauthorized
			// The backend rejected the token, so the stored session is dead
			// even if its exp claim says otherwise.
			if expireErr := h.app.Auth.Expire(r.Context()); expireErr != nil {
				writeError(w, http.StatusInternalServerError, expireErr)
				return
			}
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handler) collectionPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	points, err := h.app.Agents.ListPoints(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *handler) selection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sel, err := h.app.Agents.Selection(r.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, sel)

	case http.MethodPut:
		var payload struct {
			PointID string `json:"point_id"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sel, err := h.app.Agents.Select(r.Context(), payload.PointID)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, agents.ErrUnknownPoint) {
				status = http.StatusNotFound
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, sel)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
