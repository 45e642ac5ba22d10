package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/squadbid/storefront/internal/app"
	checkoutsvc "github.com/squadbid/storefront/internal/app/services/checkout"
)

// fakeBackend simulates the merchant platform the storefront talks to.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/merchants/2/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[
			{"id":"p1","name":"Apples","price":"1.50","is_available":true},
			{"id":"p2","name":"Pears","price":"2.00","is_available":false}
		]}`)
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		isCustomer := payload.Email != "staff@example.com"
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      "tok-1",
			"isCustomer": isCustomer,
		})
	})
	mux.HandleFunc("/create-payment-intent", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"clientSecret":"cs_test"}`)
	})
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"order":{"id":"ord-1"}}`)
	})
	mux.HandleFunc("/api/orders/my", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"orders":[{"id":"ord-1","status":"pending"}]}`)
	})
	mux.HandleFunc("/api/collection-points", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"collection_points":[{"id":"cp-1","location_name":"Market Square"}]}`)
	})
	mux.HandleFunc("/api/agent/orders/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	backend := fakeBackend(t)
	application, err := app.New(app.Stores{}, app.Config{
		APIBaseURL: backend.URL,
		MerchantID: 2,
		Presenter: checkoutsvc.PresenterFunc(func(ctx context.Context, clientSecret string, cfg checkoutsvc.SheetConfig) error {
			return nil
		}),
	}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return NewHandler(application)
}

func marshal(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

func do(t *testing.T, handler http.Handler, method, path string, body *bytes.Reader) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestCartFlow(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodPost, "/cart/items", marshal(t, map[string]interface{}{
		"product_id": "p1",
		"quantity":   2,
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var state struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
			Subtotal  string `json:"subtotal"`
		} `json:"items"`
		Total string `json:"total"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].Quantity != 2 || state.Total != "3.00" {
		t.Fatalf("unexpected cart state: %+v", state)
	}

	resp = do(t, handler, http.MethodPost, "/cart/items/p1/increment", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("increment: expected 200, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if state.Total != "4.50" {
		t.Fatalf("expected total 4.50, got %s", state.Total)
	}

	resp = do(t, handler, http.MethodDelete, "/cart/items/p1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(state.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestAddUnavailableProduct(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodPost, "/cart/items", marshal(t, map[string]interface{}{
		"product_id": "p2",
		"quantity":   1,
	}))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unavailable product, got %d", resp.Code)
	}

	resp = do(t, handler, http.MethodPost, "/cart/items", marshal(t, map[string]interface{}{
		"product_id": "missing",
		"quantity":   1,
	}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", resp.Code)
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodPost, "/checkout", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("empty cart checkout: expected 400, got %d", resp.Code)
	}

	resp = do(t, handler, http.MethodPut, "/collection-points/selection", marshal(t, map[string]interface{}{
		"point_id": "cp-1",
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("select point: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(t, handler, http.MethodPost, "/cart/items", marshal(t, map[string]interface{}{
		"product_id": "p1",
		"quantity":   2,
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", resp.Code)
	}

	resp = do(t, handler, http.MethodPost, "/checkout", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		Outcome       string `json:"outcome"`
		OrderID       string `json:"order_id"`
		AmountMinor   int64  `json:"amount_minor"`
		AgentAssigned bool   `json:"agent_assigned"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.OrderID != "ord-1" || result.AmountMinor != 300 || !result.AgentAssigned {
		t.Fatalf("unexpected checkout result: %+v", result)
	}

	resp = do(t, handler, http.MethodGet, "/cart", nil)
	var state struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(state.Items) != 0 {
		t.Fatalf("cart must be empty after checkout")
	}
}

func TestLoginRejectsNonCustomer(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodPost, "/auth/login", marshal(t, map[string]interface{}{
		"email":    "staff@example.com",
		"password": "pw",
	}))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-customer, got %d", resp.Code)
	}

	resp = do(t, handler, http.MethodPost, "/auth/login", marshal(t, map[string]interface{}{
		"email":    "jo@example.com",
		"password": "pw",
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 login, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(t, handler, http.MethodGet, "/auth/session", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 session, got %d", resp.Code)
	}
}

func TestSelectionNotFoundBeforeChoosing(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodGet, "/collection-points/selection", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before selection, got %d", resp.Code)
	}
}

func TestOrdersRevokedTokenExpiresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token":"tok-1","isCustomer":true}`)
	})
	mux.HandleFunc("/api/orders/my", func(w http.ResponseWriter, r *http.Request) {
		// The order API reports a dead token inside an HTTP 200.
		fmt.Fprint(w, `{"message":"Invalid or expired token"}`)
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	application, err := app.New(app.Stores{}, app.Config{
		APIBaseURL: backend.URL,
		MerchantID: 2,
	}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler := NewHandler(application)

	resp := do(t, handler, http.MethodPost, "/auth/login", marshal(t, map[string]interface{}{
		"email":    "jo@example.com",
		"password": "pw",
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.Code)
	}

	resp = do(t, handler, http.MethodGet, "/orders", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token must yield 401, got %d: %s", resp.Code, resp.Body.String())
	}

	// The stored session must now read as expired, not merely absent.
	resp = do(t, handler, http.MethodGet, "/auth/session", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("session after revocation must be 401, got %d", resp.Code)
	}
}

func TestOrdersHistory(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodGet, "/orders", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var history []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history) != 1 || history[0].ID != "ord-1" {
		t.Fatalf("unexpected history: %+v", history)
	}
}
