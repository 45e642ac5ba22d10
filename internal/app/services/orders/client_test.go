package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/squadbid/storefront/internal/app/domain/order"
	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/httputil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(httputil.NewClient(httputil.ClientConfig{BaseURL: srv.URL})), srv
}

func TestCreateOrderSubmitsPayload(t *testing.T) {
	var got createOrderRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"order":{"id":"ord-42"}}`)); err != nil {
			t.Fatalf("write response: %v", err)
		}
	})

	items := []order.Item{{ProductID: "p1", Quantity: 2}}
	id, err := client.CreateOrder(context.Background(), 2, items, "leave at desk", "key-1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if id != "ord-42" {
		t.Fatalf("expected ord-42, got %q", id)
	}
	if got.MerchantID != 2 || len(got.Items) != 1 || got.Items[0].ProductID != "p1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.IdempotencyKey != "key-1" {
		t.Fatalf("idempotency key missing from payload: %+v", got)
	}
}

func TestCreateOrderResponseShapes(t *testing.T) {
	// order_id is what the live API sends; the nested and bare forms come
	// from older deployments.
	cases := []struct {
		body string
		want string
	}{
		{`{"order_id":"ord-9","message":"Order created successfully"}`, "ord-9"},
		{`{"order":{"id":"ord-5"}}`, "ord-5"},
		{`{"id":"ord-7","status":"pending"}`, "ord-7"},
	}
	for _, tc := range cases {
		tc := tc
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(tc.body))
		})

		id, err := client.CreateOrder(context.Background(), 2, []order.Item{{ProductID: "p1", Quantity: 1}}, "", "k")
		if err != nil {
			t.Fatalf("create order for %s: %v", tc.body, err)
		}
		if id != tc.want {
			t.Fatalf("expected %s, got %q", tc.want, id)
		}
	}
}

func TestCreateOrderExpiredTokenIn200Body(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Invalid or expired token"}`))
	})

	_, err := client.CreateOrder(context.Background(), 2, []order.Item{{ProductID: "p1", Quantity: 1}}, "", "k")
	if !errors.Is(err, session.ErrExpired) {
		t.Fatalf("expected session.ErrExpired, got %v", err)
	}
}

func TestListMineDecodesWrappedAndBareArrays(t *testing.T) {
	bodies := []string{
		`{"orders":[{"id":"a","status":"pending"},{"id":"b","status":"collected"}]}`,
		`[{"id":"a","status":"pending"},{"id":"b","status":"collected"}]`,
	}
	for _, body := range bodies {
		body := body
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/orders/my" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})

		got, err := client.ListMine(context.Background())
		if err != nil {
			t.Fatalf("list orders: %v", err)
		}
		if len(got) != 2 || got[0].ID != "a" || got[1].Status != order.StatusCollected {
			t.Fatalf("unexpected orders: %+v", got)
		}
	}
}

func TestListMineStatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ListMine(context.Background())
	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
}
