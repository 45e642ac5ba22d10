package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL: srv.URL,
		Tokens: TokenSourceFunc(func(ctx context.Context) (string, error) {
			return "tok-123", nil
		}),
	})

	resp, err := client.Get(context.Background(), "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var out map[string]string
	if err := DecodeResponse(resp, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if out["ok"] != "yes" {
		t.Fatalf("unexpected body: %v", out)
	}
}

func TestDecodeResponseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL})
	resp, err := client.Get(context.Background(), "/fail")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	err = DecodeResponse(resp, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusBadGateway || statusErr.Body != "boom" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestClientPostsJSON(t *testing.T) {
	var gotBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL})
	resp, err := client.Post(context.Background(), "/create", map[string]int{"amount": 450})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := DecodeResponse(resp, nil); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotBody["amount"] != 450 {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}
