package member

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFindUsernameByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/members/42/username":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user_id":"42","username":"ada"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	name, err := client.FindUsernameByID(context.Background(), "42")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if name != "ada" {
		t.Fatalf("expected 'ada', got %q", name)
	}

	if _, err := client.FindUsernameByID(context.Background(), "99"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.FindUsernameByID(context.Background(), "42"); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
