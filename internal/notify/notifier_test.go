package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, log.New(io.Discard, "", 0))
}

func TestClientCallbackURL(t *testing.T) {
	client := newTestClient("http://localhost:5000/")

	got := client.CallbackURL(42)
	want := "http://localhost:5000/api/documents/42/callback"
	if got != want {
		t.Fatalf("CallbackURL = %s, want %s", got, want)
	}
}

func TestClientNotifySuccess(t *testing.T) {
	var (
		gotPath       string
		gotDeliveryID string
		gotBody       map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDeliveryID = r.Header.Get("X-Delivery-Id")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	endpoint := client.CallbackURL(42)
	err := client.Notify(context.Background(), endpoint, Payload{
		Status:     "completed",
		DocumentID: 42,
	})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	if gotPath != "/api/documents/42/callback" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotDeliveryID == "" {
		t.Fatal("X-Delivery-Id header is empty")
	}
	if gotBody["status"] != "completed" || gotBody["document_id"] != float64(42) {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
	if _, ok := gotBody["error"]; ok {
		t.Fatalf("completed payload must omit error field: %+v", gotBody)
	}
}

func TestClientNotifyErrorPayload(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Notify(context.Background(), client.CallbackURL(7), Payload{
		Status:     "error",
		DocumentID: 7,
		Error:      "extract: feature extraction failed",
	})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if gotBody["error"] != "extract: feature extraction failed" {
		t.Fatalf("unexpected error field: %+v", gotBody)
	}
}

func TestClientNotifyNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Notify(context.Background(), client.CallbackURL(1), Payload{Status: "completed", DocumentID: 1})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestClientNotifyTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL + "/api/documents/1/callback"
	server.Close()

	client := newTestClient(server.URL)
	err := client.Notify(context.Background(), endpoint, Payload{Status: "completed", DocumentID: 1})
	if err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
