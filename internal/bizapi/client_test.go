package bizapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/visadir/internal/logging"
)

func TestClient_CreateBusiness(t *testing.T) {
	var got BusinessRecord
	var auth, requestID, contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/businesses" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Request-ID")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "secret", time.Second)
	rec := BusinessRecord{Name: "Al Noor Visa", Category: "Visa Agent", Services: []string{"Tourist Visa"}}

	if err := c.CreateBusiness(context.Background(), rec); err != nil {
		t.Fatalf("CreateBusiness() error = %v", err)
	}

	if got.Name != "Al Noor Visa" || got.Category != "Visa Agent" {
		t.Errorf("server received %+v", got)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", auth)
	}
	if requestID == "" {
		t.Error("X-Request-ID header missing")
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
}

func TestClient_CreateBusiness_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate business name", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	err := c.CreateBusiness(context.Background(), BusinessRecord{Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected APIError 409, got %v", err)
	}
	if want := "business api returned 409: duplicate business name"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestClient_CreateBusiness_LogsCreatedID(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	logging.SetupWriter(&logs, "debug", "text")
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"biz-42","name":"Al Noor Visa"}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "", time.Second).CreateBusiness(context.Background(), BusinessRecord{Name: "Al Noor Visa"}); err != nil {
		t.Fatalf("CreateBusiness() error = %v", err)
	}
	if !strings.Contains(logs.String(), "business created") || !strings.Contains(logs.String(), "id=biz-42") {
		t.Errorf("logs = %q", logs.String())
	}
}

func TestClient_CreateThenListKeepsLocation(t *testing.T) {
	var mu sync.Mutex
	var stored []json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPost:
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
				t.Errorf("decode body: %v", err)
			}
			stored = append(stored, raw)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(stored)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	rec := BusinessRecord{
		Name:       "Capital Visa Centre",
		City:       "Abu Dhabi",
		Location:   Location{Latitude: 24.45, Longitude: 54.37},
		IsVerified: true,
	}
	if err := c.CreateBusiness(context.Background(), rec); err != nil {
		t.Fatalf("CreateBusiness() error = %v", err)
	}

	listings, err := c.ListBusinesses(context.Background())
	if err != nil {
		t.Fatalf("ListBusinesses() error = %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("len = %d, want 1", len(listings))
	}
	got := listings[0]
	if got.Location.Latitude != 24.45 || got.Location.Longitude != 54.37 {
		t.Errorf("Location = %+v, want (24.45, 54.37)", got.Location)
	}
	if got.Name != rec.Name || got.City != rec.City || !got.Verified {
		t.Errorf("listing = %+v", got)
	}
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("Authorization = %q, want empty", h)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "", 0).CreateBusiness(context.Background(), BusinessRecord{}); err != nil {
		t.Fatalf("CreateBusiness() error = %v", err)
	}
}

func TestClient_ListBusinesses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/businesses" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","name":"A","city":"Dubai","rating":4.5},{"id":"2","name":"B","city":"Sharjah"}]`))
	}))
	defer srv.Close()

	listings, err := NewClient(srv.URL, "", time.Second).ListBusinesses(context.Background())
	if err != nil {
		t.Fatalf("ListBusinesses() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("len = %d, want 2", len(listings))
	}
	if listings[0].City != "Dubai" || listings[0].Rating != 4.5 {
		t.Errorf("listings[0] = %+v", listings[0])
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewClient(srv.URL, "", time.Second).CreateBusiness(ctx, BusinessRecord{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
