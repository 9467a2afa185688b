package tandoor_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yt2tandoor/internal/recipe"
	"yt2tandoor/internal/services/tandoor"
)

func TestNewRequiresBaseURLAndToken(t *testing.T) {
	if _, err := tandoor.New("", "token"); err == nil {
		t.Fatal("expected error when base url missing")
	}
	if _, err := tandoor.New("https://example.com", "  "); err == nil {
		t.Fatal("expected error when token missing")
	}
}

func TestFindDuplicateMatchesIgnoringCaseAndWhitespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recipe/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "5" {
			t.Fatalf("expected page_size 5, got %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "Garlic Pasta" {
			t.Fatalf("unexpected query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":7,"name":"Other"},{"id":42,"name":"  garlic pasta  "}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	id, err := client.FindDuplicate(context.Background(), "Garlic Pasta")
	if err != nil {
		t.Fatalf("FindDuplicate returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected duplicate id 42, got %d", id)
	}
}

func TestFindDuplicateNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":7,"name":"Garlic Pasta Bake"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	id, err := client.FindDuplicate(context.Background(), "Garlic Pasta")
	if err != nil {
		t.Fatalf("FindDuplicate returned error: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected no duplicate, got %d", id)
	}
}

func TestFindDuplicateLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.FindDuplicate(context.Background(), "Garlic Pasta"); err == nil {
		t.Fatal("expected lookup failure to surface as error")
	}
}

func TestCreateRecipeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/recipe/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("unexpected content type %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"servings_text":"servings"`) {
			t.Fatalf("request body missing record fields: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":99,"name":"Garlic Pasta"}`))
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	created, err := client.CreateRecipe(context.Background(), recipe.Record{Name: "Garlic Pasta", ServingsText: "servings"})
	if err != nil {
		t.Fatalf("CreateRecipe returned error: %v", err)
	}
	if created.ID != 99 {
		t.Fatalf("expected id 99, got %d", created.ID)
	}
	if created.URL != server.URL+"/view/recipe/99" {
		t.Fatalf("unexpected view url %q", created.URL)
	}
}

func TestCreateRecipeAPIErrorCarriesDetail(t *testing.T) {
	longDetail := strings.Repeat("x", 400)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(longDetail))
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.CreateRecipe(context.Background(), recipe.Record{Name: "Garlic Pasta"})
	if err == nil {
		t.Fatal("expected create to fail")
	}
	var apiErr *tandoor.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if len(apiErr.Detail) != 300 {
		t.Fatalf("expected detail capped at 300 bytes, got %d", len(apiErr.Detail))
	}
}

func TestUploadImage(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "thumb.jpg")
	if err := os.WriteFile(imagePath, []byte("jpegdata"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/recipe/99/image/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("missing image part: %v", err)
		}
		defer file.Close()
		if header.Filename != "thumbnail.jpg" {
			t.Fatalf("unexpected filename %q", header.Filename)
		}
		if got := header.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Fatalf("unexpected part content type %q", got)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "jpegdata" {
			t.Fatalf("unexpected image payload %q", data)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.UploadImage(context.Background(), 99, imagePath); err != nil {
		t.Fatalf("UploadImage returned error: %v", err)
	}
}

func TestUploadImageMissingFile(t *testing.T) {
	client, err := tandoor.New("https://example.com", "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.UploadImage(context.Background(), 99, filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Fatal("expected missing image to fail")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page_size"); got != "1" {
			t.Fatalf("expected page_size 1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := tandoor.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}
