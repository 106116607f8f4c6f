package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cocreator/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-image-model",
	})
}

func TestGenerateReturnsDecodedBytes(t *testing.T) {
	payload := []byte("fake-png-bytes")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Prompt != "a lighthouse at dusk" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		if req.AspectRatio != "9:16" {
			t.Errorf("aspect ratio = %q", req.AspectRatio)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(payload)}},
		})
	})

	got, err := client.Generate(context.Background(), "a lighthouse at dusk")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("bytes = %q, want %q", got, payload)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("error = %v, want rate-limited sentinel", err)
	}
	if !services.Retryable(err) {
		t.Error("rate limited errors should be retryable")
	}
}

func TestGenerateServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error = %v, want unavailable sentinel", err)
	}
}

func TestGenerateEmptyDataIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{}})
	})
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error = %v, want transient sentinel", err)
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Generate(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
