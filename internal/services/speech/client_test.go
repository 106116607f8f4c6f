package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cocreator/internal/services"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		limit     int
		wantCount int
	}{
		{"empty", "", 10, 0},
		{"under limit", "short", 10, 1},
		{"exact limit", strings.Repeat("a", 10), 10, 1},
		{"one over", strings.Repeat("a", 11), 10, 2},
		{"default limit split", strings.Repeat("a", 10000), DefaultChunkLimit, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitChunks(tt.text, tt.limit)
			if len(chunks) != tt.wantCount {
				t.Fatalf("len(chunks) = %d, want %d", len(chunks), tt.wantCount)
			}
			if strings.Join(chunks, "") != tt.text {
				t.Error("chunks do not concatenate back to input")
			}
		})
	}
}

func TestSplitChunksRuneSafe(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 3)
	chunks := SplitChunks(text, 5)
	if strings.Join(chunks, "") != text {
		t.Error("multi-byte text corrupted by chunking")
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 5 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []Option{WithSleeper(func(time.Duration) {})}
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Voice:      "en-US-Neural2-C",
		ChunkLimit: 10,
	}, append(base, opts...)...)
}

func audioResponse(payload []byte) string {
	encoded, _ := json.Marshal(map[string]string{
		"audio_content": base64.StdEncoding.EncodeToString(payload),
	})
	return string(encoded)
}

func TestSynthesizeConcatenatesChunks(t *testing.T) {
	var requests []synthesisRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req synthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)
		w.Write([]byte(audioResponse([]byte(req.Input.Text + "|"))))
	})

	audio, err := client.Synthesize(context.Background(), "0123456789abcdef", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "0123456789|abcdef|" {
		t.Errorf("audio = %q", audio)
	}
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	if requests[0].Voice.Name != "en-US-Neural2-C" {
		t.Errorf("voice = %q, want configured fallback", requests[0].Voice.Name)
	}
	if requests[0].Voice.LanguageCode != "en-US" {
		t.Errorf("language = %q", requests[0].Voice.LanguageCode)
	}
	if requests[0].AudioConfig.AudioEncoding != "MP3" {
		t.Errorf("encoding = %q", requests[0].AudioConfig.AudioEncoding)
	}
}

func TestSynthesizeRetriesTransientChunkFailures(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(audioResponse([]byte("mp3"))))
	})

	audio, err := client.Synthesize(context.Background(), "short", "en-GB-Neural2-D")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3" {
		t.Errorf("audio = %q", audio)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSynthesizeGivesUpAfterRetries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Synthesize(context.Background(), "short", "")
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("error = %v, want rate-limited sentinel", err)
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Synthesize(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestRandomVoiceIsKnown(t *testing.T) {
	for i := 0; i < 20; i++ {
		if voice := RandomVoice(); !KnownVoice(voice) {
			t.Fatalf("RandomVoice returned unknown voice %q", voice)
		}
	}
}

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		voice string
		want  string
	}{
		{"en-US-Neural2-D", "en-US"},
		{"en-GB-Neural2-F", "en-GB"},
		{"plainvoice", "en-US"},
	}
	for _, tt := range tests {
		if got := languageCode(tt.voice); got != tt.want {
			t.Errorf("languageCode(%q) = %q, want %q", tt.voice, got, tt.want)
		}
	}
}
