package asr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/config"
)

func writeTempWav(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFFtest"), 0o644); err != nil {
		t.Fatalf("write temp wav: %v", err)
	}
	return path
}

func testClient(t *testing.T, url string, mutate func(*config.Config)) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIEndpoint = url
	cfg.MaxRetry = 2
	cfg.RetryBaseDelay = 0
	cfg.RequestTimeout = 2
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, &http.Client{Timeout: time.Second}, zap.NewNop())
}

func TestTranscribeExtractsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model field = %q", got)
		}
		w.Write([]byte(`{"text":"hello there"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, func(c *config.Config) { c.Model = "whisper-1" })
	text, _, err := client.Transcribe(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello there" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribeRetryExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("fail"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	_, _, err := client.Transcribe(context.Background(), writeTempWav(t))
	if err == nil {
		t.Fatal("expected error")
	}

	var re *RetryExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryExhaustedError, got %T: %v", err, err)
	}
	if re.Attempts != 2 || re.MaxRetry != 2 {
		t.Errorf("attempts = %d, maxRetry = %d, want 2 and 2", re.Attempts, re.MaxRetry)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
	if string(re.LastResponse) != "fail" {
		t.Errorf("last response = %q", re.LastResponse)
	}
}

func TestTranscribeRetriesUntilSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"text":"second try"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	text, _, err := client.Transcribe(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "second try" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribeSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		w.Write([]byte(`{"text":"a b","segments":[{"start":0,"end":1.5,"text":"a"},{"start":1.5,"end":3,"text":"b"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	segs, err := client.TranscribeSegments(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("TranscribeSegments: %v", err)
	}
	if len(segs) != 2 || segs[1].Start != 1.5 || segs[1].Text != "b" {
		t.Fatalf("segments = %+v", segs)
	}
}

func TestTranscribeSegmentsPlainFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"whole clip","duration":4.2}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	segs, err := client.TranscribeSegments(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("TranscribeSegments: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "whole clip" || segs[0].End != 4.2 {
		t.Fatalf("segments = %+v", segs)
	}
}

func TestTranscribeEmptyEndpoint(t *testing.T) {
	client := testClient(t, "", nil)
	if _, _, err := client.Transcribe(context.Background(), writeTempWav(t)); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
