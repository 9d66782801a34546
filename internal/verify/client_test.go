package verify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giftkart/giftkart/internal/config"
	"github.com/giftkart/giftkart/internal/logging"
)

func testConfig(baseURL string) config.VerifyConfig {
	return config.VerifyConfig{
		BaseURL:      baseURL,
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		Timeout:      2 * time.Second,
		BackoffBase:  time.Millisecond,
	}
}

func TestVerifyPANRetriesUntilSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Client-Id") != "client-1" || r.Header.Get("X-Client-Secret") != "secret-1" {
			t.Errorf("missing shared-secret headers")
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valid": true, "name": "ASHA TRADERS"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), logging.Discard())
	result, err := client.VerifyPAN(context.Background(), "ABCDE1234F")
	if err != nil {
		t.Fatalf("verify pan: %v", err)
	}
	if !result.Valid || result.Name != "ASHA TRADERS" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestVerifyBankGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), logging.Discard())
	_, err := client.VerifyBank(context.Background(), "000111222333", "HDFC0000123")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestVerifyGSTINDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), logging.Discard())
	if _, err := client.VerifyGSTIN(context.Background(), "bogus"); err == nil {
		t.Fatalf("expected error for 4xx response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}
