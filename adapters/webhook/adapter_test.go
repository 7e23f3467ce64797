package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"roofquote/internal/config"
	"roofquote/internal/logging"
)

func testAdapter(endpoint string) *Adapter {
	cfg := DefaultConfig(endpoint)
	cfg.Secret = "s3cret"
	cfg.RetryDelay = time.Millisecond
	a := New(cfg)
	a.logger = logging.Nop()
	return a
}

func TestSendProposalSignsAndKeys(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !VerifySignature(body, r.Header.Get(SignatureHeader), "s3cret") {
			t.Errorf("signature did not verify: %q", r.Header.Get(SignatureHeader))
		}
		if r.Header.Get("Idempotency-Key") != "p-1" {
			t.Errorf("Idempotency-Key = %q", r.Header.Get("Idempotency-Key"))
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	if err := testAdapter(srv.URL).SendProposal(context.Background(), "p-1", "home@example.com"); err != nil {
		t.Fatalf("SendProposal: %v", err)
	}
	if got.ProposalID != "p-1" || got.Recipient != "home@example.com" || got.Event != "proposal.send" {
		t.Errorf("payload = %+v", got)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := testAdapter(srv.URL).SendProposal(context.Background(), "p-2", "a@b.co"); err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unknown recipient", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	if err := testAdapter(srv.URL).SendProposal(context.Background(), "p-3", "a@b.co"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSendGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := testAdapter(srv.URL)
	a.config.RetryCount = 1
	if err := a.SendProposal(context.Background(), "p-4", "a@b.co"); err == nil {
		t.Fatal("expected error after retries")
	}
}

func TestSendHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := testAdapter("http://127.0.0.1:1").SendProposal(ctx, "p-5", "a@b.co"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if err := (LogSender{Logger: logging.Nop()}).SendProposal(ctx, "p-5", "a@b.co"); err == nil {
		t.Fatal("LogSender should honour cancellation")
	}
}

func TestSendRequiresEndpoint(t *testing.T) {
	if err := testAdapter("").SendProposal(context.Background(), "p", "a@b.co"); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestFromDelivery(t *testing.T) {
	cfg := FromDelivery(config.DeliveryConfig{Endpoint: "https://crm.example.com/hook", TimeoutSecs: 5, RetryCount: 0, RetryDelayMs: 250})
	if cfg.Timeout != 5*time.Second || cfg.RetryCount != 0 || cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("config = %+v", cfg)
	}
}
