package webhooks

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestNotifierDeliversSignedPayload(t *testing.T) {
	var mu sync.Mutex
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotSig = r.Header.Get("X-Signature")
		gotType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		mu.Unlock()
		w.WriteHeader(200)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "secret", 3)
	n.HTTP = srv.Client()
	n.Start()
	defer n.Stop()

	n.Emit("competition.finished", map[string]any{"competitionId": "c1"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := gotSig != ""
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotType != "competition.finished" {
		t.Fatalf("event type = %q", gotType)
	}
	if !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("signature did not verify: sig=%q body=%s", gotSig, gotBody)
	}
}

func TestNotifierRetriesThenGivesUp(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(500)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "", 2)
	n.HTTP = srv.Client()
	n.Backoff = func(int) time.Duration { return 0 }

	// Drive delivery synchronously to keep the retry clock out of the test.
	n.deliver(delivery{ID: "evt_x", EventType: "competition.finished", Payload: []byte(`{}`)})

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	sig := SignHMAC("s3cret", body)
	if !VerifyHMAC("s3cret", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifyHMAC("other", body, sig) {
		t.Fatal("wrong secret accepted")
	}
	if VerifyHMAC("s3cret", []byte(`{}`), sig) {
		t.Fatal("tampered body accepted")
	}
	if VerifyHMAC("s3cret", body, "zz") {
		t.Fatal("non-hex signature accepted")
	}
}
