// Package webhooks delivers signed event notifications to a configured
// endpoint. Deliveries are queued in memory and retried with exponential
// backoff; the queue drops events rather than blocking callers.
package webhooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type delivery struct {
	ID        string
	EventType string
	Payload   []byte
	Attempts  int
}

type Notifier struct {
	URL         string
	Secret      string
	HTTP        *http.Client
	MaxAttempts int
	Backoff     func(attempts int) time.Duration

	queue chan delivery
	stop  chan struct{}
}

// NewNotifierFromEnv returns nil when WEBHOOK_URL is unset.
func NewNotifierFromEnv() *Notifier {
	url := os.Getenv("WEBHOOK_URL")
	if url == "" {
		return nil
	}
	max := 5
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			max = n
		}
	}
	return NewNotifier(url, os.Getenv("WEBHOOK_SECRET"), max)
}

func NewNotifier(url, secret string, maxAttempts int) *Notifier {
	return &Notifier{
		URL:         url,
		Secret:      secret,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		Backoff:     nextBackoff,
		queue:       make(chan delivery, 256),
		stop:        make(chan struct{}),
	}
}

// Emit enqueues one event envelope. Non-blocking; drops when the queue is
// full so a dead endpoint cannot stall request handlers.
func (n *Notifier) Emit(eventType string, data any) {
	payload := map[string]any{
		"id":   "evt_" + uuid.New().String(),
		"type": eventType,
		"ts":   time.Now().UTC().Format(time.RFC3339),
		"data": data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case n.queue <- delivery{ID: fmt.Sprintf("%v", payload["id"]), EventType: eventType, Payload: body}:
	default:
		log.Printf("webhooks: queue full, dropping %s", eventType)
	}
}

func (n *Notifier) Start() {
	go func() {
		for {
			select {
			case <-n.stop:
				return
			case d := <-n.queue:
				n.deliver(d)
			}
		}
	}()
}

func (n *Notifier) Stop() { close(n.stop) }

func (n *Notifier) deliver(d delivery) {
	for d.Attempts < n.MaxAttempts {
		if d.Attempts > 0 {
			select {
			case <-n.stop:
				return
			case <-time.After(n.Backoff(d.Attempts)):
			}
		}
		d.Attempts++
		if n.attempt(d) {
			return
		}
	}
	log.Printf("webhooks: giving up on %s after %d attempts", d.ID, d.Attempts)
}

func (n *Notifier) attempt(d delivery) bool {
	req, err := http.NewRequest(http.MethodPost, n.URL, bytes.NewReader(d.Payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.EventType)
	if n.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(n.Secret, d.Payload))
	}
	resp, err := n.HTTP.Do(req)
	if err != nil {
		return false
	}
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
