// Package main runs a demo WebSocket client for competition events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Load a tiny demo catalog
	catalog := []byte(`{"sites":[
		{"id":1,"lat":41.9028,"lon":12.4964,"category":"retail","reward":120,"zone":"Z1"},
		{"id":2,"lat":41.9035,"lon":12.4970,"category":"bar","reward":80,"zone":"Z1"},
		{"id":3,"lat":41.9010,"lon":12.4950,"category":"hotel","reward":200,"zone":"Z1"}]}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/catalog", bytes.NewReader(catalog))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_demo")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()

	// Connect WS and subscribe to the global competitions feed
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/stream/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "admin")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	pl, _ := json.Marshal(map[string]any{"topic": "competitions"})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Run a competition to generate day.completed events
	time.Sleep(500 * time.Millisecond)
	comp := []byte(`{"tenantId":"t_demo","days":3,"startSiteIds":[1,2,3],"seed":42,
		"agents":[{"name":"greedy","strategy":"greedy"},{"name":"random","strategy":"random"}]}`)
	cReq, _ := http.NewRequest(http.MethodPost, base+"/v1/competitions", bytes.NewReader(comp))
	cReq.Header.Set("Content-Type", "application/json")
	cReq.Header.Set("X-Tenant-Id", "t_demo")
	cReq.Header.Set("X-Role", "admin")
	_, _ = http.DefaultClient.Do(cReq)

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
