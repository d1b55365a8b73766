package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL   = flag.String("url", "http://localhost:8080", "server base URL")
	pairCount = flag.Int("pairs", 50, "number of user pairs (each pair is two users)")
	msgCount  = flag.Int("msgs", 20, "messages sent by each user")
	wait      = flag.Duration("wait", 10*time.Second, "how long to wait for pushes after sending")
)

type authResponse struct {
	ID    string `json:"_id"`
	Token string `json:"access_token"`
}

type event struct {
	Type string `json:"type"`
}

var (
	sent      atomic.Int64
	delivered atomic.Int64
	failures  atomic.Int64
)

func main() {
	flag.Parse()
	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each", *pairCount*2, *msgCount)
	start := time.Now()

	var wg sync.WaitGroup
	// Pairs talk to each other: u_0_a <-> u_0_b, u_1_a <-> u_1_b, ...
	for i := 0; i < *pairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}
	wg.Wait()

	log.Printf("✅ LOAD TEST COMPLETE in %s: sent=%d delivered=%d failures=%d",
		time.Since(start).Round(time.Millisecond), sent.Load(), delivered.Load(), failures.Load())
}

func runPair(pairID int) {
	a, err := authenticate(fmt.Sprintf("u_%d_a", pairID))
	if err != nil {
		log.Printf("❌ auth failed: %v", err)
		failures.Add(1)
		return
	}
	b, err := authenticate(fmt.Sprintf("u_%d_b", pairID))
	if err != nil {
		log.Printf("❌ auth failed: %v", err)
		failures.Add(1)
		return
	}

	var pairWg sync.WaitGroup
	pairWg.Add(2)
	go chatter(&pairWg, a, b.ID)
	go chatter(&pairWg, b, a.ID)
	pairWg.Wait()
}

// authenticate signs up (ignoring "already exists") and logs in.
func authenticate(name string) (*authResponse, error) {
	email := name + "@loadtest.local"
	password := "password123"

	if resp, err := postJSON("/auth/signup", "", map[string]string{"fullName": name, "email": email, "password": password}); err == nil {
		resp.Body.Close()
	}

	resp, err := postJSON("/auth/login", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login %s: status %d", name, resp.StatusCode)
	}

	var data authResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// chatter connects a websocket for me, sends msgCount messages to peerID over
// REST and counts the newMessage pushes it receives.
func chatter(wg *sync.WaitGroup, me *authResponse, peerID string) {
	defer wg.Done()

	wsURL := "ws" + strings.TrimPrefix(*baseURL, "http") + "/ws?token=" + me.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Printf("❌ WS connect failed [%s]: %v", me.ID, err)
		failures.Add(1)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		received := 0
		conn.SetReadDeadline(time.Now().Add(*wait + time.Duration(*msgCount)*50*time.Millisecond))
		for received < *msgCount {
			var ev event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			if ev.Type == "newMessage" {
				received++
				delivered.Add(1)
			}
		}
	}()

	for i := 0; i < *msgCount; i++ {
		body := map[string]string{"text": fmt.Sprintf("LoadTest msg %d from %s", i, me.ID)}
		resp, err := postJSON("/messages/send/"+peerID, me.Token, body)
		if err != nil || resp.StatusCode != http.StatusCreated {
			failures.Add(1)
			if resp != nil {
				resp.Body.Close()
			}
			continue
		}
		resp.Body.Close()
		sent.Add(1)
		// Small sleep to avoid an instant localhost bottleneck.
		time.Sleep(10 * time.Millisecond)
	}

	<-done
}

func postJSON(endpoint, token string, data any) (*http.Response, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, *baseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}
