package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 50 // ⚠️ Start small. Database might choke on 500 pairs immediately.
	MsgCount  = 20 // Messages per user
)

type AuthResponse struct {
	Token    string `json:"access_token"`
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d Users, %d Messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	// We create pairs: User 0a talks to User 0b, 1a to 1b...
	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runPair(pairID int) {
	userA := fmt.Sprintf("u_%d_a", pairID)
	userB := fmt.Sprintf("u_%d_b", pairID)
	pass := "password123"

	authA := authenticate(userA, pass)
	authB := authenticate(userB, pass)
	if authA == nil || authB == nil {
		return // Failed auth
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)

	// Both sides hold a websocket open (presence + typing) and spam the
	// REST send endpoint at each other.
	go spamChat(&wsWg, authA, authB.ID)
	go spamChat(&wsWg, authB, authA.ID)

	wsWg.Wait()

	// Finally each side fetches the history, which marks everything read.
	fetchConversation(authA, authB.ID)
	fetchConversation(authB, authA.ID)
}

// authenticate registers (ignores error if exists) and logs in
func authenticate(username, password string) *AuthResponse {
	if resp, err := postJSON("/register", "", map[string]string{"username": username, "password": password}); err == nil {
		resp.Body.Close()
	}

	resp, err := postJSON("/login", "", map[string]string{"username": username, "password": password})
	if err != nil {
		log.Printf("❌ Login Failed [%s]: %v", username, err)
		return nil
	}
	defer resp.Body.Close()

	var data AuthResponse
	json.NewDecoder(resp.Body).Decode(&data)
	if data.Token == "" {
		return nil
	}
	return &data
}

func spamChat(wg *sync.WaitGroup, auth *AuthResponse, peerID int) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, auth.Token), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", auth.Username, err)
		return
	}
	defer conn.Close()

	// Drain server pushes so the send buffer never fills.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		// Typing signal, then the actual message via REST.
		typing := map[string]interface{}{
			"event": "typing",
			"data":  map[string]int{"recipientId": peerID},
		}
		if err := conn.WriteJSON(typing); err != nil {
			log.Printf("❌ Typing Fail [%s]: %v", auth.Username, err)
			break
		}

		resp, err := postJSON(fmt.Sprintf("/api/message/send/%d", peerID), auth.Token, map[string]string{
			"message": fmt.Sprintf("LoadTest Msg %d from %s", i, auth.Username),
		})
		if err != nil {
			log.Printf("❌ Send Fail [%s]: %v", auth.Username, err)
			break
		}
		resp.Body.Close()
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", auth.Username, MsgCount)
}

func fetchConversation(auth *AuthResponse, peerID int) {
	req, _ := http.NewRequest("GET", fmt.Sprintf("%s/api/message/get/%d", BaseURL, peerID), nil)
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("❌ Fetch Fail [%s]: %v", auth.Username, err)
		return
	}
	defer resp.Body.Close()

	var messages []json.RawMessage
	json.NewDecoder(resp.Body).Decode(&messages)
	log.Printf("📥 %s fetched %d msgs from %d", auth.Username, len(messages), peerID)
}

func postJSON(endpoint, token string, data interface{}) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	req, err := http.NewRequest("POST", BaseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}
