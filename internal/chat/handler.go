package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"talkwire/internal/middleware"
	"talkwire/pkg/apperr"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

type Handler struct {
	hub    *Hub
	typing *TypingCoordinator
	svc    *Service
}

func NewHandler(hub *Hub, typing *TypingCoordinator, svc *Service) *Handler {
	return &Handler{hub: hub, typing: typing, svc: svc}
}

// ServeWs upgrades the request to a websocket connection and registers it
// with the hub under the authenticated user.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserKey).(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, _ := r.Context().Value(middleware.UsernameKey).(string)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	log.Printf("user %s (%d) connected", username, userID)

	client := &Client{
		hub:    h.hub,
		typing: h.typing,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		connID: uuid.NewString(),
	}
	client.hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// Send handles POST /api/message/send/{recipientID}.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	recipientID, err := urlID(r, "recipientID")
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	var in SendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.Send(r.Context(), userID, recipientID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GetConversation handles GET /api/message/get/{peerID}. Fetching as the
// receiver marks the peer's messages read.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	peerID, err := urlID(r, "peerID")
	if err != nil {
		http.Error(w, "invalid peer id", http.StatusBadRequest)
		return
	}

	messages, err := h.svc.Conversation(r.Context(), userID, peerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// MarkRead handles PUT /api/message/read/{peerID}.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	peerID, err := urlID(r, "peerID")
	if err != nil {
		http.Error(w, "invalid peer id", http.StatusBadRequest)
		return
	}

	if err := h.svc.MarkRead(r.Context(), userID, peerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleReaction handles POST /api/message/reaction/{messageID}.
func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	messageID, err := urlID(r, "messageID")
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	var in struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	delta, err := h.svc.ToggleReaction(r.Context(), messageID, userID, in.Emoji)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// Edit handles PUT /api/message/edit/{messageID}.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	messageID, err := urlID(r, "messageID")
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	var in struct {
		Body string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.Edit(r.Context(), messageID, userID, in.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func callerID(r *http.Request) int {
	id, _ := r.Context().Value(middleware.UserKey).(int)
	return id
}

func urlID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	body := map[string]string{"error": err.Error(), "code": string(apperr.CodeOf(err))}
	if status == http.StatusInternalServerError {
		// Do not leak internals to the caller.
		log.Printf("internal error: %v", err)
		body["error"] = "internal server error"
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			body["error"] = appErr.Message
		}
	}
	writeJSON(w, status, body)
}
