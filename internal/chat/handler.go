package chat

import (
	"net/http"

	"courseconnect/internal/apperr"
	"courseconnect/internal/httpx"
	"courseconnect/internal/logging"
	myMiddleware "courseconnect/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	hub     *Hub
	log     logging.Logger
}

func NewHandler(s *Service, hub *Hub, log logging.Logger) *Handler {
	return &Handler{service: s, hub: hub, log: log}
}

// Routes mounts the messaging endpoints under /messages.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/conversations", h.Conversations)
	r.Get("/class/{classId}/students", h.ClassPartners)
	r.Get("/class/{classId}/users", h.ClassPartners)
	r.Get("/{userId}", h.Messages)
	r.Post("/send/{userId}", h.Send)
}

func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	users, err := h.service.ListConversationPartners(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) ClassPartners(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	users, err := h.service.ListClassPartners(r.Context(), chi.URLParam(r, "classId"), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	messages, err := h.service.FetchConversation(r.Context(), userID, chi.URLParam(r, "userId"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messages)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	var req SendRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	m, err := h.service.SendMessage(r.Context(), userID, chi.URLParam(r, "userId"), &req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

// ServeWs upgrades an authenticated request and registers the connection
// as the user's presence handle.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Warn(r.Context(), "websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := newClient(h.hub, conn, userID, h.log)
	h.hub.Register(userID, client)

	go client.WritePump()
	go client.ReadPump()
}
