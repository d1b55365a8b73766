package class

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
	log     logging.Logger
}

func NewHandler(s *Service, log logging.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// Routes mounts the class endpoints under /classes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/create", h.CreateClass)
	r.Post("/join", h.JoinClass)
	r.Get("/user-classes", h.UserClasses)
	r.Get("/{classId}/students", h.ClassStudents)
}

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	var req CreateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	c, err := h.service.CreateClass(r.Context(), userID, &req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) JoinClass(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	var req JoinRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	c, err := h.service.JoinClass(r.Context(), userID, &req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UserClasses(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	classes, err := h.service.ListUserClasses(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, classes)
}

func (h *Handler) ClassStudents(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	students, err := h.service.ListClassmates(r.Context(), chi.URLParam(r, "classId"), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, students)
}
