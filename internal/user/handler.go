package user

import (
	"net/http"

	"courseconnect/internal/apperr"
	"courseconnect/internal/httpx"
	"courseconnect/internal/logging"
	myMiddleware "courseconnect/internal/middleware"
)

type Handler struct {
	Service *Service
	log     logging.Logger
}

func NewHandler(s *Service, log logging.Logger) *Handler {
	return &Handler{Service: s, log: log}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	res, err := h.Service.Signup(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	h.setSession(w, r, res.AccessToken)
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	res, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	h.setSession(w, r, res.AccessToken)
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     myMiddleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	u, err := h.Service.CurrentUser(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := myMiddleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.log, apperr.Unauthenticated("Unauthorized"))
		return
	}

	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	u, err := h.Service.UpdateProfilePic(r.Context(), userID, &req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) setSession(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     myMiddleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Service.TokenValidity().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
