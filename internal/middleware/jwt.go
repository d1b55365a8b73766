package myMiddleware

import (
	"context"
	"net/http"
	"strings"

	"courseconnect/internal/apperr"
	"courseconnect/internal/httpx"
	"courseconnect/internal/logging"

	"github.com/google/uuid"
)

// SessionCookie is the http-only cookie carrying the session token.
const SessionCookie = "jwt"

// 1. Context keys
type contextKey string

const (
	UserKey     contextKey = "user_id"
	FullNameKey contextKey = "full_name"
)

// 2. What we need from the user service
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, string, error)
}

// 3. The middleware
type AuthMiddleware struct {
	validator TokenValidator
	log       logging.Logger
}

func NewAuthMiddleware(v TokenValidator, log logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: v, log: log}
}

// 4. The handler. Token sources in order: session cookie, Authorization
// header, ?token= (browsers cannot set headers on websocket upgrades).
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)

		if tokenString == "" {
			httpx.WriteError(w, r, am.log, apperr.Unauthenticated("Unauthorized - No Token Provided"))
			return
		}

		userID, fullName, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			httpx.WriteError(w, r, am.log, apperr.Unauthenticated("Unauthorized - Invalid Token"))
			return
		}

		ctx := WithUser(r.Context(), userID, fullName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return r.URL.Query().Get(TokenParam)
}

// WithUser stores the authenticated identity in ctx.
func WithUser(ctx context.Context, userID uuid.UUID, fullName string) context.Context {
	ctx = context.WithValue(ctx, UserKey, userID)
	return context.WithValue(ctx, FullNameKey, fullName)
}

// UserID returns the authenticated user id placed by Handle.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
