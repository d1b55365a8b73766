package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"courseconnect/internal/chat"
	"courseconnect/internal/class"
	"courseconnect/internal/httpx"
	"courseconnect/internal/logging"
	myMiddleware "courseconnect/internal/middleware"
	"courseconnect/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type routerDeps struct {
	log   logging.Logger
	users *user.Handler
	auth  myMiddleware.TokenValidator
	class *class.Handler
	chat  *chat.Handler
	ping  func(context.Context) error
}

func newRouter(d routerDeps) chi.Router {
	authMiddleware := myMiddleware.NewAuthMiddleware(d.auth, d.log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(myMiddleware.RedactToken(&middleware.DefaultLogFormatter{
		Logger:  log.New(os.Stdout, "", log.LstdFlags),
		NoColor: true,
	})))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.ping(r.Context()); err != nil {
			d.log.Error(r.Context(), "health check failed", "error", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", d.users.Signup)
		r.Post("/login", d.users.Login)
		r.Post("/logout", d.users.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handle)
			r.Get("/check", d.users.Check)
			r.Put("/update-profile", d.users.UpdateProfile)
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Route("/classes", d.class.Routes)
		r.Route("/messages", d.chat.Routes)

		// WebSocket (real-time)
		r.Get("/ws", d.chat.ServeWs)
	})

	return r
}
