package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courseconnect/internal/chat"
	"courseconnect/internal/class"
	"courseconnect/internal/config"
	"courseconnect/internal/logging"
	"courseconnect/internal/presence"
	"courseconnect/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logging.Discard()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := openStorage(ctx, &config.Config{DatabaseDSN: config.MemoryDSN}, log)
	require.NoError(t, err)

	users := user.NewService(s.users, s.images, "test-secret", time.Hour)
	classes := class.NewService(s.classes, s.users, log)
	hub := chat.NewHub(presence.NewRegistry(), nil, log)
	go hub.Run(ctx)
	messages := chat.NewService(s.messages, s.users, classes, s.images, hub, log)

	return newRouter(routerDeps{
		log:   log,
		users: user.NewHandler(users, log),
		auth:  users,
		class: class.NewHandler(classes, log),
		chat:  chat.NewHandler(messages, hub, log),
		ping:  s.ping,
	})
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) call(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(c.t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec.Code
}

func signup(t *testing.T, h http.Handler, name string) (*client, user.AuthResponse) {
	t.Helper()
	anon := &client{t: t, h: h}
	var res user.AuthResponse
	code := anon.call(http.MethodPost, "/auth/signup", user.SignupRequest{
		FullName: name, Email: name + "@example.com", Password: "password",
	}, &res)
	require.Equal(t, http.StatusCreated, code)
	return &client{t: t, h: h, token: res.AccessToken}, res
}

func TestRouter_ClassroomFlow(t *testing.T) {
	h := newMemoryRouter(t)
	instructor, instructorUser := signup(t, h, "instructor")
	student, studentUser := signup(t, h, "student")

	var created class.Details
	require.Equal(t, http.StatusCreated, instructor.call(http.MethodPost, "/classes/create",
		class.CreateRequest{Name: "Databases", Code: "CS301", Instructor: "Dr. Codd"}, &created))

	var joined class.Details
	require.Equal(t, http.StatusOK, student.call(http.MethodPost, "/classes/join", class.JoinRequest{Code: "CS301"}, &joined))
	require.Len(t, joined.Students, 2)

	var mates []user.Summary
	require.Equal(t, http.StatusOK, student.call(http.MethodGet, "/messages/class/"+created.ID.String()+"/students", nil, &mates))
	require.Len(t, mates, 1)
	assert.Equal(t, instructorUser.ID, mates[0].ID)

	var sent chat.Message
	require.Equal(t, http.StatusCreated, student.call(http.MethodPost, "/messages/send/"+instructorUser.ID.String(),
		chat.SendRequest{Text: "When is the exam?"}, &sent))

	var history []chat.Message
	require.Equal(t, http.StatusOK, instructor.call(http.MethodGet, "/messages/"+studentUser.ID.String(), nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)

	var me user.User
	require.Equal(t, http.StatusOK, student.call(http.MethodGet, "/auth/check", nil, &me))
	assert.Equal(t, studentUser.ID, me.ID)
}

func TestRouter_RequiresAuth(t *testing.T) {
	h := newMemoryRouter(t)
	anon := &client{t: t, h: h}

	for _, path := range []string{"/classes/user-classes", "/messages/conversations", "/auth/check", "/ws"} {
		assert.Equal(t, http.StatusUnauthorized, anon.call(http.MethodGet, path, nil, nil), path)
	}
}

func TestRouter_Healthz(t *testing.T) {
	h := newMemoryRouter(t)
	anon := &client{t: t, h: h}

	var body map[string]string
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])

	down := newRouter(routerDeps{
		log:   logging.Discard(),
		users: user.NewHandler(nil, logging.Discard()),
		ping:  func(context.Context) error { return errors.New("db down") },
	})
	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
