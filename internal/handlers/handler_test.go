package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"project-board-api/internal/auth"
	"project-board-api/internal/middleware"
	"project-board-api/internal/models"
	"project-board-api/internal/realtime"
	"project-board-api/internal/store"
	"project-board-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store  *store.Store
	relay  *realtime.Relay
	tokens *auth.Tokens
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	logger, _ := testutil.NewLogger()

	env := &testEnv{
		store:  store.New(db),
		relay:  realtime.NewRelay(realtime.NewHub(), logger),
		tokens: auth.NewTokens("test-secret", "test", "test", time.Hour),
	}
	h := New(Deps{Store: env.store, Relay: env.relay, Tokens: env.tokens, Logger: logger, SendBuffer: 8})

	r := gin.New()
	r.POST("/api/login", h.Login)
	r.GET("/ws", middleware.JWTAuthMiddleware(env.tokens), h.WebSocketHandler)
	api := r.Group("/api", middleware.JWTAuthMiddleware(env.tokens))
	api.GET("/projects", h.GetProjects)
	api.GET("/projects/:id", h.GetProject)
	api.GET("/projects/:id/stats", h.GetProjectStats)
	api.POST("/projects", h.CreateProject)
	api.PUT("/projects/:id", h.UpdateProject)
	api.DELETE("/projects/:id", h.DeleteProject)
	api.GET("/tasks/project/:projectId", h.GetProjectTasks)
	api.GET("/tasks/:id", h.GetTaskByID)
	api.POST("/tasks", h.CreateTask)
	api.PUT("/tasks/:id", h.UpdateTask)
	api.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.GET("/comments/task/:taskId", h.GetTaskComments)
	api.POST("/comments", h.CreateComment)
	api.DELETE("/comments/:id", h.DeleteComment)
	api.GET("/notifications", h.GetNotifications)
	api.GET("/notifications/unread-count", h.GetUnreadCount)
	api.PUT("/notifications/:id/read", h.MarkNotificationRead)
	api.DELETE("/notifications/:id", h.DeleteNotification)
	api.GET("/users", h.GetAllUsers)
	env.router = r
	return env
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.tokens.GenerateToken(userID, userID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, userID string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) createProject(t *testing.T, owner string, payload map[string]any) models.Project {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/projects", owner, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Project](t, w)
}

func (e *testEnv) createTask(t *testing.T, userID string, payload map[string]any) models.Task {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/tasks", userID, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Task](t, w)
}

// recorder is a relay client that keeps what it was sent.
type recorder struct {
	id string

	mu   sync.Mutex
	msgs []realtime.Envelope
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) Send(message []byte) bool {
	env, err := realtime.ParseEnvelope(message)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, env)
	return true
}

func (r *recorder) Close() {}

func (r *recorder) envelopes() []realtime.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Envelope(nil), r.msgs...)
}
