package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"project-board-api/internal/models"
	"project-board-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	maxFrameSize = 64 << 10
)

// Inbound frame names.
const (
	frameJoinProject  = "joinProject"
	frameLeaveProject = "leaveProject"
	frameTaskUpdate   = "taskUpdate"
)

// wsClient implements realtime.Client by wrapping a websocket connection.
// Sends are queued for the write pump and dropped when the queue is full.
type wsClient struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn, userID string, buffer int) *wsClient {
	return &wsClient{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump is the only writer on the connection.
func (c *wsClient) writePump() {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-pingTicker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				// ping failed; reader loop will exit on next error
				c.Close()
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is already handled at Gin level; allow upgrade from any origin here
		return true
	},
}

// WebSocketHandler upgrades the connection and serves relay frames until the
// client goes away. It requires JWT middleware to have set "user_id".
func (h *Handler) WebSocketHandler(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade")
		return
	}

	client := newWSClient(conn, userID, h.sendBuffer)
	logger := h.logger.WithFields(log.Fields{"client_id": client.id, "user_id": userID})
	logger.Debug("ws.connected")
	go client.writePump()
	defer func() {
		h.relay.Leave(client)
		client.Close()
		logger.Debug("ws.disconnected")
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Normal close or error; exit loop
			return
		}
		h.handleFrame(c.Request.Context(), client, logger, raw)
	}
}

// handleFrame routes one inbound frame. Malformed frames are logged and
// skipped; they never close the connection.
func (h *Handler) handleFrame(ctx context.Context, client *wsClient, logger *log.Entry, raw []byte) {
	if !gjson.ValidBytes(raw) {
		logger.Warn("ws.frame: invalid json")
		return
	}
	frame := gjson.ParseBytes(raw)
	event := frame.Get("event").String()

	switch event {
	case frameJoinProject, frameLeaveProject:
		projectID := frame.Get("projectId").String()
		if projectID == "" {
			logger.WithField("event", event).Warn("ws.frame: missing projectId")
			return
		}
		if event == frameJoinProject {
			if _, err := h.visibleProject(ctx, projectID, client.userID); err != nil {
				logger.WithError(err).WithField("project_id", projectID).Warn("ws.frame: join denied")
				return
			}
			h.relay.Join(client, projectID)
		} else {
			h.relay.LeaveProject(client, projectID)
		}
	case frameTaskUpdate:
		data := frame.Get("data")
		if !data.IsObject() {
			logger.Warn("ws.frame: taskUpdate without data")
			return
		}
		var task models.Task
		if err := json.Unmarshal([]byte(data.Raw), &task); err != nil {
			logger.WithError(err).Warn("ws.frame: undecodable task")
			return
		}
		env, err := realtime.TaskEnvelope(realtime.EventTaskUpdated, task)
		if err != nil {
			logger.WithError(err).Warn("ws.frame: rejected task")
			return
		}
		if _, err := h.visibleProject(ctx, task.ProjectID, client.userID); err != nil {
			logger.WithError(err).WithField("project_id", task.ProjectID).Warn("ws.frame: taskUpdate denied")
			return
		}
		h.relay.Publish(ctx, env)
	default:
		logger.WithField("event", event).Debug("ws.frame: unknown event")
	}
}
