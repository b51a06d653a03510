package board

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"project-board-api/internal/models"
	"project-board-api/internal/realtime"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// Conn is a session's websocket link to the relay. It joins the session's
// project on dial, feeds received envelopes to the session and announces
// the session's saved edits.
type Conn struct {
	ws      *websocket.Conn
	session *Session
	logger  *log.Logger

	writeMu sync.Mutex
}

type frame struct {
	Event     string       `json:"event"`
	ProjectID string       `json:"projectId,omitempty"`
	Data      *models.Task `json:"data,omitempty"`
}

// Dial connects to the relay endpoint (ws:// or wss:// URL of /ws), joins
// the session's project and installs the connection as its announcer.
func Dial(ctx context.Context, endpoint, token string, session *Session, logger *log.Logger) (*Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", realtime.ErrRelayUnavailable, err)
	}
	c := &Conn{ws: ws, session: session, logger: logger}
	if err := c.write(frame{Event: "joinProject", ProjectID: session.ProjectID()}); err != nil {
		_ = ws.Close()
		return nil, err
	}
	session.SetAnnouncer(c)
	return c, nil
}

// Announce sends a taskUpdate frame for task.
func (c *Conn) Announce(_ context.Context, task models.Task) error {
	return c.write(frame{Event: "taskUpdate", Data: &task})
}

func (c *Conn) write(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(f); err != nil {
		return fmt.Errorf("%w: %v", realtime.ErrRelayUnavailable, err)
	}
	return nil
}

// Run applies received envelopes to the session until ctx is done or the
// connection drops. Invalid envelopes are logged and skipped.
func (c *Conn) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("%w: %v", realtime.ErrRelayUnavailable, err)
		}
		env, err := realtime.ParseEnvelope(raw)
		if err != nil {
			c.logger.WithError(err).Warn("board.relay: dropped envelope")
			continue
		}
		if _, err := c.session.ApplyRemote(env); err != nil {
			c.logger.WithError(err).WithField("task_id", env.ID).Warn("board.relay: merge failed")
		}
	}
}

// Close detaches the announcer and closes the connection.
func (c *Conn) Close() error {
	c.session.SetAnnouncer(nil)
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.ws.Close()
}
