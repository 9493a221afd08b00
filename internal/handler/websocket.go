package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/keyboard"
	"github.com/coderunr/editor/internal/session"
	"github.com/coderunr/editor/internal/types"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsReadTimeout  = 5 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSIncoming is a message from the editor view
type WSIncoming struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Language string `json:"language,omitempty"`
	Key      string `json:"key,omitempty"`
}

// WSOutgoing is a message to the editor view
type WSOutgoing struct {
	Type         string              `json:"type"`
	View         *display.View       `json:"view,omitempty"`
	Buffer       *session.Contents   `json:"buffer,omitempty"`
	Notification *types.Notification `json:"notification,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// wsView is one attached editor view
type wsView struct {
	conn     *websocket.Conn
	session  *session.Session
	eventBus chan WSOutgoing
	logger   *logrus.Entry
	mutex    sync.Mutex
	closed   bool
}

// HandleWebSocket attaches an editor view to a session. The session's keyboard
// shortcut is mounted for as long as the connection is open.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	view := &wsView{
		conn:     conn,
		session:  s,
		eventBus: make(chan WSOutgoing, 100),
		logger:   h.logger.WithFields(logrus.Fields{"component": "websocket", "session_id": s.ID}),
	}

	go view.eventSender()

	unmount := s.Mount()
	unsubscribeState := s.Controller.Subscribe(view.sendState)
	unsubscribeNotes := s.Notifications(func(n types.Notification) {
		view.sendMessage(WSOutgoing{Type: "notification", Notification: &n})
	})
	stop := make(chan struct{})
	defer func() {
		close(stop)
		unsubscribeNotes()
		unsubscribeState()
		unmount()
		view.close()
	}()

	view.sendBuffer()
	view.sendState(s.Controller.State())

	// A removed session detaches its views
	go func() {
		select {
		case <-s.Done():
			view.sendError("Session closed")
			view.close()
		case <-stop:
		}
	}()

	view.handleMessages()
}

// handleMessages handles incoming WebSocket messages until the peer goes away
func (v *wsView) handleMessages() {
	v.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	for {
		var msg WSIncoming
		if err := v.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.logger.WithError(err).Warn("WebSocket read error")
			}
			return
		}

		v.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		v.handleMessage(msg)
	}
}

// handleMessage handles a single WebSocket message
func (v *wsView) handleMessage(msg WSIncoming) {
	switch msg.Type {
	case "source":
		v.session.Buffer.SetSource(msg.Content)
	case "stdin":
		v.session.Buffer.SetStdin(msg.Content)
	case "language":
		if err := v.session.Buffer.SetLanguage(msg.Language); err != nil {
			v.sendError(err.Error())
			return
		}
		v.sendBuffer()
	case "keydown":
		v.session.Keys.Dispatch(keyboard.Event{Key: keyboard.Key(msg.Key)})
	case "run":
		v.session.Trigger()
	default:
		v.sendError("Unknown message type: " + msg.Type)
	}
}

func (v *wsView) sendState(state types.RunState) {
	view := display.Project(state)
	v.sendMessage(WSOutgoing{Type: "state", View: &view})
}

func (v *wsView) sendBuffer() {
	contents := v.session.Buffer.Contents()
	v.sendMessage(WSOutgoing{Type: "buffer", Buffer: &contents})
}

func (v *wsView) sendError(message string) {
	v.sendMessage(WSOutgoing{Type: "error", Message: message})
}

// sendMessage queues a message for the client
func (v *wsView) sendMessage(msg WSOutgoing) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.closed {
		return
	}

	select {
	case v.eventBus <- msg:
	default:
		v.logger.Warn("Event bus full, dropping message")
	}
}

// eventSender writes queued messages to the client
func (v *wsView) eventSender() {
	for msg := range v.eventBus {
		v.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := v.conn.WriteJSON(msg); err != nil {
			v.logger.WithError(err).Debug("Failed to send WebSocket message")
			v.conn.Close()
			return
		}
	}

	v.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	v.conn.Close()
}

// close stops accepting messages; the sender flushes the queue and closes the connection
func (v *wsView) close() {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.closed {
		return
	}

	v.closed = true
	close(v.eventBus)
	v.logger.Debug("View detached")
}
