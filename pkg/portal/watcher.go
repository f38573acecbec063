package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventHandler receives change events from the portal's websocket feed.
type EventHandler func(event *ChangeEvent)

// EventWatcher subscribes to the portal's /events websocket feed so callers
// can refresh local state when another session mutates a release.
type EventWatcher struct {
	baseURL  string
	conn     *websocket.Conn
	handlers []EventHandler
	mu       sync.Mutex
	writeMu  sync.Mutex
	done     chan struct{}
}

func NewEventWatcher(baseURL string) *EventWatcher {
	return &EventWatcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		done:    make(chan struct{}),
	}
}

func (w *EventWatcher) OnEvent(handler EventHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

func (w *EventWatcher) Connect(ctx context.Context) error {
	wsURL := strings.Replace(w.baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = wsURL + "/events"

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	w.conn = conn

	return nil
}

// Listen blocks reading events until the context is cancelled, Close is
// called, or the connection drops.
func (w *EventWatcher) Listen(ctx context.Context) error {
	go w.pingLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		default:
			w.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, message, err := w.conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return fmt.Errorf("read message: %w", err)
			}

			var event ChangeEvent
			if err := json.Unmarshal(message, &event); err != nil {
				continue
			}

			w.mu.Lock()
			handlers := make([]EventHandler, len(w.handlers))
			copy(handlers, w.handlers)
			w.mu.Unlock()

			for _, handler := range handlers {
				handler(&event)
			}
		}
	}
}

func (w *EventWatcher) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.writeMu.Lock()
			w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := w.conn.WriteMessage(websocket.PingMessage, nil)
			w.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (w *EventWatcher) Close() error {
	close(w.done)
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}
