package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	realtimeTopic     = "realtime:public"
	heartbeatInterval = 30 * time.Second
	reconnectDelay    = 5 * time.Second
)

type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// SubscribeChanges opens a websocket to the backend's change stream and
// invokes notify on every change event. The payload carries no guarantee
// beyond "something in the public schema changed", so it is discarded. The
// connection is re-dialed after errors until the context is cancelled or
// the returned function is called.
func (g *Gateway) SubscribeChanges(ctx context.Context, notify func()) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)
	go g.runChangeStream(streamCtx, notify)
	return cancel, nil
}

func (g *Gateway) runChangeStream(ctx context.Context, notify func()) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := g.consumeChangeStream(ctx, notify); err != nil && ctx.Err() == nil {
			g.logger.Warn("change stream disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (g *Gateway) consumeChangeStream(ctx context.Context, notify func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.websocketURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	join := realtimeMessage{Topic: realtimeTopic, Event: "phx_join", Payload: json.RawMessage(`{}`), Ref: "1"}
	if err := conn.WriteJSON(join); err != nil {
		return err
	}

	// The read loop owns the connection; heartbeats keep the upstream from
	// pruning an idle socket. Both helper goroutines are tied to connDone
	// so a dropped connection releases them, not just context cancellation.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-connDone:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				beat := realtimeMessage{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`)}
				if err := conn.WriteJSON(beat); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		select {
		case <-connDone:
		case <-ctx.Done():
			conn.Close()
		}
	}()

	for {
		var message realtimeMessage
		if err := conn.ReadJSON(&message); err != nil {
			return err
		}
		switch message.Event {
		case "phx_reply", "heartbeat", "presence_state", "presence_diff":
			continue
		}
		notify()
	}
}

func (g *Gateway) websocketURL() string {
	endpoint := strings.Replace(g.baseURL, "http", "ws", 1)
	return endpoint + "/realtime/v1/websocket?apikey=" + url.QueryEscape(g.anonKey) + "&vsn=1.0.0"
}
