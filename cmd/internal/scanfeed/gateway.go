package scanfeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultQueueSize    = 64
)

// Gateway upgrades dashboard connections and streams hub broadcasts to them.
// The feed is one-way: inbound frames are drained only to detect close.
type Gateway struct {
	log *slog.Logger
	hub *Hub

	writeTimeout time.Duration
	queueSize    int
}

// NewGateway constructs a Gateway over a hub.
func NewGateway(log *slog.Logger, hub *Hub) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log)
	}
	return &Gateway{
		log:          log,
		hub:          hub,
		writeTimeout: defaultWriteTimeout,
		queueSize:    defaultQueueSize,
	}
}

// Hub exposes the underlying hub for producers.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// HandleWS is the websocket endpoint. The operator name is supplied by the
// authentication middleware upstream; it is only used for logging.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Info("scanfeed.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	name := r.URL.Query().Get("name")
	client := NewClient(name, g.queueSize)
	g.hub.Subscribe(client)
	defer g.hub.Unsubscribe(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: drain inbound frames so pings and close handshakes work.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	g.log.Info("scanfeed.subscribe", "name", name, "subscribers", g.hub.Subscribers())

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			return
		case v := <-client.Send:
			b, err := json.Marshal(v)
			if err != nil {
				g.log.Warn("scanfeed.marshal.fail", "err", err)
				continue
			}
			if err := g.write(ctx, conn, b); err != nil {
				g.log.Info("scanfeed.write.fail", "name", name, "err", err)
				return
			}
		}
	}
}

func (g *Gateway) write(parent context.Context, conn *websocket.Conn, b []byte) error {
	ctx, cancel := context.WithTimeout(parent, g.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, b)
}
