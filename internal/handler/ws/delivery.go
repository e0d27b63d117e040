package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/domain/registry"
	wsmarshaller "github.com/carrec/platform/internal/handler/marshaller/ws"
	"github.com/carrec/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	logger     *slog.Logger
	deliverer  service.Deliverer
	ingester   service.Ingester
	upgrader   websocket.Upgrader
	instanceID string

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
	maxMessage int64
}

func NewWSHandler(cfg *config.Config, logger *slog.Logger, deliverer service.Deliverer, ingester service.Ingester) *WSHandler {
	return &WSHandler{
		logger:    logger.With("component", "ws"),
		deliverer: deliverer,
		ingester:  ingester,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS layer in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		instanceID: cfg.Service.InstanceID,
		writeWait:  cfg.Stream.WriteWait,
		pongWait:   cfg.Stream.PongWait,
		pingPeriod: cfg.Stream.PongWait * 9 / 10,
		maxMessage: cfg.Stream.MaxMessageSize,
	}
}

// Routes mounts the post and global comment streams.
func (h *WSHandler) Routes(r chi.Router) {
	r.Get("/ws/api/posts/{postID}/comments", h.ServePost)
	r.Get("/ws/api/comments", h.ServeGlobal)
}

func (h *WSHandler) ServePost(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || postID <= 0 {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}
	h.serve(w, r, model.PostStreamKey(postID))
}

func (h *WSHandler) ServeGlobal(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, model.GlobalStreamKey)
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, key model.StreamKey) {
	// 1. UPGRADE TO WEBSOCKET
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WS_UPGRADE_FAILED", "err", err, "stream", key)
		return
	}
	defer ws.Close()

	// 2. ATTACH TO THE REGISTRY
	ctx := r.Context()
	conn, err := h.deliverer.Subscribe(ctx, key)
	if err != nil {
		h.logger.Error("WS_SUBSCRIBE_FAILED", "err", err, "stream", key)
		return
	}
	defer h.deliverer.Unsubscribe(conn)

	log := h.logger.With("conn_id", conn.GetID(), "stream", key)
	log.Info("WS_OPENED")

	conn.Send(event.NewSystemEvent(event.Connected, &model.ConnectedPayload{
		Ok:           true,
		ConnectionID: conn.GetID().String(),
		Stream:       key.String(),
		InstanceID:   h.instanceID,
	}))

	// 3. PUMPS: the read pump is the only reader, the write pump the only
	// writer of ws.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		h.readPump(ctx, ws, conn, log)
	}()

	h.writePump(ws, conn, log)

	// Unblocks a read pump still waiting on the socket.
	_ = ws.Close()
	<-readDone
	log.Info("WS_CLOSED", "dropped", conn.Dropped())
}

// readPump turns every inbound text frame into one submission. Outcomes the
// sender must see are queued on its own connection only.
func (h *WSHandler) readPump(ctx context.Context, ws *websocket.Conn, conn registry.Connector, log *slog.Logger) {
	// The connection is gone as soon as the peer is.
	defer h.deliverer.Unsubscribe(conn)

	if h.maxMessage > 0 {
		ws.SetReadLimit(h.maxMessage)
	}
	extend := func() {
		if h.pongWait > 0 {
			_ = ws.SetReadDeadline(time.Now().Add(h.pongWait))
		}
	}
	extend()
	ws.SetPongHandler(func(string) error { extend(); return nil })

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug("WS_READ_FAILED", "err", err)
			}
			return
		}
		extend()

		reply := h.outcome(ctx, conn.GetStreamKey(), raw)
		if reply == nil {
			continue
		}
		if !conn.Send(reply) {
			return
		}
	}
}

// outcome ingests raw and returns the frame owed to the sender, if any.
func (h *WSHandler) outcome(ctx context.Context, key model.StreamKey, raw []byte) event.Eventer {
	_, err := h.ingester.Ingest(ctx, key, raw)
	if err == nil {
		return nil
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return event.NewSystemEvent(event.CommentRejected, &model.RejectedPayload{
			Field:  ve.Field,
			Reason: ve.Error(),
		})
	}

	reason := "comment could not be stored"
	if errors.Is(err, model.ErrNotFound) {
		reason = "post not found"
	}
	return event.NewSystemEvent(event.CommentFailed, &model.FailedPayload{
		Status: "error",
		Reason: reason,
	})
}

func (h *WSHandler) writePump(ws *websocket.Conn, conn registry.Connector, log *slog.Logger) {
	var tick <-chan time.Time
	if h.pingPeriod > 0 {
		ticker := time.NewTicker(h.pingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	deadline := func() {
		if h.writeWait > 0 {
			_ = ws.SetWriteDeadline(time.Now().Add(h.writeWait))
		}
	}

	for {
		select {
		case ev, ok := <-conn.Recv():
			deadline()
			if !ok {
				// Closed by the hub (eviction, shutdown) or by the read pump.
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			data, err := wsmarshaller.MarshalEvent(ev)
			if err != nil {
				log.Error("WS_MARSHAL_FAILED", "err", err, "kind", ev.GetKind().String())
				continue
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("WS_WRITE_FAILED", "err", err)
				return
			}

		case <-tick:
			deadline()
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("WS_PING_FAILED", "err", err)
				return
			}
		}
	}
}
