package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/hackathon-registration/live"
	"github.com/Dosada05/hackathon-registration/middleware"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts connections whose Origin is one of
// allowedOrigins. Requests without an Origin header (non-browser clients) are
// accepted too.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		logger: logger,
	}
}

// ServeWs streams registration.created events to an authenticated organizer.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	var attrs []any
	if email, err := middleware.GetUserEmailFromContext(r.Context()); err != nil {
		h.logger.Warn("live feed connection without organizer identity", slog.Any("error", err))
	} else {
		attrs = append(attrs, slog.String("email", email))
	}

	client := live.NewClient(h.hub, conn)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	h.logger.Info("organizer connected to live feed", attrs...)

	go client.WritePump()
	go client.ReadPump()
}
