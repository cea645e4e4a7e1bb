package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/wire"
	"go.uber.org/zap"
)

type WebSocketSettings struct {
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

func (s WebSocketSettings) pingPeriod() time.Duration {
	return s.PongWait * 9 / 10
}

type WebSocketServer struct {
	logger   *zap.Logger
	upgrader *websocket.Upgrader
	settings WebSocketSettings

	gateway *gateway.Gateway
	router  *Router
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	settings WebSocketSettings,
	gateway *gateway.Gateway,
	router *Router,
) *WebSocketServer {
	return &WebSocketServer{
		logger,
		upgrader,
		settings,
		gateway,
		router,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/websocket", s.serve).Methods(http.MethodGet)
}

func (s *WebSocketServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	connection, err := s.gateway.Connect()
	if err != nil {
		s.logger.Error("failed to register websocket connection", zap.Error(err))
		conn.Close()
		return
	}

	logger := s.logger.With(
		zap.String("connectionId", connection.Id),
		zap.String("clientIp", clientIp(r)))

	logger.Info("websocket connection established")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(conn, connection)
	}()

	s.readPump(gateway.WithConnection(r.Context(), connection), logger, conn, connection)

	s.gateway.Disconnect(connection.Id)
	<-writerDone

	logger.Info("websocket connection closed")
}

func (s *WebSocketServer) readPump(
	ctx context.Context,
	logger *zap.Logger,
	conn *websocket.Conn,
	connection *gateway.Connection,
) {
	conn.SetReadLimit(s.settings.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.settings.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.settings.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Anything but an orderly close is a fault: read limit, missed pong, reset.
			// A connection the gateway already closed is hung up by its writer.
			if connection.State() != gateway.StateClosed && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				s.gateway.TransportError(connection.Id, err)
			}

			return
		}

		var frame wire.Frame
		err = json.Unmarshal(data, &frame)
		if err != nil || frame.Event == "" {
			logger.Debug("malformed frame received", zap.ByteString("data", data))

			s.reply(logger, connection,
				wire.NewErrorFrame(ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("malformed frame"))))

			continue
		}

		s.reply(logger, connection, s.router.RouteFrame(ctx, frame))
	}
}

// writePump is the only writer on conn. It exits once the gateway closes the send channel
// or a write fails.
func (s *WebSocketServer) writePump(conn *websocket.Conn, connection *gateway.Connection) {
	ticker := time.NewTicker(s.settings.pingPeriod())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-connection.Send:
			conn.SetWriteDeadline(time.Now().Add(s.settings.WriteWait))

			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

				return
			}

			err := conn.WriteJSON(frame)
			if err != nil {
				s.gateway.TransportError(connection.Id, err)

				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.settings.WriteWait))

			err := conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				s.gateway.TransportError(connection.Id, err)

				return
			}
		}
	}
}

func (s *WebSocketServer) reply(logger *zap.Logger, connection *gateway.Connection, frame wire.Frame) {
	err := s.gateway.Push(connection.Id, frame)
	if err != nil {
		logger.Debug("reply dropped", zap.String("event", frame.Event), zap.Error(err))
	}
}

func clientIp(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
