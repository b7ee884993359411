package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/qrave1/peerlink/internal/application/config"
	"github.com/qrave1/peerlink/internal/application/constant"
	"github.com/qrave1/peerlink/internal/domain/events"
	"github.com/qrave1/peerlink/internal/domain/runtime"
	"github.com/qrave1/peerlink/internal/infra/adapters/memory"
	"github.com/qrave1/peerlink/internal/infra/appctx"
	"github.com/qrave1/peerlink/internal/usecase"
)

// WebSocketHandler binds an upgraded socket to a signaling connection
// and runs its read loop. Cleanup on close is unconditional: whatever
// ends the loop, the connection leaves its room exactly once.
type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	cfg *config.Config

	signalingUsecase usecase.SignalingUsecase

	connRepo memory.ConnectionRepository
}

func NewWebSocketHandler(
	cfg *config.Config,
	signalingUsecase usecase.SignalingUsecase,
	connRepo memory.ConnectionRepository,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		cfg:              cfg,
		signalingUsecase: signalingUsecase,
		connRepo:         connRepo,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return err
	}

	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		ws.Close()
		return fmt.Errorf("get user id from context")
	}

	conn := runtime.NewConnection(userID)

	h.connRepo.Add(conn.ID, ws)

	defer h.connRepo.Remove(conn.ID)
	defer h.signalingUsecase.HandleDisconnect(c.Request().Context(), conn)

	slog.Info(
		"WebSocket connection established",
		slog.Any(constant.ConnID, conn.ID),
		slog.Any(constant.UserID, userID),
	)

	if err = ws.SetReadDeadline(time.Now().Add(h.cfg.Signaling.ReadDeadline)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(h.cfg.Signaling.ReadDeadline))
		return nil
	})

	ticker := time.NewTicker(h.cfg.Signaling.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(h.cfg.Signaling.WriteTimeout)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			h.handleWebsocketError(conn, err)
			return nil
		}

		signalMessage := new(events.Message)

		if err = json.Unmarshal(msg, signalMessage); err != nil {
			slog.Warn("unmarshal websocket message", slog.Any(constant.Error, err), slog.Any(constant.ConnID, conn.ID))

			h.signalingUsecase.HandleError(c.Request().Context(), conn, "malformed message")
			continue
		}

		if err = h.handleMessage(c.Request().Context(), conn, signalMessage); err != nil {
			slog.Error("handle message", slog.Any(constant.Error, err), slog.Any(constant.ConnID, conn.ID))
		}
	}
}

func (h *WebSocketHandler) handleMessage(
	ctx context.Context,
	conn *runtime.Connection,
	msg *events.Message,
) error {
	switch msg.Type {
	case events.TypeJoinRoom:
		var join events.JoinEvent

		if err := json.Unmarshal(msg.Data, &join); err != nil {
			h.signalingUsecase.HandleError(ctx, conn, "malformed join-room payload")
			return nil
		}

		if err := h.signalingUsecase.HandleJoin(ctx, conn, join); err != nil {
			return fmt.Errorf("handle join: %w", err)
		}

	case events.TypeOffer:
		var offer events.OfferEvent

		if err := json.Unmarshal(msg.Data, &offer); err != nil {
			h.signalingUsecase.HandleError(ctx, conn, "malformed offer payload")
			return nil
		}

		if err := h.signalingUsecase.HandleOffer(ctx, conn, offer); err != nil {
			return fmt.Errorf("handle offer: %w", err)
		}

	case events.TypeAnswer:
		var answer events.AnswerEvent

		if err := json.Unmarshal(msg.Data, &answer); err != nil {
			h.signalingUsecase.HandleError(ctx, conn, "malformed answer payload")
			return nil
		}

		if err := h.signalingUsecase.HandleAnswer(ctx, conn, answer); err != nil {
			return fmt.Errorf("handle answer: %w", err)
		}

	case events.TypeCandidate:
		var candidate events.CandidateEvent

		if err := json.Unmarshal(msg.Data, &candidate); err != nil {
			h.signalingUsecase.HandleError(ctx, conn, "malformed candidate payload")
			return nil
		}

		if err := h.signalingUsecase.HandleCandidate(ctx, conn, candidate); err != nil {
			return fmt.Errorf("handle candidate: %w", err)
		}

	default:
		h.signalingUsecase.HandleError(ctx, conn, "unknown message type")
	}

	return nil
}

func (h *WebSocketHandler) handleWebsocketError(conn *runtime.Connection, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			slog.Info("client disconnected from websocket", slog.Any(constant.ConnID, conn.ID))
		default:
			slog.Error("websocket close error", slog.Int("code", closeErr.Code), slog.Any(constant.ConnID, conn.ID))
		}
	} else {
		slog.Error(
			"websocket read",
			slog.Any(constant.Error, err),
			slog.Any(constant.ConnID, conn.ID),
		)
	}
}
