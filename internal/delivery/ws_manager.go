package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"

	"realtime-ws/internal/broadcast"
	"realtime-ws/internal/domain"
	"realtime-ws/internal/registry"
	"realtime-ws/internal/service"
)

// WSManager is the ingress step of the event router: per inbound frame it
// extracts parameters and calls exactly one service method. It never touches
// the broadcast primitive directly; pushes reach clients only through
// DeliverLocal, which the broadcast subscription drives.
type WSManager struct {
	registry   *registry.Registry
	chat       *service.Chat
	presence   *service.Presence
	heartbeat  time.Duration
	sendBuffer int
	logger     *slog.Logger
}

func NewWSManager(reg *registry.Registry, chat *service.Chat, presence *service.Presence, heartbeat time.Duration, sendBuffer int) *WSManager {
	return &WSManager{
		registry:   reg,
		chat:       chat,
		presence:   presence,
		heartbeat:  heartbeat,
		sendBuffer: sendBuffer,
		logger:     slog.Default().With("component", "ws_manager"),
	}
}

// HandleConnection owns the socket for its lifetime: it registers the
// connection, runs the read loop, and tears everything down on exit.
func (m *WSManager) HandleConnection(c *websocket.Conn, identity domain.Identity) {
	ctx := context.Background()

	conn := registry.NewConnection(identity, m.sendBuffer, func() { _ = c.Close() })
	conn.Join(domain.UserRoom(identity.UserID))
	m.registry.Register(conn)
	go m.writeLoop(c, conn)
	defer m.teardown(ctx, conn)

	m.logger.Info("client connected",
		"user_id", identity.UserID,
		"device_id", identity.DeviceID,
		"connection_id", conn.ID)

	// Connection open counts as the first heartbeat. A store failure here
	// degrades presence, not connectivity, so the session continues.
	if err := m.presence.Connect(ctx, identity.UserID); err != nil {
		m.logger.Warn("presence mark online failed", "user_id", identity.UserID, "error", err)
	}

	m.sendFrame(conn, domain.ServerFrame{
		Type: domain.FrameHello,
		Data: domain.HelloData{
			UserID:          identity.UserID,
			ConnectionID:    conn.ID,
			PingIntervalSec: int(m.heartbeat.Seconds()),
		},
	})

	for {
		_, payload, err := c.ReadMessage()
		if err != nil {
			m.logger.Info("client disconnected",
				"user_id", identity.UserID,
				"connection_id", conn.ID,
				"reason", err.Error())
			return
		}

		var frame domain.ClientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			m.sendError(conn, "malformed frame")
			continue
		}
		m.handleFrame(ctx, conn, frame)
	}
}

// writeLoop is the connection's single writer; it drains the outbox so no
// two goroutines ever write the socket concurrently.
func (m *WSManager) writeLoop(c *websocket.Conn, conn *registry.Connection) {
	for {
		select {
		case <-conn.Done():
			return
		case payload := <-conn.Outbox():
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// teardown deregisters synchronously before any offline bookkeeping runs,
// so no further local delivery is attempted on a dead handle. Idempotent.
func (m *WSManager) teardown(ctx context.Context, conn *registry.Connection) {
	wasLast := m.registry.Unregister(conn)
	conn.Close()

	if wasLast {
		// Graceful-close pathway. Ungraceful losses skip this and rely on
		// marker expiry instead.
		if err := m.presence.Disconnect(ctx, conn.Identity.UserID); err != nil {
			m.logger.Warn("presence mark offline failed",
				"user_id", conn.Identity.UserID,
				"error", err)
		}
	}
}

func (m *WSManager) handleFrame(ctx context.Context, conn *registry.Connection, frame domain.ClientFrame) {
	switch frame.Type {
	case domain.FramePing:
		// The marker refresh must not block the read loop. If it has not
		// completed before the next ping, the newer write simply supersedes
		// it; TTL refreshes are idempotent, so last-write-wins is safe.
		go func() {
			if err := m.presence.Heartbeat(context.Background(), conn.Identity.UserID); err != nil {
				m.logger.Warn("heartbeat refresh failed",
					"user_id", conn.Identity.UserID,
					"error", err)
			}
		}()
		m.sendFrame(conn, domain.ServerFrame{Type: domain.FramePong})

	case domain.FrameRoomJoin:
		if frame.ChatID == "" {
			m.sendError(conn, "chat_id is required")
			return
		}
		if err := m.chat.Join(ctx, conn.Identity, frame.ChatID); err != nil {
			m.sendServiceError(conn, err)
			return
		}
		conn.Join(domain.ChatRoom(frame.ChatID))
		m.sendFrame(conn, domain.ServerFrame{
			Type: domain.FrameRoomJoined,
			Data: map[string]string{"chat_id": frame.ChatID},
		})

	case domain.FrameRoomLeave:
		conn.Leave(domain.ChatRoom(frame.ChatID))
		m.sendFrame(conn, domain.ServerFrame{
			Type: domain.FrameRoomLeft,
			Data: map[string]string{"chat_id": frame.ChatID},
		})

	case domain.FrameSendMessage:
		var data domain.SendMessageData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			m.sendError(conn, "malformed send-message payload")
			return
		}
		msg, err := m.chat.SendMessage(ctx, conn.Identity, frame.ChatID, data.Content)
		if err != nil {
			m.sendServiceError(conn, err)
			return
		}
		// The message itself arrives through the broadcast path like it does
		// for everyone else; this only acknowledges acceptance.
		m.sendFrame(conn, domain.ServerFrame{
			Type: domain.FrameMessageQueued,
			Data: map[string]string{"id": msg.ID.String()},
		})

	case domain.FrameTyping:
		var data domain.TypingData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			m.sendError(conn, "malformed typing payload")
			return
		}
		if err := m.chat.SetTyping(ctx, conn.Identity, frame.ChatID, data.IsTyping); err != nil {
			m.sendServiceError(conn, err)
		}

	default:
		m.sendError(conn, "unknown frame type: "+frame.Type)
	}
}

// DeliverLocal performs this replica's share of a broadcast: it pushes the
// envelope to every local connection that has joined the room. A replica
// with no member of the room does nothing here.
func (m *WSManager) DeliverLocal(room string, env broadcast.Envelope) {
	frame := domain.ServerFrame{Type: env.Event, Data: env.Payload}
	payload, err := json.Marshal(frame)
	if err != nil {
		m.logger.Error("marshal push frame", "event", env.Event, "error", err)
		return
	}

	for _, conn := range m.registry.InRoom(room) {
		if !conn.Send(payload) {
			m.logger.Warn("dropping lagging connection",
				"user_id", conn.Identity.UserID,
				"connection_id", conn.ID)
			m.teardown(context.Background(), conn)
		}
	}
}

func (m *WSManager) sendFrame(conn *registry.Connection, frame domain.ServerFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		m.logger.Error("marshal frame", "type", frame.Type, "error", err)
		return
	}
	if !conn.Send(payload) {
		m.teardown(context.Background(), conn)
	}
}

func (m *WSManager) sendServiceError(conn *registry.Connection, err error) {
	switch {
	case errors.Is(err, service.ErrNotAMember), errors.Is(err, service.ErrEmptyContent):
		m.sendError(conn, err.Error())
	default:
		// Backbone trouble: degraded liveness, not a client mistake.
		m.logger.Warn("service call failed", "error", err)
		m.sendError(conn, "temporarily unavailable, retry")
	}
}

func (m *WSManager) sendError(conn *registry.Connection, msg string) {
	m.sendFrame(conn, domain.ServerFrame{Type: domain.FrameError, Error: msg})
}
