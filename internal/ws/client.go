package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/creator-escrow/internal/goroutine"
	"github.com/ignatzorin/creator-escrow/internal/logger"
	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Входящие кадры от клиента.
const (
	EventChatMessage = "chat.message"
	EventError       = "error"
)

// ChatSink принимает сообщения чата, пришедшие по WebSocket.
type ChatSink interface {
	Append(ctx context.Context, orderID, senderID uuid.UUID, text string) (*models.ChatMessage, error)
}

type chatFrame struct {
	OrderID uuid.UUID `json:"order_id"`
	Text    string    `json:"text"`
}

// Client представляет одно подключение WebSocket.
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	chat      ChatSink
	userID    uuid.UUID
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, chat ChatSink, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		chat:   chat,
		userID: userID,
		send:   make(chan []byte, 32),
		done:   make(chan struct{}),
	}
}

// Run запускает обработку входящих и исходящих сообщений.
func (c *Client) Run(ctx context.Context) {
	goroutine.SafeGoNamed("ws_write_pump", c.writePump)
	c.readPump(ctx)
}

// Close закрывает соединение.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithField("user_id", c.userID).WithError(err).Debug("ws: соединение разорвано")
			}
			return
		}
		c.handle(ctx, raw)
	}
}

// handle разбирает входящий кадр. Ошибка уходит только отправителю.
func (c *Client) handle(ctx context.Context, raw []byte) {
	var in envelope
	if err := json.Unmarshal(raw, &in); err != nil {
		c.reply(EventError, apperror.Validation("некорректный формат сообщения"))
		return
	}

	switch in.Type {
	case EventChatMessage:
		var frame chatFrame
		if err := json.Unmarshal(in.Data, &frame); err != nil || frame.OrderID == uuid.Nil {
			c.reply(EventError, apperror.Validation("укажите заказ и текст сообщения"))
			return
		}
		msg, err := c.chat.Append(ctx, frame.OrderID, c.userID, frame.Text)
		if err != nil {
			c.reply(EventError, err)
			return
		}
		c.reply(EventChatMessage, msg)
	default:
		c.reply(EventError, apperror.Validation("неизвестный тип сообщения"))
	}
}

type errorFrame struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) reply(event string, data any) {
	if err, ok := data.(error); ok {
		frame := errorFrame{Code: string(apperror.ErrCodeInternal), Message: "внутренняя ошибка сервера"}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code != apperror.ErrCodeInternal {
			frame = errorFrame{Code: string(appErr.Code), Message: appErr.Message}
		}
		data = frame
	}

	raw, err := encode(event, data)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	case <-c.done:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
