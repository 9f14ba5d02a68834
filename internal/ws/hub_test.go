package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/creator-escrow/internal/models"
	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
)

func newTestClient(hub *Hub, chat ChatSink, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		chat:   chat,
		userID: userID,
		send:   make(chan []byte, 4),
		done:   make(chan struct{}),
	}
}

func readFrame(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("кадр не доставлен")
		return envelope{}
	}
}

func TestHub_BroadcastToUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(ctx)
	go hub.Run()

	userID := uuid.New()
	client := newTestClient(hub, nil, userID)
	hub.Register(client)

	require.NoError(t, hub.BroadcastToUser(userID, "milestone.released", map[string]int{"step": 2}))

	env := readFrame(t, client)
	assert.Equal(t, "milestone.released", env.Type)
	assert.JSONEq(t, `{"step":2}`, string(env.Data))
	assert.True(t, hub.Online(userID))
	assert.False(t, hub.Online(uuid.New()))
}

func TestHub_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)
	cancel()
	hub.Run()

	// После остановки хаба отправка не блокируется.
	for i := 0; i < 100; i++ {
		_ = hub.BroadcastToUser(uuid.New(), "order.accepted", nil)
	}
}

type stubChat struct {
	got  chatFrame
	from uuid.UUID
	err  error
}

func (s *stubChat) Append(ctx context.Context, orderID, senderID uuid.UUID, text string) (*models.ChatMessage, error) {
	s.got = chatFrame{OrderID: orderID, Text: text}
	s.from = senderID
	if s.err != nil {
		return nil, s.err
	}
	return &models.ChatMessage{ID: uuid.New(), OrderID: orderID, SenderID: senderID, Text: text}, nil
}

func TestClient_HandleChatMessage(t *testing.T) {
	chat := &stubChat{}
	userID := uuid.New()
	client := newTestClient(nil, chat, userID)
	orderID := uuid.New()

	client.handle(context.Background(), []byte(`{"type":"chat.message","data":{"order_id":"`+orderID.String()+`","text":"Привет"}}`))

	assert.Equal(t, orderID, chat.got.OrderID)
	assert.Equal(t, "Привет", chat.got.Text)
	assert.Equal(t, userID, chat.from)
	assert.Equal(t, EventChatMessage, readFrame(t, client).Type)
}

func TestClient_HandleErrors(t *testing.T) {
	chat := &stubChat{err: apperror.ErrNotParticipant}
	client := newTestClient(nil, chat, uuid.New())

	cases := map[string]string{
		"not json":      `hello`,
		"unknown type":  `{"type":"typing"}`,
		"missing order": `{"type":"chat.message","data":{"text":"x"}}`,
		"forbidden":     `{"type":"chat.message","data":{"order_id":"` + uuid.NewString() + `","text":"x"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			client.handle(context.Background(), []byte(raw))
			env := readFrame(t, client)
			assert.Equal(t, EventError, env.Type)

			var frame errorFrame
			require.NoError(t, json.Unmarshal(env.Data, &frame))
			assert.NotEmpty(t, frame.Code)
		})
	}
}
