package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func setupGatewayServer(t *testing.T, hub *Hub, tokens *auth.TokenService, users *mocks.UserRepositoryMock) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	gateway := NewGateway(hub, tokens, users, nil, zap.NewNop())
	r.GET("/ws", gateway.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt models.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestGatewayRegistersAuthenticatedConnection(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := new(mocks.UserRepositoryMock)
	hub := NewHub(zap.NewNop())
	srv := setupGatewayServer(t, hub, tokens, users)

	token, err := tokens.Mint(2)
	require.NoError(t, err)
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Once()

	conn := dialWS(t, srv, "?token="+token)

	evt := readEvent(t, conn)
	assert.Equal(t, models.EventOnlineUsers, evt.Type)
	assert.Contains(t, evt.OnlineUsers, int64(2))

	require.Eventually(t, func() bool {
		_, ok := hub.Lookup(2)
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestGatewayPushesMessageToRecipient(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := new(mocks.UserRepositoryMock)
	hub := NewHub(zap.NewNop())
	srv := setupGatewayServer(t, hub, tokens, users)

	token, err := tokens.Mint(2)
	require.NoError(t, err)
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Once()

	conn := dialWS(t, srv, "?token="+token)
	// First frame is the presence snapshot.
	require.Equal(t, models.EventOnlineUsers, readEvent(t, conn).Type)

	msg := models.Message{ID: 7, SenderID: 1, ReceiverID: 2, Text: "hello"}
	delivered := hub.SendToUser(2, models.Event{Type: models.EventNewMessage, Message: &msg})
	require.True(t, delivered)

	evt := readEvent(t, conn)
	assert.Equal(t, models.EventNewMessage, evt.Type)
	require.NotNil(t, evt.Message)
	assert.Equal(t, "hello", evt.Message.Text)
	assert.False(t, evt.Message.Seen)
}

func TestGatewayAnonymousConnectionGetsBroadcasts(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := new(mocks.UserRepositoryMock)
	hub := NewHub(zap.NewNop())
	srv := setupGatewayServer(t, hub, tokens, users)

	conn := dialWS(t, srv, "")

	evt := readEvent(t, conn)
	assert.Equal(t, models.EventOnlineUsers, evt.Type)
	assert.Empty(t, evt.OnlineUsers)
	assert.Empty(t, hub.Online())
}

func TestGatewayRejectsInvalidToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := new(mocks.UserRepositoryMock)
	hub := NewHub(zap.NewNop())
	srv := setupGatewayServer(t, hub, tokens, users)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Empty(t, hub.Online())
}

func TestGatewayDeregistersOnClose(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := new(mocks.UserRepositoryMock)
	hub := NewHub(zap.NewNop())
	srv := setupGatewayServer(t, hub, tokens, users)

	token, err := tokens.Mint(2)
	require.NoError(t, err)
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Once()

	conn := dialWS(t, srv, "?token="+token)
	require.Equal(t, models.EventOnlineUsers, readEvent(t, conn).Type)
	conn.Close()

	require.Eventually(t, func() bool {
		_, ok := hub.Lookup(2)
		return !ok
	}, time.Second, 10*time.Millisecond)
}
