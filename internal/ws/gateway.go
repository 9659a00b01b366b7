package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// Gateway accepts live connections. Identity comes from the same bearer
// token used by the REST surface, never from a client-claimed user id.
// A connection without a token stays anonymous: it receives presence
// broadcasts but is not registered and gets no message pushes.
type Gateway struct {
	hub     *Hub
	tokens  *auth.TokenService
	users   repositories.UserRepository
	emitter *telemetry.AuditEmitter
	log     *zap.Logger
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, tokens *auth.TokenService, users repositories.UserRepository, emitter *telemetry.AuditEmitter, log *zap.Logger) *Gateway {
	return &Gateway{hub: hub, tokens: tokens, users: users, emitter: emitter, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers the authenticated user and
// runs the read loop until the transport closes.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var userID int64
	if token := bearerToken(c); token != "" {
		id, err := g.tokens.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		if _, err := g.users.GetByID(ctx, id); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		userID = id
	}

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := NewConn(raw)

	connID := newConnID()
	connectedAt := time.Now()
	requestID := observability.RequestIDFromRequest(c.Request)

	if userID != 0 {
		g.hub.Register(userID, conn)
	} else {
		g.hub.AddWatcher(conn)
	}
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.emitter.Emit(ctx, "INFO", "ws_connect conn="+connID, requestID, auditUserID(userID))
	g.log.Info("websocket connected",
		zap.String("conn_id", connID),
		zap.Int64("user_id", userID),
		zap.String("ip", observability.IPFromRequest(c.Request)),
	)

	go func() {
		defer func() {
			if userID != 0 {
				g.hub.Deregister(userID, conn)
			} else {
				g.hub.RemoveWatcher(conn)
			}
			conn.Close()
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			g.emitter.Emit(ctx, "INFO", "ws_disconnect conn="+connID, requestID, auditUserID(userID))
			g.log.Info("websocket disconnected",
				zap.String("conn_id", connID),
				zap.Int64("user_id", userID),
				zap.Duration("duration", time.Since(connectedAt)),
			)
		}()
		for {
			// No client events are defined beyond the handshake; the read
			// loop only detects the close.
			if _, _, err := raw.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func auditUserID(userID int64) *int64 {
	if userID == 0 {
		return nil
	}
	return &userID
}
