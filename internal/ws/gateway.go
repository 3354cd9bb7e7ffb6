package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ordercastgo/internal/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

// Gateway turns an inbound WS handshake into an authenticated,
// room-placed connection, and routes the client's joinOrder/leaveOrder
// actions.
type Gateway struct {
	hub      *Hub
	router   *Router
	verifier *auth.Verifier
}

func NewGateway(h *Hub, verifier *auth.Verifier) *Gateway {
	gw := &Gateway{
		hub:      h,
		router:   NewRouter(),
		verifier: verifier,
	}
	gw.registerHandlers() // ← all WS actions configured here
	return gw
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle authenticates the bearer token supplied as a query parameter
// and, only on success, upgrades the connection and joins it to its
// baseline user and role rooms. A rejected credential never acquires
// any room membership.
func (g *Gateway) Handle(ginCtx *gin.Context) {
	principal, err := g.verifier.Authenticate(ginCtx.Request.Context(), ginCtx.Query("token"))
	if err != nil {
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	// ─────────────────── Client joined ────────────────────────
	c := newClientConn(rawConn, principal)
	g.hub.Join(UserRoom(principal.ID), c)
	g.hub.Join(RoleRoom(principal.Role), c)
	zap.L().Debug("ws.connected",
		zap.String("conn_id", c.id.String()),
		zap.String("user_id", principal.ID),
		zap.String("role", principal.Role),
	)

	go g.reader(c)
	go g.pinger(c)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (g *Gateway) registerHandlers() {
	// 🔹 joinOrder ------------------------------------------------------------
	Register(
		g.router,
		eventJoinOrder,
		func(_ context.Context, cc *ConnContext, req JoinOrderBody) (AckBody, error) {
			if req.OrderID == "" {
				return AckBody{}, errors.New("order_id_required")
			}
			// Authenticated is the only gate here; order-level access
			// control belongs to the handler that issued the order id.
			cc.gateway.hub.Join(OrderRoom(req.OrderID), cc.conn)
			return AckBody{}, nil
		},
	)

	// 🔹 leaveOrder -----------------------------------------------------------
	Register(
		g.router,
		eventLeaveOrder,
		func(_ context.Context, cc *ConnContext, req JoinOrderBody) (AckBody, error) {
			if req.OrderID == "" {
				return AckBody{}, errors.New("order_id_required")
			}
			cc.gateway.hub.Leave(OrderRoom(req.OrderID), cc.conn)
			return AckBody{}, nil
		},
	)
}

// disconnect removes the connection from every room and closes the
// socket. Safe to call more than once; close-from-both-ends races end
// up here twice and the second call is a no-op.
func (g *Gateway) disconnect(c *clientConn) {
	g.hub.Remove(c)
	c.kill()
}

func (g *Gateway) reader(c *clientConn) {
	defer g.disconnect(c)

	cc := &ConnContext{Principal: c.principal, conn: c, gateway: g}

	_ = c.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	c.rawConn.SetPongHandler(func(string) error {
		return c.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.rawConn.ReadJSON(&env); err != nil {
			return // client closed, errored, or missed its pongs
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		res, err := g.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			_ = c.writeJSON(map[string]any{
				"event": "error",
				"body":  ErrorBody{Error: err.Error()},
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = c.writeJSON(reply)
	}
}

func (g *Gateway) pinger(c *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := c.ping(); err != nil {
			c.kill() // reader unblocks and runs the room cleanup
			return
		}
	}
}
