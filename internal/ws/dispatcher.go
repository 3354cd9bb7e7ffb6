package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"ordercastgo/internal/auth"
)

// Dispatcher translates a domain event into one or more room
// broadcasts. Every method is fire-and-forget: delivery is best-effort
// to whoever is a room member at call time, and nothing here ever
// propagates an error back to the business-logic caller.
type Dispatcher struct {
	hub *Hub
}

func NewDispatcher(h *Hub) *Dispatcher { return &Dispatcher{hub: h} }

// OrderStatusChanged fans a status transition out to everyone tracking
// the order, the owning customer, and all admins. A connection that is
// a member of more than one target room receives one copy per
// membership; no deduplication is attempted.
func (d *Dispatcher) OrderStatusChanged(orderID, ownerUserID string, p OrderStatusPayload) {
	msg, ok := d.encode(EventOrderStatusUpdate, p)
	if !ok {
		return
	}
	d.hub.Broadcast(OrderRoom(orderID), msg)
	d.hub.Broadcast(UserRoom(ownerUserID), msg)
	d.hub.Broadcast(RoleRoom(auth.RoleAdmin), msg)
}

// NewOrder tells all connected admins about a freshly placed order.
func (d *Dispatcher) NewOrder(p NewOrderPayload) {
	if msg, ok := d.encode(EventNewOrder, p); ok {
		d.hub.Broadcast(RoleRoom(auth.RoleAdmin), msg)
	}
}

// NotifyUser delivers a notification to one user's connections.
func (d *Dispatcher) NotifyUser(userID string, p NotificationPayload) {
	if msg, ok := d.encode(EventNotification, p); ok {
		d.hub.Broadcast(UserRoom(userID), msg)
	}
}

// NotifyRole delivers a notification to every connection holding a role.
func (d *Dispatcher) NotifyRole(role string, p NotificationPayload) {
	if msg, ok := d.encode(EventNotification, p); ok {
		d.hub.Broadcast(RoleRoom(role), msg)
	}
}

func (d *Dispatcher) encode(event string, body any) ([]byte, bool) {
	raw, err := json.Marshal(body)
	if err != nil {
		zap.L().Warn("ws.encode_event", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	msg, err := json.Marshal(Envelope{Event: event, Body: raw})
	if err != nil {
		zap.L().Warn("ws.encode_envelope", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return msg, true
}
