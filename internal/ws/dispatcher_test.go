package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercastgo/internal/auth"
)

func decodeEnvelope(t *testing.T, raw []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestDispatcher_OrderStatusChangedTargets(t *testing.T) {
	h := NewHub()
	d := NewDispatcher(h)

	owner := &stubMember{}   // user:u1 only
	admin := &stubMember{}   // role:admin only
	viewer := &stubMember{}  // order:RB-1001 only
	tracker := &stubMember{} // user:u1 AND order:RB-1001
	bystander := &stubMember{}

	h.Join(UserRoom("u1"), owner)
	h.Join(RoleRoom(auth.RoleAdmin), admin)
	h.Join(OrderRoom("RB-1001"), viewer)
	h.Join(UserRoom("u1"), tracker)
	h.Join(OrderRoom("RB-1001"), tracker)
	h.Join(UserRoom("u2"), bystander)

	d.OrderStatusChanged("RB-1001", "u1", OrderStatusPayload{
		OrderID:        "RB-1001",
		OrderNumber:    "RB-1001",
		Status:         "preparing",
		PreviousStatus: "confirmed",
	})

	// One copy per room-membership held, no deduplication.
	assert.Equal(t, 1, owner.received())
	assert.Equal(t, 1, admin.received())
	assert.Equal(t, 1, viewer.received())
	assert.Equal(t, 2, tracker.received())
	assert.Equal(t, 0, bystander.received())

	env := decodeEnvelope(t, owner.msgs[0])
	assert.Equal(t, EventOrderStatusUpdate, env.Event)

	var p OrderStatusPayload
	require.NoError(t, json.Unmarshal(env.Body, &p))
	assert.Equal(t, "preparing", p.Status)
	assert.Equal(t, "confirmed", p.PreviousStatus)
}

func TestDispatcher_NewOrderReachesAdminsOnly(t *testing.T) {
	h := NewHub()
	d := NewDispatcher(h)

	admin1, admin2, customer := &stubMember{}, &stubMember{}, &stubMember{}
	h.Join(RoleRoom(auth.RoleAdmin), admin1)
	h.Join(RoleRoom(auth.RoleAdmin), admin2)
	h.Join(RoleRoom(auth.RoleCustomer), customer)

	d.NewOrder(NewOrderPayload{OrderID: "o1", OrderNumber: "RB-0001", Total: 23.9, UserName: "Ana"})

	assert.Equal(t, 1, admin1.received())
	assert.Equal(t, 1, admin2.received())
	assert.Equal(t, 0, customer.received())

	env := decodeEnvelope(t, admin1.msgs[0])
	assert.Equal(t, EventNewOrder, env.Event)
}

func TestDispatcher_NotifyTargeting(t *testing.T) {
	h := NewHub()
	d := NewDispatcher(h)

	u1, u2, courier := &stubMember{}, &stubMember{}, &stubMember{}
	h.Join(UserRoom("u1"), u1)
	h.Join(UserRoom("u2"), u2)
	h.Join(RoleRoom(auth.RoleDelivery), courier)

	d.NotifyUser("u1", NotificationPayload{Type: "order_status", Title: "t", Message: "m"})
	assert.Equal(t, 1, u1.received())
	assert.Equal(t, 0, u2.received())
	assert.Equal(t, 0, courier.received())

	d.NotifyRole(auth.RoleDelivery, NotificationPayload{Type: "order_status", Title: "t", Message: "m"})
	assert.Equal(t, 1, courier.received())
	assert.Equal(t, 1, u1.received())
}

func TestDispatcher_AbsentRoomsAreSilentNoops(t *testing.T) {
	h := NewHub()
	d := NewDispatcher(h)

	assert.NotPanics(t, func() {
		d.OrderStatusChanged("RB-2002", "u9", OrderStatusPayload{OrderID: "RB-2002", Status: "preparing"})
		d.NewOrder(NewOrderPayload{OrderID: "o1"})
		d.NotifyUser("nobody", NotificationPayload{})
		d.NotifyRole("ghost", NotificationPayload{})
	})
}

func TestDispatcher_AbsentOwnerStillReachesAdmins(t *testing.T) {
	h := NewHub()
	d := NewDispatcher(h)

	admin := &stubMember{}
	h.Join(RoleRoom(auth.RoleAdmin), admin)

	// Nobody tracks RB-2002 and its owner u9 is offline.
	d.OrderStatusChanged("RB-2002", "u9", OrderStatusPayload{OrderID: "RB-2002", Status: "preparing"})

	assert.Equal(t, 1, admin.received())
}
