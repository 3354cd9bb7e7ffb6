package ws

import "encoding/json"

// Envelope wraps every WS frame, inbound and outbound.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "joinOrder"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Inbound actions a client may send.
const (
	eventJoinOrder  = "joinOrder"
	eventLeaveOrder = "leaveOrder"
)

// Outbound events a client subscribes to.
const (
	EventOrderStatusUpdate = "orderStatusUpdate"
	EventNewOrder          = "newOrder"
	EventNotification      = "notification"
)

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// JoinOrderBody is the body for "joinOrder" and "leaveOrder".
type JoinOrderBody struct {
	OrderID string `json:"order_id"`
}

// Empty ACK body.
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}

// ──────────────────────────── Outbound payloads ───────────────────────────────

// OrderStatusPayload is the body of "orderStatusUpdate".
type OrderStatusPayload struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	Status         string `json:"status"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
	PreviousStatus string `json:"previous_status,omitempty"`
}

// NewOrderPayload is the body of "newOrder", seen by admins only.
type NewOrderPayload struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Total       float64 `json:"total"`
	UserName    string  `json:"user_name"`
}

// NotificationPayload is the body of "notification".
type NotificationPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	OrderID string `json:"order_id,omitempty"`
	Unread  int64  `json:"unread,omitempty"`
}
