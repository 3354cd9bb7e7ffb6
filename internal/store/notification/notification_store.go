package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notification type tags mirrored into the realtime payload.
const (
	TypeOrderStatus = "order_status"
	TypeNewOrder    = "new_order"
	TypeOverdue     = "delivery_overdue"
)

var ErrNotFound = errors.New("notification not found")

// markReadScript decrements a user's unread counter without ever going
// negative, even when mark-read races a concurrent increment.
// Returns the new count.
var markReadScript = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v <= 0 then
  redis.call('SET', KEYS[1], '0')
  return 0
end
return redis.call('DECR', KEYS[1])
`)

// Notification is the durable record; the realtime broadcast for the
// same event is emitted independently (no shared transaction).
type Notification struct {
	ID            uuid.UUID `json:"id"`
	RecipientID   string    `json:"recipient_id,omitempty"`
	RecipientRole string    `json:"recipient_role,omitempty"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	OrderID       string    `json:"order_id,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

type Store struct {
	db  *sql.DB
	rdc *redis.Client
}

func NewStore(db *sql.DB, rdc *redis.Client) *Store {
	return &Store{db: db, rdc: rdc}
}

func unreadKey(userID string) string { return "notif:unread:" + userID }

func (s *Store) Create(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const q = `
	INSERT INTO notifications (id, recipient_id, recipient_role, type,
	                           title, message, order_id, read, created_at)
	     VALUES ($1,$2,$3,$4,$5,$6,$7,false,$8)`
	_, err := s.db.ExecContext(ctx, q,
		n.ID, n.RecipientID, n.RecipientRole, n.Type,
		n.Title, n.Message, n.OrderID, n.CreatedAt)
	return err
}

// IncrUnread bumps the user's unread badge and returns the new count.
func (s *Store) IncrUnread(ctx context.Context, userID string) (int64, error) {
	return s.rdc.Incr(ctx, unreadKey(userID)).Result()
}

// UnreadCount reads the badge without touching it.
func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.rdc.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *Store) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	const q = `
	SELECT id, recipient_id, recipient_role, type, title, message,
	       coalesce(order_id,''), read, created_at
	  FROM notifications
	 WHERE recipient_id = $1
	 ORDER BY created_at DESC
	 LIMIT $2`
	rows, err := s.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.RecipientRole, &n.Type,
			&n.Title, &n.Message, &n.OrderID, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the row and clamps the unread counter down by one.
// Returns the remaining unread count.
func (s *Store) MarkRead(ctx context.Context, id uuid.UUID, userID string) (int64, error) {
	const q = `
	UPDATE notifications SET read = true
	 WHERE id = $1 AND recipient_id = $2 AND read = false`
	res, err := s.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	n, err := markReadScript.Run(ctx, s.rdc, []string{unreadKey(userID)}).Int64()
	if err != nil {
		return 0, err
	}
	return n, nil
}
