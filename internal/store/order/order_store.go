package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Order statuses. Delivered and cancelled are terminal: once reached,
// the row never changes again.
const (
	StatusPlaced     = "placed"
	StatusConfirmed  = "confirmed"
	StatusPreparing  = "preparing"
	StatusDispatched = "dispatched"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusPaid       = "paid"
)

// Delivery sub-statuses while an order is out with a courier.
const (
	DeliveryAssigned = "assigned"
	DeliveryPickedUp = "picked_up"
	DeliveryOnTheWay = "on_the_way"
	DeliveryArrived  = "arrived"
)

const (
	redisOrderKeyPrefix      = "ord:"
	redisOrderTimerKeyPrefix = "ord_t:"
	redisActiveSet           = "ords:active"
	redisSeqKey              = "ord:seq"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrOrderClosed   = errors.New("order already closed")
	ErrInvalidStatus = errors.New("invalid order status")
)

var validStatus = map[string]struct{}{
	StatusPlaced: {}, StatusConfirmed: {}, StatusPreparing: {},
	StatusDispatched: {}, StatusDelivered: {}, StatusCancelled: {},
	StatusPaid: {},
}

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

type Order struct {
	ID             string    `json:"id"`
	Number         string    `json:"number"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	CourierID      string    `json:"courier_id,omitempty"`
	Status         string    `json:"status"`
	DeliveryStatus string    `json:"delivery_status,omitempty"`
	Total          float64   `json:"total"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store keeps orders in Postgres (source of truth) with a Redis hash
// per active order as the tracking-page fast path.
type Store struct {
	db  *sql.DB
	rdc *redis.Client
}

func NewStore(db *sql.DB, rdc *redis.Client) *Store {
	return &Store{db: db, rdc: rdc}
}

// NextNumber allocates the next human-facing order number.
func (s *Store) NextNumber(ctx context.Context) (string, error) {
	seq, err := s.rdc.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RB-%04d", seq), nil
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	const q = `
	INSERT INTO orders (id, number, user_id, user_name, courier_id,
	                    status, delivery_status, total, created_at, updated_at)
	     VALUES ($1,$2,$3,$4,'',$5,'',$6,$7,$7)`
	_, err := s.db.ExecContext(ctx, q,
		o.ID, o.Number, o.UserID, o.UserName, o.Status, o.Total, o.CreatedAt)
	return err
}

// UpdateStatus applies a status transition under a row lock and returns
// the updated order plus the status it replaced. Terminal orders refuse
// every transition with ErrOrderClosed.
func (s *Store) UpdateStatus(ctx context.Context, id, status, deliveryStatus string) (*Order, string, error) {
	if _, ok := validStatus[status]; !ok {
		return nil, "", ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback()

	var prev string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if IsTerminal(prev) {
		return nil, "", ErrOrderClosed
	}

	const q = `
	UPDATE orders SET status = $2, delivery_status = $3, updated_at = $4
	 WHERE id = $1
	RETURNING id, number, user_id, user_name, courier_id,
	          status, delivery_status, total, created_at, updated_at`
	o := &Order{}
	if err = tx.QueryRowContext(ctx, q, id, status, deliveryStatus, time.Now().UTC()).Scan(
		&o.ID, &o.Number, &o.UserID, &o.UserName, &o.CourierID,
		&o.Status, &o.DeliveryStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, "", err
	}
	if err = tx.Commit(); err != nil {
		return nil, "", err
	}
	return o, prev, nil
}

// AssignCourier binds a courier and marks the delivery as assigned.
func (s *Store) AssignCourier(ctx context.Context, id, courierID string) (*Order, error) {
	const q = `
	UPDATE orders SET courier_id = $2, delivery_status = $3, updated_at = $4
	 WHERE id = $1 AND status NOT IN ($5, $6)
	RETURNING id, number, user_id, user_name, courier_id,
	          status, delivery_status, total, created_at, updated_at`
	o := &Order{}
	err := s.db.QueryRowContext(ctx, q,
		id, courierID, DeliveryAssigned, time.Now().UTC(),
		StatusDelivered, StatusCancelled,
	).Scan(
		&o.ID, &o.Number, &o.UserID, &o.UserName, &o.CourierID,
		&o.Status, &o.DeliveryStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// The guarded UPDATE matches neither missing nor terminal rows;
		// tell the two apart for the caller.
		var st string
		err = s.db.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1`, id).Scan(&st)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrOrderClosed
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	// 1. Fast-path — active orders are served straight from Redis
	snap, _ := s.rdc.HGetAll(ctx, redisOrderKeyPrefix+id).Result()
	if st, ok := snap["st"]; ok && !IsTerminal(st) {
		return &Order{
			ID:             id,
			Number:         snap["num"],
			UserID:         snap["uid"],
			UserName:       snap["un"],
			CourierID:      snap["cid"],
			Status:         st,
			DeliveryStatus: snap["ds"],
			Total:          atof(snap["tot"]),
			CreatedAt:      ts(snap["ca"]),
			UpdatedAt:      ts(snap["ua"]),
		}, nil
	}

	// 2. Otherwise go to Postgres
	const q = `
	SELECT id, number, user_id, user_name, courier_id,
	       status, coalesce(delivery_status,''), total, created_at, updated_at
	  FROM orders WHERE id = $1`
	o := &Order{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.Number, &o.UserID, &o.UserName, &o.CourierID,
		&o.Status, &o.DeliveryStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) List(ctx context.Context, status string, limit, offset int) ([]Order, error) {
	const q = `
	SELECT id, number, user_id, user_name, courier_id,
	       status, coalesce(delivery_status,''), total, created_at, updated_at
	  FROM orders
	 WHERE ($1 = '' OR status = $1)
	 ORDER BY created_at DESC
	 LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.Number, &o.UserID, &o.UserName, &o.CourierID,
			&o.Status, &o.DeliveryStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// WriteSnapshot mirrors the order into its tracking hash and records it
// in the active set consumed by the snapshot reaper.
func (s *Store) WriteSnapshot(ctx context.Context, o *Order) error {
	key := redisOrderKeyPrefix + o.ID
	pipe := s.rdc.Pipeline()
	pipe.HSet(ctx, key,
		"num", o.Number,
		"uid", o.UserID,
		"un", o.UserName,
		"cid", o.CourierID,
		"st", o.Status,
		"ds", o.DeliveryStatus,
		"tot", strconv.FormatFloat(o.Total, 'f', -1, 64),
		"ca", strconv.FormatInt(o.CreatedAt.Unix(), 10),
		"ua", strconv.FormatInt(o.UpdatedAt.Unix(), 10),
	)
	pipe.SAdd(ctx, redisActiveSet, key)
	_, err := pipe.Exec(ctx)
	return err
}

// ClearSnapshot removes the tracking hash of a terminal order.
func (s *Store) ClearSnapshot(ctx context.Context, id string) error {
	key := redisOrderKeyPrefix + id
	pipe := s.rdc.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, redisActiveSet, key)
	_, err := pipe.Exec(ctx)
	return err
}

// ArmDeliveryTimer starts the overdue countdown for a dispatched order.
// The key's expiry event is what the delivery watcher listens for.
func (s *Store) ArmDeliveryTimer(ctx context.Context, id string, ttl time.Duration) error {
	return s.rdc.Set(ctx, redisOrderTimerKeyPrefix+id, 1, ttl).Err()
}

func (s *Store) ClearDeliveryTimer(ctx context.Context, id string) error {
	return s.rdc.Del(ctx, redisOrderTimerKeyPrefix+id).Err()
}

// ─────────────────────────────── helpers ─────────────────────────────────────

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func ts(s string) time.Time {
	sec, _ := strconv.ParseInt(s, 10, 64)
	return time.Unix(sec, 0).UTC()
}
