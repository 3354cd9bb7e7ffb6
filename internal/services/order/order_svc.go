package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ordercastgo/internal/auth"
	notifstore "ordercastgo/internal/store/notification"
	orderstore "ordercastgo/internal/store/order"
	userstore "ordercastgo/internal/store/user"
	"ordercastgo/internal/ws"
)

type IOrderService interface {
	PlaceOrder(ctx context.Context, userID string, total float64) (*orderstore.Order, error)
	UpdateStatus(ctx context.Context, orderID, status, deliveryStatus string) (*orderstore.Order, error)
	AssignCourier(ctx context.Context, orderID, courierID string) (*orderstore.Order, error)
	GetOrder(ctx context.Context, id string) (*orderstore.Order, error)
	ListOrders(ctx context.Context, status string, limit, offset int) ([]orderstore.Order, error)
	FlagOverdue(ctx context.Context, orderID string) error
}

// Broadcaster is the realtime fan-out handle. All methods are
// fire-and-forget; the service never learns whether anyone was
// listening, and a delivery hiccup never fails the mutation.
type Broadcaster interface {
	OrderStatusChanged(orderID, ownerUserID string, p ws.OrderStatusPayload)
	NewOrder(p ws.NewOrderPayload)
	NotifyUser(userID string, p ws.NotificationPayload)
	NotifyRole(role string, p ws.NotificationPayload)
}

type orderStore interface {
	NextNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, o *orderstore.Order) error
	UpdateStatus(ctx context.Context, id, status, deliveryStatus string) (*orderstore.Order, string, error)
	AssignCourier(ctx context.Context, id, courierID string) (*orderstore.Order, error)
	Get(ctx context.Context, id string) (*orderstore.Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]orderstore.Order, error)
	WriteSnapshot(ctx context.Context, o *orderstore.Order) error
	ClearSnapshot(ctx context.Context, id string) error
	ArmDeliveryTimer(ctx context.Context, id string, ttl time.Duration) error
	ClearDeliveryTimer(ctx context.Context, id string) error
}

type notifStore interface {
	Create(ctx context.Context, n *notifstore.Notification) error
	IncrUnread(ctx context.Context, userID string) (int64, error)
}

type userDirectory interface {
	Get(ctx context.Context, id string) (*userstore.User, error)
}

type orderService struct {
	orders     orderStore
	users      userDirectory
	notifs     notifStore
	cast       Broadcaster
	overdueTTL time.Duration
}

func NewOrderService(
	orders *orderstore.Store,
	users *userstore.Store,
	notifs *notifstore.Store,
	cast Broadcaster,
	overdueTTL time.Duration,
) IOrderService {
	return &orderService{
		orders:     orders,
		users:      users,
		notifs:     notifs,
		cast:       cast,
		overdueTTL: overdueTTL,
	}
}

func (svc *orderService) PlaceOrder(ctx context.Context, userID string, total float64) (*orderstore.Order, error) {
	u, err := svc.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	num, err := svc.orders.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &orderstore.Order{
		ID:        uuid.NewString(),
		Number:    num,
		UserID:    u.ID,
		UserName:  u.Name,
		Status:    orderstore.StatusPlaced,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	if err := svc.orders.WriteSnapshot(ctx, o); err != nil {
		zap.L().Warn("order.snapshot_write", zap.String("order_id", o.ID), zap.Error(err))
	}

	// Durable record and realtime broadcast are deliberately two
	// independent emissions; neither gates the other.
	svc.recordNotification(ctx, &notifstore.Notification{
		RecipientRole: auth.RoleAdmin,
		Type:          notifstore.TypeNewOrder,
		Title:         "New order " + o.Number,
		Message:       fmt.Sprintf("%s placed an order for %.2f", o.UserName, o.Total),
		OrderID:       o.ID,
	})
	svc.cast.NewOrder(ws.NewOrderPayload{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Total:       o.Total,
		UserName:    o.UserName,
	})
	svc.cast.NotifyRole(auth.RoleAdmin, ws.NotificationPayload{
		Type:    notifstore.TypeNewOrder,
		Title:   "New order " + o.Number,
		Message: fmt.Sprintf("%s placed an order for %.2f", o.UserName, o.Total),
		OrderID: o.ID,
	})
	return o, nil
}

func (svc *orderService) UpdateStatus(ctx context.Context, orderID, status, deliveryStatus string) (*orderstore.Order, error) {
	o, prev, err := svc.orders.UpdateStatus(ctx, orderID, status, deliveryStatus)
	if err != nil {
		return nil, err
	}

	if orderstore.IsTerminal(o.Status) {
		if err := svc.orders.ClearSnapshot(ctx, o.ID); err != nil {
			zap.L().Warn("order.snapshot_clear", zap.String("order_id", o.ID), zap.Error(err))
		}
		if err := svc.orders.ClearDeliveryTimer(ctx, o.ID); err != nil {
			zap.L().Warn("order.timer_clear", zap.String("order_id", o.ID), zap.Error(err))
		}
	} else {
		if err := svc.orders.WriteSnapshot(ctx, o); err != nil {
			zap.L().Warn("order.snapshot_write", zap.String("order_id", o.ID), zap.Error(err))
		}
		if o.Status == orderstore.StatusDispatched {
			if err := svc.orders.ArmDeliveryTimer(ctx, o.ID, svc.overdueTTL); err != nil {
				zap.L().Warn("order.timer_arm", zap.String("order_id", o.ID), zap.Error(err))
			}
		}
	}

	unread := svc.recordUserNotification(ctx, o.UserID, &notifstore.Notification{
		RecipientID: o.UserID,
		Type:        notifstore.TypeOrderStatus,
		Title:       "Order " + o.Number,
		Message:     statusMessage(o.Status, o.DeliveryStatus),
		OrderID:     o.ID,
	})
	svc.cast.NotifyUser(o.UserID, ws.NotificationPayload{
		Type:    notifstore.TypeOrderStatus,
		Title:   "Order " + o.Number,
		Message: statusMessage(o.Status, o.DeliveryStatus),
		OrderID: o.ID,
		Unread:  unread,
	})
	svc.cast.OrderStatusChanged(o.ID, o.UserID, ws.OrderStatusPayload{
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Status:         o.Status,
		DeliveryStatus: o.DeliveryStatus,
		PreviousStatus: prev,
	})
	return o, nil
}

func (svc *orderService) AssignCourier(ctx context.Context, orderID, courierID string) (*orderstore.Order, error) {
	if _, err := svc.users.Get(ctx, courierID); err != nil {
		return nil, err
	}

	o, err := svc.orders.AssignCourier(ctx, orderID, courierID)
	if err != nil {
		return nil, err
	}
	if err := svc.orders.WriteSnapshot(ctx, o); err != nil {
		zap.L().Warn("order.snapshot_write", zap.String("order_id", o.ID), zap.Error(err))
	}

	unread := svc.recordUserNotification(ctx, courierID, &notifstore.Notification{
		RecipientID: courierID,
		Type:        notifstore.TypeOrderStatus,
		Title:       "Delivery " + o.Number,
		Message:     "You have been assigned order " + o.Number,
		OrderID:     o.ID,
	})
	svc.cast.NotifyUser(courierID, ws.NotificationPayload{
		Type:    notifstore.TypeOrderStatus,
		Title:   "Delivery " + o.Number,
		Message: "You have been assigned order " + o.Number,
		OrderID: o.ID,
		Unread:  unread,
	})
	svc.cast.OrderStatusChanged(o.ID, o.UserID, ws.OrderStatusPayload{
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Status:         o.Status,
		DeliveryStatus: o.DeliveryStatus,
	})
	return o, nil
}

func (svc *orderService) GetOrder(ctx context.Context, id string) (*orderstore.Order, error) {
	return svc.orders.Get(ctx, id)
}

func (svc *orderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]orderstore.Order, error) {
	return svc.orders.List(ctx, status, limit, offset)
}

// FlagOverdue is called by the delivery watcher when an order's timer
// key expires. Orders that already left the dispatched state are
// ignored; the timer was simply stale.
func (svc *orderService) FlagOverdue(ctx context.Context, orderID string) error {
	o, err := svc.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != orderstore.StatusDispatched {
		return nil
	}

	zap.L().Info("order.delivery_overdue",
		zap.String("order_id", o.ID), zap.String("number", o.Number))
	svc.recordNotification(ctx, &notifstore.Notification{
		RecipientRole: auth.RoleAdmin,
		Type:          notifstore.TypeOverdue,
		Title:         "Delivery overdue " + o.Number,
		Message:       "Order " + o.Number + " is still out for delivery",
		OrderID:       o.ID,
	})
	svc.cast.NotifyRole(auth.RoleAdmin, ws.NotificationPayload{
		Type:    notifstore.TypeOverdue,
		Title:   "Delivery overdue " + o.Number,
		Message: "Order " + o.Number + " is still out for delivery",
		OrderID: o.ID,
	})
	return nil
}

// recordNotification persists a notification row; a failed insert is
// logged and swallowed so the realtime emission still happens.
func (svc *orderService) recordNotification(ctx context.Context, n *notifstore.Notification) {
	if err := svc.notifs.Create(ctx, n); err != nil {
		zap.L().Error("order.notification_record", zap.Error(err))
	}
}

// recordUserNotification additionally bumps the recipient's unread
// badge and returns the new count (0 when the bump failed).
func (svc *orderService) recordUserNotification(ctx context.Context, userID string, n *notifstore.Notification) int64 {
	svc.recordNotification(ctx, n)
	unread, err := svc.notifs.IncrUnread(ctx, userID)
	if err != nil {
		zap.L().Warn("order.unread_incr", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return unread
}

func statusMessage(status, deliveryStatus string) string {
	switch status {
	case orderstore.StatusPlaced:
		return "Your order has been placed"
	case orderstore.StatusConfirmed:
		return "Your order has been confirmed"
	case orderstore.StatusPreparing:
		return "Your order is being prepared"
	case orderstore.StatusDispatched:
		if deliveryStatus != "" {
			return "Your order is out for delivery (" + deliveryStatus + ")"
		}
		return "Your order is out for delivery"
	case orderstore.StatusDelivered:
		return "Your order has been delivered"
	case orderstore.StatusCancelled:
		return "Your order has been cancelled"
	case orderstore.StatusPaid:
		return "Payment received for your order"
	}
	return "Your order was updated"
}
