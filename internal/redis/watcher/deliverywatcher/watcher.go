package deliverywatcher

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ordercastgo/internal/services/order"
)

const timerKeyPrefix = "ord_t:"

// Run listens to key-expiry events and flags orders whose delivery
// timer ran out while they were still dispatched.
// Run must be started once at service boot.
func Run(ctx context.Context, rdb *redis.Client, svc order.IOrderService) {
	_ = rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
	ps := rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer ps.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-ps.Channel():
			handleExpired(ctx, svc, m.Payload)
		}
	}
}

// handleExpired reacts to one expired key. Keys outside the delivery
// timer namespace are ignored.
func handleExpired(ctx context.Context, svc order.IOrderService, key string) {
	if !strings.HasPrefix(key, timerKeyPrefix) {
		return
	}
	id := strings.TrimPrefix(key, timerKeyPrefix)
	if err := svc.FlagOverdue(ctx, id); err != nil {
		zap.L().Warn("deliverywatcher.flag_overdue",
			zap.String("order_id", id), zap.Error(err))
	}
}
