package syncsnap

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	orderstore "ordercastgo/internal/store/order"
)

const (
	activeSet   = "ords:active"
	hashPrefix  = "ord:"
	sweepPeriod = 60 * time.Second
)

// Every 60 s, drop tracking snapshots whose order reached a terminal
// state. The update path clears its own snapshot; this sweep catches
// the ones a crashed or failed clear left behind.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	tk := time.NewTicker(sweepPeriod)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				sweepOnce(ctx, rdc, db)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	keys, err := rdc.SMembers(ctx, activeSet).Result()
	if err != nil || len(keys) == 0 {
		return
	}

	// 1. fetch all hashes in one pipelined round-trip
	pipe := rdc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err = pipe.Exec(ctx); err != nil {
		zap.L().Error("syncsnap.pipeline", zap.Error(err))
		return
	}

	// 2. decide which snapshots are stale
	var stale []string
	for i, k := range keys {
		snap := cmds[i].Val()
		if len(snap) == 0 {
			stale = append(stale, k) // hash already gone, set entry leaked
			continue
		}
		if orderstore.IsTerminal(snap["st"]) {
			stale = append(stale, k)
			continue
		}

		// Snapshot still looks active; Postgres has the last word.
		var st string
		id := strings.TrimPrefix(k, hashPrefix)
		err := db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&st)
		if err != nil {
			continue
		}
		if orderstore.IsTerminal(st) {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return
	}

	// 3. remove them in one round-trip
	del := rdc.Pipeline()
	del.Del(ctx, stale...)
	del.SRem(ctx, activeSet, toAnySlice(stale)...)
	if _, err = del.Exec(ctx); err != nil {
		zap.L().Error("syncsnap.cleanup", zap.Error(err))
		return
	}
	zap.L().Debug("syncsnap.swept", zap.Int("removed", len(stale)))
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
