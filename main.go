package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ordercastgo/internal/auth"
	"ordercastgo/internal/config"
	"ordercastgo/internal/database/db_client"
	"ordercastgo/internal/http/http_server"
	"ordercastgo/internal/redis/redis_client"
	"ordercastgo/internal/redis/watcher/deliverywatcher"
	"ordercastgo/internal/services/order"
	notifstore "ordercastgo/internal/store/notification"
	orderstore "ordercastgo/internal/store/order"
	userstore "ordercastgo/internal/store/user"
	"ordercastgo/internal/syncsnap"
	"ordercastgo/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Stores
	users := userstore.NewStore(pgDb)
	orders := orderstore.NewStore(pgDb, redisClient)
	notifs := notifstore.NewStore(pgDb, redisClient)

	// 6. WebSockets hub + dispatcher + gateway
	hub := ws.NewHub()
	dispatcher := ws.NewDispatcher(hub)

	issuer := auth.NewTokenIssuer(cfg.JwtSecret, cfg.JwtTTL)
	verifier := auth.NewVerifier(issuer, users)
	gateway := ws.NewGateway(hub, verifier)

	// 7. Order service wired to the realtime fan-out
	orderService := order.NewOrderService(orders, users, notifs, dispatcher, cfg.DeliveryOverdueAfter)

	// 8. Background: delivery-timer expiry watcher ➜ overdue alerts
	go deliverywatcher.Run(ctx, redisClient, orderService)

	// 9. Background: 60 s terminal-snapshot reaper
	syncsnap.Run(ctx, redisClient, pgDb)

	// 10. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, gateway, orderService, notifs)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
