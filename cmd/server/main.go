package main

import (
    "context"
    "log"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/config"
    "github.com/iliyamo/room-reservation/internal/database"
    "github.com/iliyamo/room-reservation/internal/handler"
    "github.com/iliyamo/room-reservation/internal/middleware"
    "github.com/iliyamo/room-reservation/internal/payment"
    "github.com/iliyamo/room-reservation/internal/queue"
    "github.com/iliyamo/room-reservation/internal/repository"
    "github.com/iliyamo/room-reservation/internal/router"
    queue_publisher "github.com/iliyamo/room-reservation/internal/service"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    store := repository.NewStore(db)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    bookingSvc := booking.NewService(store)
    gateway := payment.NewStripeGateway(cfg.StripeSecretKey)
    paymentSvc := payment.NewService(store, gateway, queue_publisher.Publisher{})
    sweeper := booking.NewSweeper(store, cfg.SweepInterval)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    go sweeper.Run(ctx)

    go func() {
        if err := queue.StartBookingConsumer(); err != nil {
            log.Printf("booking-consumer: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; rate limiting and response cache disabled")
    }
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
    router.RegisterRooms(e, handler.NewRoomHandler(store.Rooms), cache)
    router.RegisterBookings(e,
        handler.NewBookingHandler(bookingSvc, store.Bookings),
        handler.NewPaymentHandler(paymentSvc, cfg.StripeWebhook, cfg.Currency),
        cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
