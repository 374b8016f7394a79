package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"backend/internal/cart"
	"backend/internal/catalog"
	"backend/internal/config"
	"backend/internal/coupon"
	"backend/internal/database"
	"backend/internal/events"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/notify"
	"backend/internal/order"
	"backend/internal/zalopay"
)

func main() {
	config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	slog.Info("mongodb connected", "database", db.Name())

	if err := database.EnsureOrderIndexes(db); err != nil {
		slog.Warn("order index warning", "error", err)
	}
	if err := database.EnsureCouponIndexes(db); err != nil {
		slog.Warn("coupon index warning", "error", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		slog.Warn("cart index warning", "error", err)
	}

	var redisClient *redis.Client
	if config.AppEnv.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.AppEnv.RedisAddr})
		slog.Info("redis product cache enabled", "addr", config.AppEnv.RedisAddr)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if config.AppEnv.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(config.AppEnv.AMQPURL, config.AppEnv.AMQPExchange)
		if err != nil {
			log.Fatal(err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		slog.Info("event publisher connected", "exchange", config.AppEnv.AMQPExchange)
	}

	gateway := zalopay.NewClient(config.AppEnv.ZaloPay)
	coupons := coupon.NewLedger(coupon.NewMongoStore(db))
	orders := order.NewService(order.Deps{
		Store:       order.NewMongoStore(db),
		Tx:          database.NewTxRunner(client),
		Coupons:     coupons,
		Carts:       cart.NewReconciler(db),
		Catalog:     catalog.NewService(db, redisClient),
		Notifier:    notify.NewDispatcher(db),
		Publisher:   publisher,
		Gateway:     gateway,
		DeliveryFee: config.AppEnv.DeliveryFee,
	})

	r := gin.Default()

	r.POST("/payments/zalopay/callback", handlers.ZaloPayCallback(gateway, orders))

	user := r.Group("/")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.POST("/orders", handlers.CreateOrder(orders))
		user.GET("/orders/my-orders", handlers.GetMyOrders(orders))
		user.GET("/orders/:id", handlers.GetOrder(orders))
		user.POST("/orders/:id/cancel", handlers.CancelOrder(orders))
		user.POST("/coupons/apply", handlers.ApplyCoupon(coupons))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/orders", handlers.ListOrders(orders))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(orders))
		admin.PATCH("/orders/:id/payment", handlers.UpdateOrderPayment(orders))
		admin.POST("/orders/:id/refund", handlers.RefundOrder(orders))
		admin.GET("/orders/:id/payment-status", handlers.QueryOrderPayment(orders, gateway))
		admin.GET("/orders/:id/refund-status", handlers.QueryOrderRefund(orders, gateway))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
