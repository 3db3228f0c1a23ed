package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"media-store/internal/controllers/http"
	mmysql "media-store/internal/infra/mysql"
	"media-store/internal/infra/rabbitmq"
	"media-store/internal/payment"
	mysqlrepo "media-store/internal/repository/mysql"
	"media-store/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	dbCfg, err := mmysql.LoadConfig()
	if err != nil {
		log.Fatalf("db: config: %v", err)
	}
	db, err := mmysql.NewMySQL(dbCfg)
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1000)
	sqlDB.SetMaxIdleConns(200)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	store := mysqlrepo.NewStore(db)

	publisher, err := rabbitmq.NewPublisher(os.Getenv("RABBITMQ_URL"), "order.exchange")
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	payCfg, err := payment.LoadConfig()
	if err != nil {
		log.Fatalf("payment: config: %v", err)
	}
	gateway := payment.NewClient(payCfg)

	orders := services.NewOrderService(store, publisher)
	payments := services.NewPaymentService(store, gateway, publisher)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         os.Getenv("REDIS_HOST") + ":6379",
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	orders.SetRedisClient(redisClient)

	ctx := context.Background()
	go func() {
		time.Sleep(5 * time.Second)
		ids := warmupProductIDs()
		if len(ids) == 0 {
			return
		}
		if err := orders.WarmupProductCache(ctx, ids); err != nil {
			log.Printf("Failed to warm up cache: %v", err)
		} else {
			log.Println("Cache warmed up successfully")
		}
	}()

	handler := http.NewHandler(orders, payments)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting media store on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server run: %v", err)
	}
}

// warmupProductIDs parses WARMUP_PRODUCT_IDS, a comma-separated id list.
func warmupProductIDs() []uint64 {
	raw := os.Getenv("WARMUP_PRODUCT_IDS")
	if raw == "" {
		return nil
	}
	var ids []uint64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
