package main

import (
	"context"
	"log"
	"os"
	"time"

	"order-management/internal/controllers/http"
	mmysql "order-management/internal/infra/mysql"
	"order-management/internal/infra/rabbitmq"
	mysqlrepo "order-management/internal/repository/mysql"
	"order-management/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	db, err := mmysql.NewMySQLFromEnv()
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
	defer publisher.Close()

	alloc := services.NewAllocationService(store, publisher)
	orders := services.NewOrderService(store)
	catalog := services.NewCatalogService(store)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         os.Getenv("REDIS_HOST") + ":6379",
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	catalog.SetRedisClient(redisClient)

	go func() {
		time.Sleep(5 * time.Second)
		if err := catalog.WarmupStockCache(context.Background()); err != nil {
			log.Printf("Failed to warm up stock cache: %v", err)
		} else {
			log.Println("Stock cache warmed up successfully")
		}
	}()

	handler := http.NewHandler(alloc, orders, catalog, redisClient)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting order management service on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server run: %v", err)
	}
}
