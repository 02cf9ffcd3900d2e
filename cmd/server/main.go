package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/messagely/messaging-api/internal/config"
	"github.com/messagely/messaging-api/internal/database"
	"github.com/messagely/messaging-api/internal/handler"
	"github.com/messagely/messaging-api/internal/middleware"
	"github.com/messagely/messaging-api/internal/queue"
	"github.com/messagely/messaging-api/internal/repository"
	"github.com/messagely/messaging-api/internal/router"
)

func main() {
	// .env is optional; real deployments provide the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	messages := repository.NewMessageRepo(db)
	tokens := repository.NewTokenRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	userHandler := handler.NewUserHandler(users)
	messageHandler := handler.NewMessageHandler(messages)

	// Redis is optional: when unreachable the cache middleware is a
	// pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache disabled")
	}
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Background consumer mirrors message.sent events to logs/messages.log.
	go func() {
		if err := queue.StartMessageConsumer(); err != nil {
			log.Printf("message consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterUsers(e, userHandler, cfg.JWTSecret, cache)
	router.RegisterMessages(e, messageHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
