package config

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis carries realtime fan-out to connected clients. It is optional:
// when REDIS_HOST is unset the server runs without live updates.
var Redis *redis.Client

func InitRedis() {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		log.Println("REDIS_HOST not set, realtime updates disabled")
		return
	}

	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	Redis = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	if err := Redis.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis unreachable, realtime updates disabled: %v", err)
		Redis = nil
		return
	}
	log.Println("Redis connected successfully")
}
