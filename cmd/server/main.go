package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"liar-game/internal/config"
	"liar-game/internal/db"
	"liar-game/internal/kv"
	"liar-game/internal/lock"
	"liar-game/internal/member"
	"liar-game/internal/server"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	store, locker := openRedis(cfg)
	conn := openDatabase(cfg)
	members := member.NewClient(cfg.MemberServiceURL)

	srv := server.New(store, locker, members, conn, cfg)
	log.Printf("liar-game server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}

// openRedis connects the shared store and locker. With SINGLE_NODE set the
// server runs on in-process implementations instead, for local development.
func openRedis(cfg config.Config) (kv.Store, lock.Locker) {
	if os.Getenv("SINGLE_NODE") != "" {
		log.Println("running single-node with in-memory store and locks")
		return kv.NewMemoryStore(), lock.NewMemoryLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return kv.NewRedisStore(client), lock.NewRedisLocker(client)
}

// openDatabase connects the result archive. A missing DATABASE_URL is fine:
// finished games just aren't archived.
func openDatabase(cfg config.Config) *gorm.DB {
	if os.Getenv("DATABASE_URL") == "" {
		log.Println("DATABASE_URL not set; game results will not be archived")
		return nil
	}
	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("database handle unavailable: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
	return conn
}
