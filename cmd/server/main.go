package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"talkwire/internal/chat"
	"talkwire/internal/config"
	"talkwire/internal/db"
	"talkwire/internal/middleware"
	"talkwire/internal/presence"
	"talkwire/internal/user"
)

func main() {
	// 1. Config & Flags
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	addr := flag.String("addr", cfg.Addr, "http service address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database Schema Initialized")

	// 3. Presence Registry (Redis-backed by default, in-memory for dev)
	var registry presence.Registry
	if cfg.PresenceBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Connected to Redis")
		registry = presence.NewRedisRegistry(redisClient)
	} else {
		registry = presence.NewMemoryRegistry()
	}

	// 4. Initialize User Feature
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	// 5. Initialize Chat Feature
	chatRepo := chat.NewRepository(database.Conn)

	hub := chat.NewHub(registry)
	go hub.Run()

	typing := chat.NewTypingCoordinator(hub, cfg.TypingTTL)
	chatService := chat.NewService(chatRepo, hub)
	chatHandler := chat.NewHandler(hub, typing, chatService)

	authMiddleware := middleware.NewAuthMiddleware(userService)

	// 6. Define Routes
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public Routes
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	// Protected Routes (Require JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Get("/api/users/search", userHandler.SearchUsers)
		r.Get("/api/users/me", userHandler.Me)

		// WebSocket (Real-time)
		r.Get("/ws", chatHandler.ServeWs)

		// Message API
		r.Post("/api/message/send/{recipientID}", chatHandler.Send)
		r.Get("/api/message/get/{peerID}", chatHandler.GetConversation)
		r.Put("/api/message/read/{peerID}", chatHandler.MarkRead)
		r.Post("/api/message/reaction/{messageID}", chatHandler.ToggleReaction)
		r.Put("/api/message/edit/{messageID}", chatHandler.Edit)
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🚀 Server starting on %s", *addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatal(err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
