package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/classcast/classcast/internal/bridge"
	"github.com/classcast/classcast/internal/config"
	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/handler"
	"github.com/classcast/classcast/internal/hub"
	"github.com/classcast/classcast/internal/ratelimit"
	"github.com/classcast/classcast/internal/repository"
	"github.com/classcast/classcast/internal/service"
	"github.com/classcast/classcast/internal/store"
	"github.com/classcast/classcast/pkg/database"
	"github.com/classcast/classcast/pkg/jwt"
	pkglog "github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/middleware"
	"github.com/classcast/classcast/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		pkglog.L().Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "classcast",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate
	if err := database.AutoMigrate(db,
		&domain.SessionModel{},
		&domain.VideoModel{},
		&domain.ScheduledMessageModel{},
		&domain.ChatMessageModel{},
		&domain.GuestModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Initialize event bus
	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to event bus")
	}
	defer bus.Close()
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("event bus connected")

	// Presence store shares the pub/sub Redis instance
	presenceStore, err := store.NewRedisPresenceStore(store.RedisConfig{
		Address:  cfg.PubSub.Redis.Address,
		Password: cfg.PubSub.Redis.Password,
		DB:       cfg.PubSub.Redis.DB,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect presence store")
	}

	// Initialize repositories
	sessionRepo := repository.NewGormSessionRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	chatRepo := repository.NewGormChatRepository(db)
	guestRepo := repository.NewGormGuestRepository(db)

	// Initialize services
	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	chatLimiter := ratelimit.New(cfg.Chat.RateLimitMessages, cfg.Chat.RateLimitWindow, 10*time.Minute)

	sessionService := service.NewSessionService(sessionRepo, ledgerRepo, guestRepo, bus, tokens)
	triggerService := service.NewTriggerService(sessionRepo, ledgerRepo, chatRepo, bus)
	chatService := service.NewChatService(sessionRepo, chatRepo, bus, chatLimiter)
	presenceService := service.NewPresenceService(sessionRepo, presenceStore, bus, cfg.Presence.MemberTTL, cfg.Presence.CountBase)

	// Websocket hub and event-bus bridge
	h := hub.NewHub()
	go h.Run()
	eventBridge := bridge.New(bus, h)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHandler(sessionService, triggerService, chatService, presenceService, authMiddleware, cfg.Chat.HistoryLimit)
	wsHandler := handler.NewWSHandler(h, sessionService, chatService, presenceService, tokens, hub.DefaultConfig())

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eventBridge.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", addr).Str("db_driver", cfg.Database.Driver).Msg("classcast starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("classcast stopped")
}
