package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/delivery"
	"messenger-service/internal/handlers"
	"messenger-service/internal/mediastore"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/tracing"
	"messenger-service/internal/ws"
)

const serviceName = "messenger-service"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	database, err := db.Connect(cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange, logger)
	defer publisher.Close()
	emitter := telemetry.NewAuditEmitter(publisher, "audit.messenger", serviceName, cfg.Environment, logger)

	media, err := mediastore.NewLocalStore(cfg.UploadsPath, cfg.BaseURL)
	if err != nil {
		logger.Fatal("failed to set up media store", zap.Error(err))
	}

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	hub := ws.NewHub(logger)
	engine := delivery.NewEngine(userRepo, messageRepo, media, hub, emitter, logger)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, media, emitter, logger)
	messageHandler := handlers.NewMessageHandler(engine, logger)
	gateway := ws.NewGateway(hub, tokens, userRepo, emitter, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	authRequired := middleware.AuthMiddleware(tokens, userRepo)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/auth/signup", authHandler.Signup)
	router.POST("/api/auth/login", authHandler.Login)
	router.GET("/api/auth/check", authRequired, authHandler.Check)
	router.PUT("/api/auth/update-profile", authRequired, authHandler.UpdateProfile)

	router.GET("/api/messages/users", authRequired, messageHandler.SidebarUsers)
	router.GET("/api/messages/:id", authRequired, messageHandler.GetConversation)
	router.PATCH("/api/messages/mark/:id", authRequired, messageHandler.MarkSeen)
	router.POST("/api/messages/send/:id", authRequired, messageHandler.Send)

	router.GET("/ws", gateway.Handle)
	router.Static("/uploads", cfg.UploadsPath)

	handlers.RegisterDebugRoutes(router, emitter, cfg.Debug)

	logger.Info("server starting",
		zap.String("addr", cfg.Addr),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(cfg.Addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
