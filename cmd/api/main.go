package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tiendago/tienda-api/internal/config"
	"github.com/tiendago/tienda-api/internal/handler"
	"github.com/tiendago/tienda-api/internal/middleware"
	"github.com/tiendago/tienda-api/internal/repository"
	"github.com/tiendago/tienda-api/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Local development reads a .env file; in deployment the variables
	// come from the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		log.Error("ensure schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)

	// Services
	accessSvc := service.NewAccessService(userRepo)
	userSvc := service.NewUserService(userRepo, accessSvc)
	productSvc := service.NewProductService(productRepo, accessSvc, redisClient)
	cartSvc := service.NewCartService(cartRepo, productRepo, accessSvc, redisClient)

	// Handlers
	userH := handler.NewUserHandler(userSvc, log)
	productH := handler.NewProductHandler(productSvc, log)
	cartH := handler.NewCartHandler(cartSvc, log)
	healthH := handler.NewHealthHandler(dbPool, redisClient)

	// Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	router.GET("/", healthH.Root)
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)
	router.Static("/public", cfg.Server.StaticDir)

	router.POST("/usuarios", userH.Register)
	router.GET("/usuarios", userH.List)
	router.GET("/usuarios/:id", userH.GetByID)
	router.POST("/login", userH.Login)

	router.GET("/productos", productH.List)
	router.GET("/productos/:id", productH.GetByID)
	router.POST("/productos", productH.Create)
	router.PUT("/productos/:id", productH.Update)
	router.DELETE("/productos/:id", productH.Delete)

	router.POST("/carrito", cartH.AddLine)
	router.GET("/carrito/:usuarioID", cartH.GetCart)
	router.PUT("/carrito/:id", cartH.UpdateLine)
	router.DELETE("/carrito/:id", cartH.RemoveLine)
	// gin's router cannot mix the static "usuario" segment with the :id
	// wildcard, so the clear-cart route goes through the wildcard and the
	// handler checks the segment.
	router.DELETE("/carrito/:id/:usuarioID", cartH.Clear)
	router.GET("/carritos", cartH.ListAll)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	cancel()
	log.Info("server stopped")
}
