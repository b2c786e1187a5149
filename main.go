package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chaosunly/iam-app/audit"
	"github.com/chaosunly/iam-app/config"
	"github.com/chaosunly/iam-app/controller"
	"github.com/chaosunly/iam-app/dao"
	"github.com/chaosunly/iam-app/db"
	"github.com/chaosunly/iam-app/identity"
	"github.com/chaosunly/iam-app/middleware"
	"github.com/chaosunly/iam-app/pdp/engine"
	"github.com/chaosunly/iam-app/router"
	"github.com/chaosunly/iam-app/service"
	"github.com/chaosunly/iam-app/util"

	logger "github.com/chaosunly/iam-app/logging"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Redis (rate limiting)
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	notificationService := util.NewNotificationService()
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Upstream collaborators
	tupleDAO := dao.NewTupleDAO(
		config.GetString("authz.readURL"),
		config.GetString("authz.writeURL"),
		config.GetDuration("authz.timeout"),
	)
	identityClient := identity.NewClient(
		config.GetString("identity.url"),
		config.GetDuration("identity.timeout"),
	)

	// Check cache with background sweep
	checkCache := engine.NewCheckCache(
		tupleDAO,
		config.GetDuration("cache.ttl"),
		config.GetDuration("cache.sweepInterval"),
	)
	checkCache.Start()
	defer checkCache.Stop()

	// Initialize services
	services := service.InitializeServices(
		tupleDAO,
		checkCache,
		auditService,
		validationUtil,
		notificationService,
		eventBus,
	)

	// Initialize controllers and middleware
	controllers := controller.InitializeControllers(services)
	accessMiddleware := middleware.NewAccessMiddleware(identityClient, checkCache)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	ginEngine := router.SetupRouter(
		controllers,
		accessMiddleware,
		services.Permission,
		config.GetInt("ratelimit.requests"),
		config.GetDuration("ratelimit.duration"),
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: ginEngine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
