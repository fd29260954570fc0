package main

import (
	"os"

	_ "taxmanager/api/swagger" // swagger docs
	"taxmanager/internal/database"
	"taxmanager/internal/email"
	"taxmanager/internal/handler"
	"taxmanager/internal/middleware"
	"taxmanager/internal/repository"
	"taxmanager/internal/service"
	"taxmanager/internal/websocket"
	"taxmanager/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           EV Charge Station Tax Manager API
// @version         1.0
// @description     Backend for managing tax obligations of EV charge station operators.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load("configs/.env")

	log, err := logger.New(logger.Config{
		Level:  envOr("LOG_LEVEL", "info"),
		Format: envOr("LOG_FORMAT", "console"),
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	dsn := "postgres://" + envOr("DB_USER", "postgres") +
		":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") +
		":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "postgres") +
		"?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	jwtSecret := middleware.GetJWTSecret()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// SendGrid mail client
	mailer := email.NewClient(os.Getenv("SENDGRID_API_KEY"), os.Getenv("SENDGRID_FROM_EMAIL"))
	if !mailer.Configured() {
		log.Warn("SENDGRID_API_KEY is not set, reminder emails are disabled")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	stationRepo := repository.NewStationRepository(db)
	taxTypeRepo := repository.NewTaxTypeRepository(db)
	taxRepo := repository.NewTaxRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	auditService := service.NewAuditService(auditRepo, log)
	userService := service.NewUserService(userRepo, jwtSecret)
	stationService := service.NewStationService(stationRepo, auditService)
	taxTypeService := service.NewTaxTypeService(taxTypeRepo, auditService)
	taxService := service.NewTaxService(taxRepo, stationRepo, taxTypeRepo, auditService, wsHub, log)
	reminderService := service.NewReminderService(reminderRepo, taxRepo, txManager)
	notificationService := service.NewNotificationService(taxRepo, reminderRepo, mailer, auditService, wsHub, log)
	statisticsService := service.NewStatisticsService(db)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	stationHandler := handler.NewStationHandler(stationService)
	taxTypeHandler := handler.NewTaxTypeHandler(taxTypeService)
	taxHandler := handler.NewTaxHandler(taxService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	api := router.Group("")
	userHandler.RegisterRoutes(api)
	stationHandler.RegisterRoutes(api)
	taxTypeHandler.RegisterRoutes(api)
	taxHandler.RegisterRoutes(api)
	reminderHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	port := envOr("PORT", "8080")
	log.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
