package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/araneta/postoko-sub002/config"
	"github.com/araneta/postoko-sub002/database"
	"github.com/araneta/postoko-sub002/handlers"
	"github.com/araneta/postoko-sub002/services"
	"github.com/araneta/postoko-sub002/storage/postgres"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		logger.Fatal("failed to initialize tables", zap.Error(err))
	}

	store := postgres.NewStore(db.DB)
	currency := config.AppConfig.DefaultCurrency

	var media *services.MediaService
	if config.AppConfig.CloudinaryURL != "" {
		media, err = services.NewMediaService(config.AppConfig.CloudinaryURL)
		if err != nil {
			logger.Warn("cloudinary unavailable, image uploads disabled", zap.Error(err))
			media = nil
		}
	} else {
		logger.Info("no cloudinary url configured, image uploads disabled")
	}

	engine := services.NewLoyaltyEngine(store, logger, currency)
	catalog := services.NewPromotionCatalog(store)
	calculator := services.NewDiscountCalculator(store, currency)
	settlement := services.NewOrderSettlement(store, catalog, calculator, engine, logger)

	authHandler := handlers.NewAuthHandler(store)
	loyaltyHandler := handlers.NewLoyaltyHandler(engine, store)
	promotionsHandler := handlers.NewPromotionsHandler(catalog, calculator, media)
	ordersHandler := handlers.NewOrdersHandler(settlement, store)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure this properly for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	router.Use(func(c *gin.Context) {
		corsHandler.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Loyalty server is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		authed := v1.Group("/")
		authed.Use(handlers.AuthMiddleware())
		{
			loyalty := authed.Group("/loyalty")
			{
				loyalty.GET("/settings", loyaltyHandler.GetSettings)
				loyalty.GET("/customers/:id/points", loyaltyHandler.GetCustomerPoints)
				loyalty.GET("/customers/:id/transactions", loyaltyHandler.GetCustomerTransactions)
				loyalty.POST("/earn", loyaltyHandler.Earn)
				loyalty.POST("/redeem", loyaltyHandler.Redeem)
			}

			promotions := authed.Group("/promotions")
			{
				promotions.GET("", promotionsHandler.List)
				promotions.GET("/:id", promotionsHandler.Get)
				promotions.POST("/validate-code", promotionsHandler.ValidateCode)
			}

			orders := authed.Group("/orders")
			{
				orders.POST("", ordersHandler.Create)
				orders.GET("/:id", ordersHandler.Get)
			}

			admin := authed.Group("/")
			admin.Use(handlers.AdminMiddleware())
			{
				admin.PUT("/loyalty/settings", loyaltyHandler.UpdateSettings)
				admin.POST("/loyalty/adjust", loyaltyHandler.Adjust)
				admin.POST("/loyalty/expire", loyaltyHandler.Expire)

				admin.POST("/promotions", promotionsHandler.Create)
				admin.PUT("/promotions/:id", promotionsHandler.Update)
				admin.DELETE("/promotions/:id", promotionsHandler.Delete)
				admin.GET("/promotions/stats", promotionsHandler.Stats)
				admin.POST("/promotions/:id/image", promotionsHandler.UploadImage)
			}
		}
	}

	logger.Info("server starting", zap.String("port", config.AppConfig.ServerPort))
	if err := router.Run(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
