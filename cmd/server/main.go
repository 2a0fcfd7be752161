package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"careerlaunch_api/internal/config"
	"careerlaunch_api/internal/handlers"
	appmw "careerlaunch_api/internal/middleware"
	"careerlaunch_api/internal/services"
	"careerlaunch_api/internal/tasks"
	"careerlaunch_api/internal/validation"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize Firebase
	authClient, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; the catalog falls back to the database.
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
		}
	}

	gateway := services.NewRazorpayService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	notifier := tasks.NewTaskNotifier(db)
	payments := services.NewPaymentService(db, gateway, notifier)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.NewEchoValidator()
	e.HTTPErrorHandler = appmw.NewErrorHandler(cfg.IsDevelopment())

	// Middleware
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Client-Info"},
	}))

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(payments)
	catalogHandler := handlers.NewCatalogHandler(db, cache)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Protected API routes
	api := e.Group("/api")
	api.Use(appmw.RequireAuth(authClient))

	api.POST("/create-mentor-booking", paymentHandler.CreateMentorBooking)
	api.POST("/verify-mentor-booking", paymentHandler.VerifyMentorBooking)
	api.POST("/create-project-payment", paymentHandler.CreateProjectPayment)
	api.POST("/verify-project-payment", paymentHandler.VerifyProjectPayment)

	api.GET("/mentors", catalogHandler.ListMentors)
	api.GET("/mentors/:id", catalogHandler.GetMentor)
	api.GET("/projects", catalogHandler.ListProjects)
	api.GET("/projects/:id", catalogHandler.GetProject)

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
