package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/mangeshr/parkseva-backend/database"
	"github.com/mangeshr/parkseva-backend/internal/handlers"
	"github.com/mangeshr/parkseva-backend/internal/jobs"
	"github.com/mangeshr/parkseva-backend/internal/models"
	"github.com/mangeshr/parkseva-backend/internal/routes"
	"github.com/mangeshr/parkseva-backend/internal/services"
	"github.com/mangeshr/parkseva-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	operatorEmail := os.Getenv("EMAIL_TO")
	if operatorEmail == "" {
		operatorEmail = "rmangesh600@gmail.com"
	}

	// Initialize storage
	var store storage.Store
	switch {
	case os.Getenv("USE_MEMORY_STORE") == "true":
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	case os.Getenv("USE_DATABASE") == "true":
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.ParkingRecord{},
			&models.SeasonPass{},
			&models.OTPEntry{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	default:
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "./data"
		}
		fs, err := storage.NewFileStore(dataDir)
		if err != nil {
			log.Fatal("Failed to initialize file storage:", err)
		}
		log.Printf("📦 Using JSON file storage at %s", dataDir)
		store = fs
	}

	// Initialize services
	notifyService := services.NewNotifyService()
	otpService := services.NewOTPService(store, notifyService)
	parkingService := services.NewParkingService(store, otpService, notifyService, operatorEmail)

	// Start the expiry scanner
	expiryJob := jobs.NewExpiryJob(store, notifyService)
	expiryJob.Start()

	log.Println("✅ All services initialized and expiry scanner started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "ParkSeva Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint with record counts
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		recs, err := store.ListParkings()
		if err != nil {
			status = "unhealthy"
			statusCode = 503
		}

		response := fiber.Map{
			"service": "ParkSeva Backend API",
			"version": "1.0.0",
			"status":  status,
			"storage": getStorageType(),
			"sms": fiber.Map{
				"configured": os.Getenv("TWILIO_ACCOUNT_SID") != "",
			},
		}
		if err == nil {
			response["parkings"] = len(recs)
		}

		return c.Status(statusCode).JSON(response)
	})

	// Setup API routes
	handler := handlers.NewParkingHandler(parkingService, otpService, notifyService, operatorEmail)
	routes.SetupRoutes(app, handler)

	// Frontend assets
	app.Static("/", "./public")

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping expiry scanner...")
		expiryJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 ParkSeva Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("📱 SMS: %s", getSMSStatus())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	switch {
	case os.Getenv("USE_MEMORY_STORE") == "true":
		return "In-Memory (Testing)"
	case os.Getenv("USE_DATABASE") == "true":
		return "PostgreSQL Database"
	default:
		return "JSON Files"
	}
}

func getSMSStatus() string {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		return "Not configured (console only)"
	}
	return "Configured"
}
