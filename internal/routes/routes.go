package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mangeshr/parkseva-backend/internal/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *handlers.ParkingHandler) {
	api := app.Group("/api")

	// OTP + check-in
	api.Post("/request-otp", h.RequestOTP)
	api.Post("/verify-otp", h.CheckIn)

	// Records
	api.Get("/parkings", h.ListParkings)
	api.Get("/export", h.ExportCSV)
	api.Get("/send-daily-report", h.SendDailyReport)

	// Season passes
	api.Post("/season", h.CreateSeasonPass)
	app.Get("/season/:token", h.SeasonRedirect)
}
