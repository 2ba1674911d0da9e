package handlers

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/mangeshr/parkseva-backend/internal/services"
	"github.com/mangeshr/parkseva-backend/internal/storage"
)

// ParkingHandler exposes the check-in API over HTTP.
type ParkingHandler struct {
	svc           *services.ParkingService
	otp           *services.OTPService
	notify        *services.NotifyService
	operatorEmail string
}

// NewParkingHandler creates the handler set.
func NewParkingHandler(svc *services.ParkingService, otp *services.OTPService, notify *services.NotifyService, operatorEmail string) *ParkingHandler {
	return &ParkingHandler{
		svc:           svc,
		otp:           otp,
		notify:        notify,
		operatorEmail: operatorEmail,
	}
}

// RequestOTP issues a one-time code for a mobile number.
// POST /api/request-otp {mobile}
func (h *ParkingHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		Mobile string `json:"mobile"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Mobile == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing mobile"})
	}

	if err := h.otp.RequestCode(req.Mobile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// CheckIn verifies the code and creates a parking record.
// POST /api/verify-otp {vehicleNo, mobile, durationHours, vehicleType, amount, otp, note}
func (h *ParkingHandler) CheckIn(c *fiber.Ctx) error {
	var req services.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	rec, err := h.svc.CheckIn(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing fields"})
		case errors.Is(err, services.ErrNotRequested):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "OTP not requested"})
		case errors.Is(err, services.ErrTooManyAttempts):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts"})
		case errors.Is(err, services.ErrInvalidCode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid OTP"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
		}
	}

	return c.JSON(fiber.Map{"ok": true, "record": rec})
}

// ListParkings searches records by vehicle number or mobile.
// GET /api/parkings?q=
func (h *ParkingHandler) ListParkings(c *fiber.Ctx) error {
	recs, err := h.svc.ListParkings(c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	return c.JSON(fiber.Map{"count": len(recs), "data": recs})
}

// ExportCSV downloads all records as CSV.
// GET /api/export
func (h *ParkingHandler) ExportCSV(c *fiber.Ctx) error {
	csvData, err := h.svc.ExportCSV()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=parkings.csv")
	return c.SendString(csvData)
}

// CreateSeasonPass issues a QR token for a known vehicle.
// POST /api/season {vehicleNo, mobile}
func (h *ParkingHandler) CreateSeasonPass(c *fiber.Ctx) error {
	var req struct {
		VehicleNo string `json:"vehicleNo"`
		Mobile    string `json:"mobile"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	pass, err := h.svc.CreateSeasonPass(req.VehicleNo, req.Mobile)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	qrURL := fmt.Sprintf("%s://%s/season/%s", c.Protocol(), c.Hostname(), pass.Token)
	return c.JSON(fiber.Map{"ok": true, "qrUrl": qrURL})
}

// SeasonRedirect serves a tiny page that forwards a scanned QR token to the
// check-in form with the vehicle fields pre-filled.
// GET /season/:token
func (h *ParkingHandler) SeasonRedirect(c *fiber.Ctx) error {
	pass, err := h.svc.LookupSeasonPass(c.Params("token"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Server error")
	}

	redirect := fmt.Sprintf("/index.html?vehicleNo=%s&mobile=%s&season=1",
		url.QueryEscape(pass.VehicleNo), url.QueryEscape(pass.Mobile))
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(fmt.Sprintf(
		`<html><head><meta http-equiv="refresh" content="0;url=%s"/></head><body>Redirecting...</body></html>`,
		redirect))
}

// SendDailyReport emails today's records as a CSV attachment, or returns
// the CSV inline when no mailer is configured.
// GET /api/send-daily-report
func (h *ParkingHandler) SendDailyReport(c *fiber.Ctx) error {
	today := h.svc.Now()
	csvData, err := h.svc.DailyReportCSV(today)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	if !h.notify.EmailConfigured() {
		return c.JSON(fiber.Map{"ok": true, "csv": csvData})
	}

	date := today.UTC().Format("2006-01-02")
	if err := h.notify.SendDailyReport(h.operatorEmail, date, csvData); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Email failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
