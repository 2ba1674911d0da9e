package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mangeshr/parkseva-backend/internal/models"
	"github.com/mangeshr/parkseva-backend/internal/storage"
	"github.com/mangeshr/parkseva-backend/internal/utils"
)

// ErrMissingFields is returned when a request lacks a required field or
// carries a negative amount.
var ErrMissingFields = errors.New("missing fields")

// defaultDurationHours applies when the caller omits the duration or sends
// something non-positive.
const defaultDurationHours = 1.0

// CheckInRequest carries the check-in form. Pointer fields distinguish
// "absent" from zero so validation can tell them apart.
type CheckInRequest struct {
	VehicleNo     string   `json:"vehicleNo"`
	Mobile        string   `json:"mobile"`
	DurationHours *float64 `json:"durationHours"`
	VehicleType   string   `json:"vehicleType"`
	Amount        *float64 `json:"amount"`
	OTP           string   `json:"otp"`
	Note          string   `json:"note"`
}

// ParkingService owns the reservation lifecycle: it turns a verified
// check-in into a durable record and handles season passes and exports.
type ParkingService struct {
	store         storage.Store
	otp           *OTPService
	dispatcher    Dispatcher
	operatorEmail string
	now           func() time.Time
}

// NewParkingService wires the lifecycle manager. operatorEmail receives a
// summary mail on every check-in and the daily report.
func NewParkingService(store storage.Store, otp *OTPService, dispatcher Dispatcher, operatorEmail string) *ParkingService {
	return &ParkingService{
		store:         store,
		otp:           otp,
		dispatcher:    dispatcher,
		operatorEmail: operatorEmail,
		now:           time.Now,
	}
}

// CheckIn validates the request, verifies the one-time code and persists a
// new parking record. The record is final once stored: confirmation SMS and
// operator email are best-effort and never roll it back.
func (p *ParkingService) CheckIn(req *CheckInRequest) (*models.ParkingRecord, error) {
	if req.VehicleNo == "" || req.Mobile == "" || req.VehicleType == "" || req.OTP == "" {
		return nil, ErrMissingFields
	}
	if req.Amount == nil || *req.Amount < 0 {
		return nil, ErrMissingFields
	}

	if err := p.otp.VerifyCode(req.Mobile, req.OTP); err != nil {
		return nil, err
	}

	duration := defaultDurationHours
	if req.DurationHours != nil && *req.DurationHours > 0 {
		duration = *req.DurationHours
	}

	now := p.now()
	rec := &models.ParkingRecord{
		ID:          utils.NewRecordID(),
		VehicleNo:   strings.ToUpper(req.VehicleNo),
		Mobile:      req.Mobile,
		VehicleType: req.VehicleType,
		Amount:      *req.Amount,
		Note:        req.Note,
		PaidAt:      now,
		ExpiresAt:   now.Add(time.Duration(duration * float64(time.Hour))),
	}

	if err := p.store.AppendParking(rec); err != nil {
		return nil, fmt.Errorf("persist parking record: %w", err)
	}

	// Record is durable from here on. Notification failures are logged only.
	if err := p.dispatcher.Send(ChannelSMS, rec.Mobile,
		"Your vehicle has been parked successfully. Thank you."); err != nil {
		log.Printf("Check-in confirmation SMS failed for %s: %v", rec.Mobile, err)
	}
	summary := fmt.Sprintf("New parking check-in\nID: %s\nVehicle: %s\nMobile: %s\nType: %s\nAmount: %.2f\nExpires: %s",
		rec.ID, rec.VehicleNo, rec.Mobile, rec.VehicleType, rec.Amount, rec.ExpiresAt.Format(time.RFC3339))
	if err := p.dispatcher.Send(ChannelEmail, p.operatorEmail, summary); err != nil {
		log.Printf("Check-in summary email failed: %v", err)
	}

	return rec, nil
}

// ListParkings returns records whose vehicle number or mobile contains the
// query. An empty query returns everything.
func (p *ParkingService) ListParkings(query string) ([]*models.ParkingRecord, error) {
	recs, err := p.store.ListParkings()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return recs, nil
	}

	q := strings.ToLower(query)
	var out []*models.ParkingRecord
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.VehicleNo), q) || strings.Contains(r.Mobile, q) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateSeasonPass issues a fresh pass token for the vehicle, replacing any
// existing pass for the same vehicle number.
func (p *ParkingService) CreateSeasonPass(vehicleNo, mobile string) (*models.SeasonPass, error) {
	if vehicleNo == "" || mobile == "" {
		return nil, ErrMissingFields
	}

	token := utils.NewSeasonToken()
	pass := &models.SeasonPass{
		ID:        "season-" + token,
		VehicleNo: vehicleNo,
		Mobile:    mobile,
		Token:     token,
		IsSeason:  true,
	}
	if err := p.store.ReplaceSeasonPass(pass); err != nil {
		return nil, fmt.Errorf("persist season pass: %w", err)
	}
	return pass, nil
}

// LookupSeasonPass resolves a QR token to its pass.
func (p *ParkingService) LookupSeasonPass(token string) (*models.SeasonPass, error) {
	return p.store.GetSeasonPassByToken(token)
}

// ExportCSV renders every record as CSV in the column order the frontend
// download expects.
func (p *ParkingService) ExportCSV() (string, error) {
	recs, err := p.store.ListParkings()
	if err != nil {
		return "", err
	}
	header := []string{"id", "vehicleNo", "mobile", "vehicleType", "amount", "paidAt", "expiresAt", "note"}
	return buildCSV(header, recs, true)
}

// DailyReportCSV renders the records paid on the given day (UTC date).
func (p *ParkingService) DailyReportCSV(day time.Time) (string, error) {
	recs, err := p.store.ListParkings()
	if err != nil {
		return "", err
	}

	date := day.UTC().Format("2006-01-02")
	var todays []*models.ParkingRecord
	for _, r := range recs {
		if r.PaidAt.UTC().Format("2006-01-02") == date {
			todays = append(todays, r)
		}
	}
	header := []string{"ID", "Vehicle", "Mobile", "Type", "Amount", "PaidAt", "ExpiresAt"}
	return buildCSV(header, todays, false)
}

// Now exposes the service clock so handlers date the daily report the same
// way check-ins are stamped.
func (p *ParkingService) Now() time.Time {
	return p.now()
}

func buildCSV(header []string, recs []*models.ParkingRecord, withNote bool) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			r.VehicleNo,
			r.Mobile,
			r.VehicleType,
			strconv.FormatFloat(r.Amount, 'f', -1, 64),
			r.PaidAt.Format(time.RFC3339),
			r.ExpiresAt.Format(time.RFC3339),
		}
		if withNote {
			row = append(row, r.Note)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}
