package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mangeshr/parkseva-backend/internal/storage"
)

var testClock = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestParking(t *testing.T) (*ParkingService, *OTPService, *fakeDispatcher, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	disp := &fakeDispatcher{}
	otp := NewOTPService(store, disp)
	svc := NewParkingService(store, otp, disp, "ops@example.com")
	svc.now = func() time.Time { return testClock }
	return svc, otp, disp, store
}

func f64(v float64) *float64 { return &v }

// checkInReq builds a valid request with the code freshly issued for the mobile.
func checkInReq(t *testing.T, otp *OTPService, mobile string) *CheckInRequest {
	t.Helper()
	require.NoError(t, otp.RequestCode(mobile))
	return &CheckInRequest{
		VehicleNo:     "mh12ab1234",
		Mobile:        mobile,
		DurationHours: f64(2),
		VehicleType:   "car",
		Amount:        f64(50),
		OTP:           issuedCode(t, otp, mobile),
	}
}

func TestCheckInComputesExpiry(t *testing.T) {
	svc, otp, _, store := newTestParking(t)

	rec, err := svc.CheckIn(checkInReq(t, otp, "9876543210"))
	require.NoError(t, err)

	require.Equal(t, testClock, rec.PaidAt)
	require.Equal(t, 2*time.Hour, rec.ExpiresAt.Sub(rec.PaidAt))
	require.False(t, rec.ReminderSent)
	require.False(t, rec.OverstayNotified)
	require.NotEmpty(t, rec.ID)

	recs, err := store.ListParkings()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, rec.ID, recs[0].ID)
}

func TestCheckInFractionalDuration(t *testing.T) {
	svc, otp, _, _ := newTestParking(t)

	req := checkInReq(t, otp, "9876543210")
	req.DurationHours = f64(0.5)

	rec, err := svc.CheckIn(req)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, rec.ExpiresAt.Sub(rec.PaidAt))
}

func TestCheckInDurationDefaults(t *testing.T) {
	for name, dur := range map[string]*float64{
		"absent":   nil,
		"zero":     f64(0),
		"negative": f64(-3),
	} {
		t.Run(name, func(t *testing.T) {
			svc, otp, _, _ := newTestParking(t)
			req := checkInReq(t, otp, "9876543210")
			req.DurationHours = dur

			rec, err := svc.CheckIn(req)
			require.NoError(t, err)
			require.Equal(t, time.Hour, rec.ExpiresAt.Sub(rec.PaidAt))
		})
	}
}

func TestCheckInNormalizesVehicleNo(t *testing.T) {
	svc, otp, _, _ := newTestParking(t)

	rec, err := svc.CheckIn(checkInReq(t, otp, "9876543210"))
	require.NoError(t, err)
	require.Equal(t, "MH12AB1234", rec.VehicleNo)
}

func TestCheckInMissingFields(t *testing.T) {
	mutations := map[string]func(*CheckInRequest){
		"no vehicleNo":    func(r *CheckInRequest) { r.VehicleNo = "" },
		"no mobile":       func(r *CheckInRequest) { r.Mobile = "" },
		"no vehicleType":  func(r *CheckInRequest) { r.VehicleType = "" },
		"no otp":          func(r *CheckInRequest) { r.OTP = "" },
		"no amount":       func(r *CheckInRequest) { r.Amount = nil },
		"negative amount": func(r *CheckInRequest) { r.Amount = f64(-5) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			svc, otp, _, store := newTestParking(t)
			req := checkInReq(t, otp, "9876543210")
			mutate(req)

			_, err := svc.CheckIn(req)
			require.ErrorIs(t, err, ErrMissingFields)

			recs, err := store.ListParkings()
			require.NoError(t, err)
			require.Empty(t, recs)
		})
	}
}

func TestCheckInPropagatesVerificationErrors(t *testing.T) {
	svc, otp, _, store := newTestParking(t)

	// No code was ever requested for this mobile.
	_, err := svc.CheckIn(&CheckInRequest{
		VehicleNo:   "MH12AB1234",
		Mobile:      "9000000000",
		VehicleType: "car",
		Amount:      f64(50),
		OTP:         "123456",
	})
	require.ErrorIs(t, err, ErrNotRequested)

	// Wrong code for a requested one.
	req := checkInReq(t, otp, "9876543210")
	code := req.OTP
	req.OTP = "000000"
	if req.OTP == code {
		req.OTP = "000001"
	}
	_, err = svc.CheckIn(req)
	require.ErrorIs(t, err, ErrInvalidCode)

	recs, err := store.ListParkings()
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestCheckInSucceedsDespiteDispatchFailure(t *testing.T) {
	svc, otp, disp, store := newTestParking(t)

	req := checkInReq(t, otp, "9876543210")
	disp.err = errors.New("provider outage")

	rec, err := svc.CheckIn(req)
	require.NoError(t, err)
	require.NotNil(t, rec)

	recs, err := store.ListParkings()
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestCheckInNotifiesDriverAndOperator(t *testing.T) {
	svc, otp, disp, _ := newTestParking(t)

	_, err := svc.CheckIn(checkInReq(t, otp, "9876543210"))
	require.NoError(t, err)

	var sms, email int
	for _, m := range disp.messages() {
		switch m.channel {
		case ChannelSMS:
			sms++
		case ChannelEmail:
			email++
			require.Equal(t, "ops@example.com", m.to)
			require.Contains(t, m.body, "MH12AB1234")
		}
	}
	// One OTP SMS plus one confirmation SMS.
	require.Equal(t, 2, sms)
	require.Equal(t, 1, email)
}

func TestSeasonPassReplace(t *testing.T) {
	svc, _, _, store := newTestParking(t)

	first, err := svc.CreateSeasonPass("MH12AB1234", "9876543210")
	require.NoError(t, err)
	second, err := svc.CreateSeasonPass("MH12AB1234", "9876543210")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	passes, err := store.ListSeasonPasses()
	require.NoError(t, err)
	require.Len(t, passes, 1)
	require.Equal(t, second.Token, passes[0].Token)

	_, err = svc.LookupSeasonPass(first.Token)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := svc.LookupSeasonPass(second.Token)
	require.NoError(t, err)
	require.Equal(t, "MH12AB1234", got.VehicleNo)
}

func TestSeasonPassMissingFields(t *testing.T) {
	svc, _, _, _ := newTestParking(t)
	_, err := svc.CreateSeasonPass("", "9876543210")
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.CreateSeasonPass("MH12AB1234", "")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestListParkingsFilters(t *testing.T) {
	svc, otp, _, _ := newTestParking(t)

	_, err := svc.CheckIn(checkInReq(t, otp, "9876543210"))
	require.NoError(t, err)

	req := checkInReq(t, otp, "9123456789")
	req.VehicleNo = "ka01cd5678"
	_, err = svc.CheckIn(req)
	require.NoError(t, err)

	all, err := svc.ListParkings("")
	require.NoError(t, err)
	require.Len(t, all, 2)

	byVehicle, err := svc.ListParkings("mh12")
	require.NoError(t, err)
	require.Len(t, byVehicle, 1)
	require.Equal(t, "MH12AB1234", byVehicle[0].VehicleNo)

	byMobile, err := svc.ListParkings("9123")
	require.NoError(t, err)
	require.Len(t, byMobile, 1)
	require.Equal(t, "KA01CD5678", byMobile[0].VehicleNo)
}

func TestExportCSV(t *testing.T) {
	svc, otp, _, _ := newTestParking(t)

	req := checkInReq(t, otp, "9876543210")
	req.Note = "near gate"
	rec, err := svc.CheckIn(req)
	require.NoError(t, err)

	out, err := svc.ExportCSV()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "id,vehicleNo,mobile,vehicleType,amount,paidAt,expiresAt,note", lines[0])
	require.Contains(t, lines[1], rec.ID)
	require.Contains(t, lines[1], "MH12AB1234")
	require.Contains(t, lines[1], "near gate")
}

func TestDailyReportCSVFiltersByDay(t *testing.T) {
	svc, otp, _, store := newTestParking(t)

	_, err := svc.CheckIn(checkInReq(t, otp, "9876543210"))
	require.NoError(t, err)

	// Backdate a second record to yesterday.
	recs, err := store.ListParkings()
	require.NoError(t, err)
	old := *recs[0]
	old.ID = "old-record"
	old.PaidAt = testClock.AddDate(0, 0, -1)
	require.NoError(t, store.AppendParking(&old))

	out, err := svc.DailyReportCSV(testClock)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "ID,Vehicle,Mobile,Type,Amount,PaidAt,ExpiresAt", lines[0])
	require.NotContains(t, out, "old-record")
}

// The end-to-end scenario: request, fail once with a wrong code, then check
// in with the real one.
func TestCheckInScenario(t *testing.T) {
	svc, otp, _, _ := newTestParking(t)

	require.NoError(t, otp.RequestCode("9876543210"))
	code := issuedCode(t, otp, "9876543210")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err := svc.CheckIn(&CheckInRequest{
		VehicleNo:     "MH12AB1234",
		Mobile:        "9876543210",
		DurationHours: f64(2),
		VehicleType:   "car",
		Amount:        f64(50),
		OTP:           wrong,
	})
	require.ErrorIs(t, err, ErrInvalidCode)

	rec, err := svc.CheckIn(&CheckInRequest{
		VehicleNo:     "MH12AB1234",
		Mobile:        "9876543210",
		DurationHours: f64(2),
		VehicleType:   "car",
		Amount:        f64(50),
		OTP:           code,
	})
	require.NoError(t, err)
	require.Equal(t, testClock.Add(2*time.Hour), rec.ExpiresAt)
	require.False(t, rec.ReminderSent)
}
