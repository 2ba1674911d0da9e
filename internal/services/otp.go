package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mangeshr/parkseva-backend/internal/models"
	"github.com/mangeshr/parkseva-backend/internal/storage"
	"github.com/mangeshr/parkseva-backend/internal/utils"
)

// Verification failure kinds, surfaced to the caller unchanged.
var (
	ErrNotRequested    = errors.New("otp not requested")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrInvalidCode     = errors.New("invalid otp")
)

// maxOTPAttempts is the hard cap per issued code. Once reached, even the
// correct code is rejected until a new one is requested.
const maxOTPAttempts = 5

// OTPService issues and verifies one-time codes keyed by mobile number.
// Entries live in memory; every mutation snapshots the whole map to the
// store so restarts only lose codes issued after the last snapshot.
// Codes have no TTL: they die by attempt exhaustion or replacement.
type OTPService struct {
	store      storage.Store
	dispatcher Dispatcher

	mu      sync.Mutex
	entries map[string]*models.OTPEntry
	now     func() time.Time
}

// NewOTPService restores the snapshot from the store. A broken snapshot is
// logged and discarded; in-flight codes are short-lived anyway.
func NewOTPService(store storage.Store, dispatcher Dispatcher) *OTPService {
	entries, err := store.LoadOTPs()
	if err != nil {
		log.Printf("⚠️  Could not restore OTP snapshot, starting empty: %v", err)
		entries = nil
	}
	if entries == nil {
		entries = make(map[string]*models.OTPEntry)
	}
	return &OTPService{
		store:      store,
		dispatcher: dispatcher,
		entries:    entries,
		now:        time.Now,
	}
}

// RequestCode issues a fresh 6-digit code for the mobile, replacing any
// prior entry and resetting its attempt counter. The SMS is best-effort:
// a failed send is logged and the code stays valid.
func (s *OTPService) RequestCode(mobile string) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[mobile] = &models.OTPEntry{
		Mobile:    mobile,
		OTP:       code,
		CreatedAt: s.now(),
		Attempts:  0,
	}
	s.snapshotLocked()
	s.mu.Unlock()

	if err := s.dispatcher.Send(ChannelSMS, mobile, fmt.Sprintf("Your parking OTP is %s", code)); err != nil {
		log.Printf("OTP send failed for %s: %v", mobile, err)
	}
	return nil
}

// VerifyCode checks the code for the mobile. On a match the entry is
// consumed; on a mismatch the attempt counter goes up. The attempt cap is
// checked first, so once it is hit even the correct code fails.
func (s *OTPService) VerifyCode(mobile, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[mobile]
	if !ok {
		return ErrNotRequested
	}
	if entry.Attempts >= maxOTPAttempts {
		return ErrTooManyAttempts
	}
	if entry.OTP != code {
		entry.Attempts++
		s.snapshotLocked()
		return ErrInvalidCode
	}

	delete(s.entries, mobile)
	s.snapshotLocked()
	return nil
}

// snapshotLocked persists the current entries. Snapshot failure is logged,
// not returned: losing durability of short-lived codes must not block a
// check-in.
func (s *OTPService) snapshotLocked() {
	if err := s.store.SaveOTPs(s.entries); err != nil {
		log.Printf("OTP snapshot failed: %v", err)
	}
}
