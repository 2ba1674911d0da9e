package storage

import (
	"errors"

	"github.com/mangeshr/parkseva-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the service needs. Parking
// records are a flat ordered collection: readers get the whole thing and
// writers rewrite the whole thing. That keeps every backend trivial at
// this scale, at the cost of a lost-update window between a request-side
// append and an in-flight scanner rewrite.
type Store interface {
	// Parking record operations
	ListParkings() ([]*models.ParkingRecord, error)
	AppendParking(rec *models.ParkingRecord) error
	SaveParkings(recs []*models.ParkingRecord) error

	// Season pass operations
	ListSeasonPasses() ([]*models.SeasonPass, error)
	ReplaceSeasonPass(pass *models.SeasonPass) error
	GetSeasonPassByToken(token string) (*models.SeasonPass, error)

	// OTP snapshot operations
	LoadOTPs() (map[string]*models.OTPEntry, error)
	SaveOTPs(entries map[string]*models.OTPEntry) error
}
