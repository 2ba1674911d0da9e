package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mangeshr/parkseva-backend/internal/models"
)

// DatabaseStore persists collections in PostgreSQL via GORM. Enabled with
// USE_DATABASE=true. It keeps the same whole-collection contract as the
// file store; rows are upserted by primary key on SaveParkings.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an already-connected GORM handle.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) ListParkings() ([]*models.ParkingRecord, error) {
	var recs []*models.ParkingRecord
	if err := d.db.Order("paid_at").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (d *DatabaseStore) AppendParking(rec *models.ParkingRecord) error {
	return d.db.Create(rec).Error
}

func (d *DatabaseStore) SaveParkings(recs []*models.ParkingRecord) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			if err := tx.Save(rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DatabaseStore) ListSeasonPasses() ([]*models.SeasonPass, error) {
	var passes []*models.SeasonPass
	if err := d.db.Find(&passes).Error; err != nil {
		return nil, err
	}
	return passes, nil
}

func (d *DatabaseStore) ReplaceSeasonPass(pass *models.SeasonPass) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_no = ?", pass.VehicleNo).
			Delete(&models.SeasonPass{}).Error; err != nil {
			return err
		}
		return tx.Create(pass).Error
	})
}

func (d *DatabaseStore) GetSeasonPassByToken(token string) (*models.SeasonPass, error) {
	var pass models.SeasonPass
	err := d.db.Where("token = ?", token).First(&pass).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (d *DatabaseStore) LoadOTPs() (map[string]*models.OTPEntry, error) {
	var rows []*models.OTPEntry
	if err := d.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make(map[string]*models.OTPEntry, len(rows))
	for _, e := range rows {
		entries[e.Mobile] = e
	}
	return entries, nil
}

func (d *DatabaseStore) SaveOTPs(entries map[string]*models.OTPEntry) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.OTPEntry{}).Error; err != nil {
			return err
		}
		for _, e := range entries {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
