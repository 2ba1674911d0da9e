package models

import "time"

// ParkingRecord is one paid parking entry. JSON field names match what the
// frontend and the CSV export already expect.
type ParkingRecord struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	VehicleNo        string    `json:"vehicleNo" gorm:"index;not null"`
	Mobile           string    `json:"mobile" gorm:"index;not null"`
	VehicleType      string    `json:"vehicleType"`
	Amount           float64   `json:"amount"`
	Note             string    `json:"note"`
	PaidAt           time.Time `json:"paidAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	ReminderSent     bool      `json:"reminderSent" gorm:"default:false"`
	OverstayNotified bool      `json:"overstayNotified" gorm:"default:false"`
}
