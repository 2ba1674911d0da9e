package models

import "time"

// OTPEntry is the one-time-code state for a single mobile number. Entries
// live in process memory and are snapshotted to the store after every
// mutation, so a restart only loses codes issued after the last snapshot.
// Codes expire by attempt exhaustion or replacement, not by time.
type OTPEntry struct {
	Mobile    string    `json:"mobile" gorm:"primaryKey"`
	OTP       string    `json:"otp" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	Attempts  int       `json:"attempts" gorm:"default:0"`
}
