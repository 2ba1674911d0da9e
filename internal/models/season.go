package models

// SeasonPass is a standing shortcut for a known vehicle. The token goes into
// a QR code that pre-fills the check-in form. At most one pass exists per
// vehicle number; creating a new one replaces the old.
type SeasonPass struct {
	ID        string `json:"id" gorm:"primaryKey"`
	VehicleNo string `json:"vehicleNo" gorm:"index;not null"`
	Mobile    string `json:"mobile" gorm:"not null"`
	Token     string `json:"token" gorm:"index;not null"`
	IsSeason  bool   `json:"isSeason"`
}
