package model

import "time"

// PushSubscription holds the information for a staff dashboard's browser
// push subscription. Subscribed dashboards receive sync and reset notices.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
