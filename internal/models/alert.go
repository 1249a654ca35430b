package models

import "time"

// Notification methods for price alerts.
const (
	NotifyEmail   = "email"
	NotifyBrowser = "browser"
	NotifyBoth    = "both"
)

type Alert struct {
	ID                 string    `json:"id,omitempty"`
	ProductID          string    `json:"productId"`
	TargetPrice        float64   `json:"targetPrice"`
	NotificationMethod string    `json:"notificationMethod"`
	AlertName          string    `json:"alertName,omitempty"`
	EmailAddress       string    `json:"emailAddress,omitempty"`
	PriceIncreaseAlert bool      `json:"priceIncreaseAlert"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
}
