package model

import "time"

// Notification tells a user that a favorite truck went live.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TruckID   string    `json:"truckId"`
	TruckName string    `json:"truckName"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
