package model

import "time"

// Transition is one applied change of a truck's status.
type Transition struct {
	TruckID string    `json:"truckId"`
	OwnerID string    `json:"ownerId"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	Event   string    `json:"event"`
	At      time.Time `json:"at"`
}
