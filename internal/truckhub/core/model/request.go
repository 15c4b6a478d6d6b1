package model

import "time"

// RequestStatus is the lifecycle state of a customer request.
type RequestStatus string

const (
	RequestPending      RequestStatus = "pending"
	RequestAcknowledged RequestStatus = "acknowledged"
	RequestIgnored      RequestStatus = "ignored"
	RequestExpired      RequestStatus = "expired"
)

// Request is a customer asking a live truck to come to them.
type Request struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	UserName  string        `json:"userName"`
	TruckID   string        `json:"truckId"`
	TruckName string        `json:"truckName"`
	OwnerID   string        `json:"ownerId"`
	Message   string        `json:"message,omitempty"`
	Status    RequestStatus `json:"status"`
	Location  *Location     `json:"location,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
