package model

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Profile holds the fields a driver edits on the truck screens.
type Profile struct {
	Name        string   `json:"name"`
	FoodType    string   `json:"foodType"`
	Description string   `json:"description,omitempty"`
	Location    Location `json:"location"`
	Schedule    string   `json:"schedule,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
}

// Truck is a food truck and its broadcast state. Status and BroadcastMode
// are only changed by the broadcast controller.
type Truck struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Profile

	Status        Status        `json:"status"`
	BroadcastMode BroadcastMode `json:"broadcastMode,omitempty"`

	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// Clone returns a copy that shares no state with t.
func (t *Truck) Clone() *Truck {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
