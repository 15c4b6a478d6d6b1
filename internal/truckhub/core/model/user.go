package model

import "slices"

// Role is the account type of a user.
type Role string

const (
	RoleGuest         Role = "guest"
	RoleUser          Role = "user"
	RoleDriverPending Role = "driver-pending"
	RoleDriverActive  Role = "driver-active"
)

// VerificationStatus tracks a driver application.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// DriverInfo is filled in when a user applies to become a driver.
type DriverInfo struct {
	LicenseNumber      string             `json:"licenseNumber"`
	BusinessName       string             `json:"businessName"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
}

type User struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	FirstName       string      `json:"firstName"`
	HomeCity        string      `json:"homeCity,omitempty"`
	FoodPreferences []string    `json:"foodPreferences,omitempty"`
	Role            Role        `json:"role"`
	DriverInfo      *DriverInfo `json:"driverInfo,omitempty"`
	Favorites       []string    `json:"favorites"`
}

// HasFavorite reports whether truckID is in the user's favorites.
func (u *User) HasFavorite(truckID string) bool {
	return slices.Contains(u.Favorites, truckID)
}

// ToggleFavorite adds or removes truckID and returns whether it is now a
// favorite.
func (u *User) ToggleFavorite(truckID string) bool {
	if i := slices.Index(u.Favorites, truckID); i >= 0 {
		u.Favorites = slices.Delete(u.Favorites, i, i+1)
		return false
	}
	u.Favorites = append(u.Favorites, truckID)
	return true
}

// FavoriteSet returns the favorites as a set.
func (u *User) FavoriteSet() Set {
	return NewSet(u.Favorites...)
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.FoodPreferences = slices.Clone(u.FoodPreferences)
	c.Favorites = slices.Clone(u.Favorites)
	if u.DriverInfo != nil {
		d := *u.DriverInfo
		c.DriverInfo = &d
	}
	return &c
}
