package model

import (
	"fmt"
	"strings"
)

// Status is the broadcast status of a truck.
type Status string

const (
	StatusOffline    Status = "offline"
	StatusLiveMobile Status = "live-mobile"
	StatusLiveStatic Status = "live-static"
)

// IsLive reports whether the truck is broadcasting in either mode.
func (s Status) IsLive() bool {
	return s == StatusLiveMobile || s == StatusLiveStatic
}

// BroadcastMode is how a live truck broadcasts. It is empty while offline.
type BroadcastMode string

const (
	ModeNone   BroadcastMode = ""
	ModeMobile BroadcastMode = "mobile"
	ModeStatic BroadcastMode = "static"
)

// ParseMode accepts "mobile" or "static", case-insensitively.
func ParseMode(s string) (BroadcastMode, error) {
	switch BroadcastMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMobile:
		return ModeMobile, nil
	case ModeStatic:
		return ModeStatic, nil
	default:
		return ModeNone, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// StatusFor derives the status of a truck from whether it is broadcasting
// and in which mode.
func StatusFor(broadcasting bool, mode BroadcastMode) Status {
	if !broadcasting {
		return StatusOffline
	}
	if mode == ModeStatic {
		return StatusLiveStatic
	}
	return StatusLiveMobile
}

// ModeOf returns the broadcast mode implied by a status.
func ModeOf(s Status) BroadcastMode {
	switch s {
	case StatusLiveMobile:
		return ModeMobile
	case StatusLiveStatic:
		return ModeStatic
	default:
		return ModeNone
	}
}

// Statuses is a snapshot of truck statuses keyed by truck id.
type Statuses map[string]Status

// Live returns the ids of the live trucks in the snapshot.
func (s Statuses) Live() []string {
	var ids []string
	for id, st := range s {
		if st.IsLive() {
			ids = append(ids, id)
		}
	}
	return ids
}
