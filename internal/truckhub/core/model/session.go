package model

import "time"

// EndReason records why a broadcast session ended.
type EndReason string

const (
	EndReasonStopped   EndReason = "stopped"
	EndReasonPreempted EndReason = "preempted"
	EndReasonRemoved   EndReason = "removed"
)

// Session is an owner's broadcast of one truck. An owner has at most one
// session without EndedAt.
type Session struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"ownerId"`
	TruckID   string        `json:"truckId"`
	Mode      BroadcastMode `json:"mode"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty"`
	EndReason EndReason     `json:"endReason,omitempty"`
}

// Active reports whether the session has not ended.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}
