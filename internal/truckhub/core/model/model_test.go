package model

import (
	"errors"
	"testing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		broadcasting bool
		mode         BroadcastMode
		want         Status
	}{
		{false, ModeNone, StatusOffline},
		{false, ModeMobile, StatusOffline},
		{false, ModeStatic, StatusOffline},
		{true, ModeMobile, StatusLiveMobile},
		{true, ModeStatic, StatusLiveStatic},
	}
	for _, tt := range tests {
		got := StatusFor(tt.broadcasting, tt.mode)
		if got != tt.want {
			t.Errorf("StatusFor(%v, %q) = %s, want %s", tt.broadcasting, tt.mode, got, tt.want)
		}
		if got.IsLive() != tt.broadcasting {
			t.Errorf("%s.IsLive() = %v", got, got.IsLive())
		}
		if tt.broadcasting && ModeOf(got) != tt.mode {
			t.Errorf("ModeOf(%s) = %q", got, ModeOf(got))
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Static "); err != nil || m != ModeStatic {
		t.Fatalf("got %q, %v", m, err)
	}
	if _, err := ParseMode("flying"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	u := &User{ID: "u1"}
	if !u.ToggleFavorite("1") || !u.HasFavorite("1") {
		t.Fatal("expected truck 1 to be favorited")
	}
	c := u.Clone()
	if u.ToggleFavorite("1") || u.HasFavorite("1") {
		t.Fatal("expected truck 1 to be removed")
	}
	if !c.HasFavorite("1") {
		t.Fatal("clone shares favorites with original")
	}
}

func TestMeanRating(t *testing.T) {
	mean, n := MeanRating([]*Review{{Rating: 5}, {Rating: 4}, {Rating: 3}})
	if mean != 4 || n != 3 {
		t.Fatalf("got %v/%d", mean, n)
	}
	if mean, n = MeanRating(nil); mean != 0 || n != 0 {
		t.Fatalf("got %v/%d", mean, n)
	}
}
