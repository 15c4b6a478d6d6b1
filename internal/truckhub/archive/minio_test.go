package archive

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

func endedSession() *model.Session {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	return &model.Session{
		ID:        "s-1",
		OwnerID:   "driver1",
		TruckID:   "1",
		Mode:      model.ModeMobile,
		StartedAt: start,
		EndedAt:   &end,
		EndReason: model.EndReasonStopped,
	}
}

func TestObjectKey(t *testing.T) {
	if got := ObjectKey(endedSession()); got != "sessions/driver1/s-1.json" {
		t.Fatalf("ObjectKey() = %q", got)
	}
}

func TestEncode(t *testing.T) {
	key, body, err := encode(endedSession())
	if err != nil {
		t.Fatal(err)
	}
	if key != "sessions/driver1/s-1.json" {
		t.Errorf("key = %q", key)
	}

	var got model.Session
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.TruckID != "1" || got.EndReason != model.EndReasonStopped || got.EndedAt == nil {
		t.Errorf("decoded %+v", got)
	}
}

func TestEncodeRejects(t *testing.T) {
	active := endedSession()
	active.EndedAt = nil

	tests := []struct {
		name string
		s    *model.Session
	}{
		{"nil", nil},
		{"no id", &model.Session{OwnerID: "driver1"}},
		{"active", active},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := encode(tt.s); !errors.Is(err, model.ErrInvalidArgument) {
				t.Fatalf("encode() error = %v", err)
			}
		})
	}
}

func TestNewMinIOArchive(t *testing.T) {
	opts := options.NewS3Options()
	opts.InsecureSkipVerify = true
	a, err := NewMinIOArchive(opts)
	if err != nil {
		t.Fatal(err)
	}
	if a.bucketName != opts.BucketName {
		t.Errorf("bucket = %q", a.bucketName)
	}
}
