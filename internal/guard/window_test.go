package guard

import (
	"errors"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestClampCap(t *testing.T) {
	limits := testLimits()
	tests := []struct {
		name      string
		requested *int
		want      int
	}{
		{"zero clamps to one", intPtr(0), 1},
		{"negative clamps to one", intPtr(-5), 1},
		{"huge clamps to max", intPtr(999999), 1000},
		{"missing takes default", nil, 1000},
		{"in range passes through", intPtr(50), 50},
		{"exactly max", intPtr(1000), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampCap(tt.requested, limits); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampLookbackHours(t *testing.T) {
	limits := testLimits()
	tests := []struct {
		requested int
		want      int
	}{
		{0, 1},
		{-3, 1},
		{24, 24},
		{168, 168},
		{169, 168},
		{100000, 168},
	}
	for _, tt := range tests {
		if got := ClampLookbackHours(tt.requested, limits); got != tt.want {
			t.Errorf("ClampLookbackHours(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestClampQueryOptionsTimestamps(t *testing.T) {
	limits := testLimits()

	valid := []string{
		"2025-01-15T10:30:00Z",
		"2025-01-15T10:30:00.123456789Z",
		"2025-01-15T10:30:00+02:00",
		"2025-01-15T10:30:00",
	}
	for _, ts := range valid {
		t.Run("valid/"+ts, func(t *testing.T) {
			w, err := ClampQueryOptions(nil, ts, "", limits)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Start == nil {
				t.Error("start not set")
			}
		})
	}

	invalid := []string{
		"2025-01-15",
		"15/01/2025 10:30",
		"yesterday",
		"1736935800",
		"2025-13-40T99:99:99Z",
	}
	for _, ts := range invalid {
		t.Run("invalid/"+ts, func(t *testing.T) {
			_, err := ClampQueryOptions(nil, ts, "", limits)
			var bad *InvalidTimestampError
			if !errors.As(err, &bad) {
				t.Fatalf("expected InvalidTimestampError, got %v", err)
			}
			if bad.Field != "start" {
				t.Errorf("field = %q", bad.Field)
			}
		})
	}
}

func TestClampQueryOptionsEndField(t *testing.T) {
	_, err := ClampQueryOptions(nil, "", "garbage", testLimits())
	var bad *InvalidTimestampError
	if !errors.As(err, &bad) {
		t.Fatalf("expected InvalidTimestampError, got %v", err)
	}
	if bad.Field != "end" {
		t.Errorf("field = %q", bad.Field)
	}
}

// An end before start is deliberately not rejected; ordering is left
// to the log source.
func TestClampQueryOptionsInvertedWindowAccepted(t *testing.T) {
	w, err := ClampQueryOptions(nil, "2025-01-02T00:00:00Z", "2025-01-01T00:00:00Z", testLimits())
	if err != nil {
		t.Fatalf("inverted window must be accepted: %v", err)
	}
	if w.Start == nil || w.End == nil {
		t.Fatal("both bounds must be set")
	}
	if !w.End.Before(*w.Start) {
		t.Error("fixture should be inverted")
	}
}

func TestClampQueryOptionsEmpty(t *testing.T) {
	w, err := ClampQueryOptions(nil, "", "", testLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Start != nil || w.End != nil {
		t.Error("absent bounds must stay nil")
	}
	if w.Cap != 1000 {
		t.Errorf("cap = %d", w.Cap)
	}
}
