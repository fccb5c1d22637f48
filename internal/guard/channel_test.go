package guard

import (
	"errors"
	"testing"
)

func TestValidateChannelAccepts(t *testing.T) {
	for _, name := range []string{"Application", "System"} {
		t.Run(name, func(t *testing.T) {
			ch, err := ValidateChannel(name)
			if err != nil {
				t.Fatalf("expected %q to be allowed: %v", name, err)
			}
			if ch != name {
				t.Errorf("got %q, want %q", ch, name)
			}
		})
	}
}

func TestValidateChannelRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lowercase", "application"},
		{"uppercase", "SYSTEM"},
		{"leading space", " Application"},
		{"trailing space", "System "},
		{"tab", "System\t"},
		{"null byte", "Application\x00"},
		{"path prefix", "../Application"},
		{"path suffix", "System/../Security"},
		{"greek alpha homoglyph", "Αpplication"},
		{"fullwidth S", "Ｓystem"},
		{"empty", ""},
		{"other channel", "Security"},
		{"embedded", "xApplicationx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateChannel(tt.input)
			if err == nil {
				t.Fatalf("expected rejection for %q", tt.input)
			}
			var rej *ChannelRejectedError
			if !errors.As(err, &rej) {
				t.Fatalf("expected ChannelRejectedError, got %T", err)
			}
			if rej.Input != tt.input {
				t.Errorf("error carries input %q, want %q", rej.Input, tt.input)
			}
			if len(rej.Allowed) != 2 {
				t.Errorf("error carries allowlist %v", rej.Allowed)
			}
			if rej.Code() != CodeChannelRejected {
				t.Errorf("code = %q", rej.Code())
			}
		})
	}
}

func TestIsAllowedChannel(t *testing.T) {
	if !IsAllowedChannel("System") {
		t.Error("System should be allowed")
	}
	if IsAllowedChannel("system") {
		t.Error("case variants must not be allowed")
	}
}

func TestAllowedChannelsDefensiveCopy(t *testing.T) {
	list := AllowedChannels()
	if len(list) != 2 || list[0] != "Application" || list[1] != "System" {
		t.Fatalf("unexpected allowlist: %v", list)
	}
	list[0] = "Security"
	if !IsAllowedChannel("Application") {
		t.Error("mutating the returned slice must not affect validation")
	}
	if IsAllowedChannel("Security") {
		t.Error("mutating the returned slice must not extend the allowlist")
	}
}
