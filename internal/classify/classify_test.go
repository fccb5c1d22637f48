package classify

import (
	"testing"
	"time"

	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
)

func record(provider string, eventID int) model.EventRecord {
	return model.EventRecord{
		RecordID:    1,
		EventID:     eventID,
		Level:       model.LevelError,
		TimeCreated: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Provider:    provider,
		Channel:     "Application",
	}
}

func TestClassifyKnownPatterns(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		eventID  int
		pattern  string
		severity model.Severity
	}{
		{"app crash by provider and code", "Application Error", 1000, "app-crash", model.SevHigh},
		{"whea by code", "Microsoft-Windows-WHEA-Logger", 17, "hardware-error", model.SevCritical},
		{"kernel power 41", "Microsoft-Windows-Kernel-Power", 41, "kernel-power", model.SevCritical},
		{"unexpected shutdown", "EventLog", 6008, "kernel-power", model.SevCritical},
		{"app hang", "Application Hang", 1002, "app-hang", model.SevMedium},
		{"service failure by code only", "SomeService", 7031, "service-failure", model.SevHigh},
		{"dotnet runtime", ".NET Runtime", 1026, "runtime-error", model.SevHigh},
		{"bugcheck", "Microsoft-Windows-WER-SystemErrorReporting", 1001, "bugcheck", model.SevCritical},
		{"disk by provider substring", "disk", 153, "disk-error", model.SevCritical},
		{"provider match is case-insensitive", "APPLICATION ERROR", 9999, "app-crash", model.SevHigh},
		{"provider substring match", "My Application Error Source", 9999, "app-crash", model.SevHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Classify(record(tt.provider, tt.eventID))
			if sig == nil {
				t.Fatal("expected a signal")
			}
			if sig.Pattern != tt.pattern {
				t.Errorf("pattern = %q, want %q", sig.Pattern, tt.pattern)
			}
			if sig.Severity != tt.severity {
				t.Errorf("severity = %q, want %q", sig.Severity, tt.severity)
			}
		})
	}
}

func TestClassifyNoMatch(t *testing.T) {
	if sig := Classify(record("Windows Installer", 302)); sig != nil {
		t.Errorf("expected no signal, got %q", sig.Pattern)
	}
	if sig := Classify(record("MsiInstaller", 11707)); sig != nil {
		t.Errorf("expected no signal, got %q", sig.Pattern)
	}
}

// A record matching two patterns classifies as the first in
// declaration order only.
func TestClassifyDeclarationOrderTieBreak(t *testing.T) {
	// Provider matches kernel-power (table entry 1); event code 1000
	// matches app-crash (entry 5).
	sig := Classify(record("Microsoft-Windows-Kernel-Power", 1000))
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Pattern != "kernel-power" {
		t.Errorf("pattern = %q, want kernel-power (first in declaration order)", sig.Pattern)
	}

	// Provider matches app-crash (entry 5); code 7031 matches
	// service-failure (entry 7).
	sig = Classify(record("Application Error", 7031))
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Pattern != "app-crash" {
		t.Errorf("pattern = %q, want app-crash", sig.Pattern)
	}
}

func TestClassifyNeverMultiple(t *testing.T) {
	// One record, many calls: classification is deterministic.
	rec := record("Microsoft-Windows-WHEA-Logger", 1000)
	first := Classify(rec)
	for i := 0; i < 5; i++ {
		if got := Classify(rec); got.Pattern != first.Pattern {
			t.Fatalf("classification not deterministic: %q vs %q", got.Pattern, first.Pattern)
		}
	}
}

func TestExtractFaulting(t *testing.T) {
	tests := []struct {
		name    string
		message string
		app     string
		module  string
	}{
		{
			"full crash message",
			"Faulting application name: notepad.exe, version: 10.0.19041.1, time stamp: 0x5f3a\nFaulting module name: ntdll.dll, version: 10.0.19041.1288",
			"notepad.exe",
			"ntdll.dll",
		},
		{
			"case-insensitive",
			"FAULTING APPLICATION NAME: svc.exe, version: 1.0",
			"svc.exe",
			"",
		},
		{
			"app only",
			"Faulting application name: w3wp.exe, version: 8.5",
			"w3wp.exe",
			"",
		},
		{"no phrases", "The system has rebooted without cleanly shutting down first.", "", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, mod := ExtractFaulting(tt.message)
			if app != tt.app {
				t.Errorf("app = %q, want %q", app, tt.app)
			}
			if mod != tt.module {
				t.Errorf("module = %q, want %q", mod, tt.module)
			}
		})
	}
}

func TestClassifyAttachesExtraction(t *testing.T) {
	rec := record("Application Error", 1000)
	rec.Message = "Faulting application name: chrome.exe, version: 120.0\nFaulting module name: libcef.dll, version: 120.0"
	sig := Classify(rec)
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.FaultingApp != "chrome.exe" || sig.FaultingModule != "libcef.dll" {
		t.Errorf("extraction = %q / %q", sig.FaultingApp, sig.FaultingModule)
	}
}

func TestSeverityTotalOverTable(t *testing.T) {
	for _, p := range Patterns() {
		sev := severityFor(p.Name)
		switch sev {
		case model.SevCritical, model.SevHigh, model.SevMedium:
		default:
			t.Errorf("pattern %q has invalid severity %q", p.Name, sev)
		}
	}
}

func TestAllEventIDsDeduplicated(t *testing.T) {
	ids := AllEventIDs()
	seen := make(map[int]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate event id %d", id)
		}
		seen[id] = true
	}
	for _, want := range []int{41, 17, 1000, 1002, 7031} {
		if !seen[want] {
			t.Errorf("missing event id %d", want)
		}
	}
}
