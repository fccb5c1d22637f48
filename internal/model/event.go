package model

import "time"

// Level is the 5-value severity carried by a raw event record.
type Level uint8

const (
	LevelCritical Level = iota + 1
	LevelError
	LevelWarning
	LevelInformation
	LevelVerbose
)

// String returns the display name Windows uses for the level.
func (l Level) String() string {
	switch l {
	case LevelCritical:
		return "Critical"
	case LevelError:
		return "Error"
	case LevelWarning:
		return "Warning"
	case LevelInformation:
		return "Information"
	case LevelVerbose:
		return "Verbose"
	default:
		return "Unknown"
	}
}

// EventRecord is the normalized view of a single event log entry.
// RecordID is channel-scoped and monotonically non-decreasing; the
// source never reuses IDs.
type EventRecord struct {
	RecordID    uint64    `json:"record_id"`
	EventID     int       `json:"event_id"`
	Level       Level     `json:"level"`
	TimeCreated time.Time `json:"time_created"`
	Provider    string    `json:"provider"`
	Message     string    `json:"message"`
	Computer    string    `json:"computer"`
	Channel     string    `json:"channel"`
	Task        string    `json:"task,omitempty"`
	Opcode      string    `json:"opcode,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
}

// ChannelInfo is a best-effort summary of a log channel. Inaccessible
// channels are reported as a disabled zero-record placeholder rather
// than omitted.
type ChannelInfo struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	RecordCount uint64 `json:"record_count"`
}

// Severity is the three-level ranking derived from a matched incident
// pattern. It is distinct from Level, which the source assigns.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
)

// IncidentSignal is an event record classified as a known failure type.
type IncidentSignal struct {
	Record         EventRecord `json:"record"`
	Pattern        string      `json:"pattern"`
	Severity       Severity    `json:"severity"`
	FaultingApp    string      `json:"faulting_app,omitempty"`
	FaultingModule string      `json:"faulting_module,omitempty"`
}
