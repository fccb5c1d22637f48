// Package classify matches normalized event records against a fixed
// table of incident patterns and derives a severity for each match.
package classify

import (
	"regexp"
	"strings"

	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
)

var (
	reFaultingApp    = regexp.MustCompile(`(?i)faulting application name:\s*([^,\r\n]+)`)
	reFaultingModule = regexp.MustCompile(`(?i)faulting module name:\s*([^,\r\n]+)`)
)

// Classify tests a record against the pattern table in declaration
// order and returns a signal for the first match, or nil when no
// pattern matches. A record is never classified as more than one
// incident.
func Classify(rec model.EventRecord) *model.IncidentSignal {
	for _, p := range patternTable {
		if !matches(p, rec) {
			continue
		}
		app, mod := ExtractFaulting(rec.Message)
		return &model.IncidentSignal{
			Record:         rec,
			Pattern:        p.Name,
			Severity:       severityFor(p.Name),
			FaultingApp:    app,
			FaultingModule: mod,
		}
	}
	return nil
}

func matches(p Pattern, rec model.EventRecord) bool {
	provider := strings.ToLower(rec.Provider)
	for _, sub := range p.Providers {
		if strings.Contains(provider, strings.ToLower(sub)) {
			return true
		}
	}
	for _, id := range p.EventIDs {
		if rec.EventID == id {
			return true
		}
	}
	return false
}

// ExtractFaulting pulls the faulting application and module names out
// of crash message text. Either capture may be empty; a message
// without the phrases is not an error.
func ExtractFaulting(message string) (app, module string) {
	if m := reFaultingApp.FindStringSubmatch(message); m != nil {
		app = strings.TrimSpace(m[1])
	}
	if m := reFaultingModule.FindStringSubmatch(message); m != nil {
		module = strings.TrimSpace(m[1])
	}
	return app, module
}
