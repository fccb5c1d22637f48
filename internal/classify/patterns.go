package classify

import "github.com/aalejandroaraujo/winlog-mcp/internal/model"

// Pattern is one named incident rule. A record matches when its
// provider name contains any of Providers (case-insensitive) or its
// event code equals any of EventIDs.
type Pattern struct {
	Name      string
	Providers []string
	EventIDs  []int
}

// patternTable is ordered: when a record could match more than one
// pattern, the first entry wins. A map would lose that tie-break.
var patternTable = []Pattern{
	{Name: "kernel-power", Providers: []string{"Microsoft-Windows-Kernel-Power"}, EventIDs: []int{41, 6008}},
	{Name: "hardware-error", Providers: []string{"Microsoft-Windows-WHEA-Logger"}, EventIDs: []int{17, 18, 19, 20, 46, 47}},
	{Name: "disk-error", Providers: []string{"disk", "Ntfs", "volmgr"}, EventIDs: []int{7, 11, 51, 55, 98, 140}},
	{Name: "bugcheck", Providers: []string{"Microsoft-Windows-WER-SystemErrorReporting"}, EventIDs: []int{1001}},
	{Name: "app-crash", Providers: []string{"Application Error"}, EventIDs: []int{1000}},
	{Name: "runtime-error", Providers: []string{".NET Runtime"}, EventIDs: []int{1026}},
	{Name: "service-failure", Providers: []string{"Service Control Manager"}, EventIDs: []int{7000, 7001, 7009, 7023, 7031, 7034}},
	{Name: "app-hang", Providers: []string{"Application Hang"}, EventIDs: []int{1002}},
}

// Patterns returns the table in declaration order. The slice is a
// copy; the table itself is never mutated.
func Patterns() []Pattern {
	out := make([]Pattern, len(patternTable))
	copy(out, patternTable)
	return out
}

// AllEventIDs returns every event code across the table, deduplicated,
// in declaration order. The incident scan folds these into one filter.
func AllEventIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, p := range patternTable {
		for _, id := range p.EventIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// severityFor maps a pattern name to its derived severity. Total over
// the table; an unknown name falls back to Medium so a new pattern
// defaults to the weakest alert.
func severityFor(name string) model.Severity {
	switch name {
	case "kernel-power", "hardware-error", "disk-error", "bugcheck":
		return model.SevCritical
	case "app-crash", "runtime-error", "service-failure":
		return model.SevHigh
	default:
		return model.SevMedium
	}
}
