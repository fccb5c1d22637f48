package guard

import (
	"time"

	"github.com/aalejandroaraujo/winlog-mcp/internal/config"
)

// QueryWindow is a clamped, syntax-checked set of query bounds. Start
// and End are nil when the caller supplied none. No ordering between
// Start and End is enforced here; the log source is the arbiter of an
// inverted window.
type QueryWindow struct {
	Start *time.Time
	End   *time.Time
	Cap   int
}

// timestampFormats are the recognized input forms, tried in order.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ClampCap bounds a requested result cap into [1, limits.MaxResults].
// A nil request takes the configured maximum as its default.
func ClampCap(requested *int, limits config.Limits) int {
	n := limits.MaxResults
	if requested != nil {
		n = *requested
	}
	if n > limits.MaxResults {
		n = limits.MaxResults
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ClampLookbackHours bounds an hours-back-from-now request into
// [1, limits.MaxLookbackHrs]. The caller converts the result into an
// instant with an explicit "now"; this function never reads a clock.
func ClampLookbackHours(requested int, limits config.Limits) int {
	n := requested
	if n > limits.MaxLookbackHrs {
		n = limits.MaxLookbackHrs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ClampQueryOptions resolves the optional cap/start/end inputs into a
// QueryWindow. Each timestamp must parse under one of the recognized
// formats or the whole call fails with InvalidTimestampError.
func ClampQueryOptions(cap *int, start, end string, limits config.Limits) (QueryWindow, error) {
	w := QueryWindow{Cap: ClampCap(cap, limits)}

	if start != "" {
		t, err := parseTimestamp(start)
		if err != nil {
			return QueryWindow{}, &InvalidTimestampError{Field: "start", Input: start}
		}
		w.Start = &t
	}
	if end != "" {
		t, err := parseTimestamp(end)
		if err != nil {
			return QueryWindow{}, &InvalidTimestampError{Field: "end", Input: end}
		}
		w.End = &t
	}
	return w, nil
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
