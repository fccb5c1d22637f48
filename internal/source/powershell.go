package source

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/aalejandroaraujo/winlog-mcp/internal/guard"
	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
)

// PowerShellSource fetches records by spawning Get-WinEvent and
// parsing its ConvertTo-Json output. The channel and filter it is
// handed are assumed already validated by the guard package.
type PowerShellSource struct {
	shell   string
	parsers fastjson.ParserPool
}

func NewPowerShellSource() *PowerShellSource {
	return &PowerShellSource{shell: "powershell.exe"}
}

// QueryEvents runs one bounded query against a channel. The command
// inherits the deadline on ctx; on expiry the process is killed and a
// timeout-category error is returned.
func (s *PowerShellSource) QueryEvents(ctx context.Context, channel, filter string, window guard.QueryWindow, max int) ([]model.EventRecord, error) {
	script := buildQueryScript(channel, filter, window, max)

	out, err := s.run(ctx, script)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, nil
	}

	records, err := s.parseEvents(out)
	if err != nil {
		return nil, NewSourceError(CategoryDecode, err)
	}

	// A caller-supplied XPath cannot be merged with time predicates,
	// so the window is applied here after the fetch in that case.
	if filter != "" && (window.Start != nil || window.End != nil) {
		records = clipWindow(records, window)
	}
	return records, nil
}

// ChannelInfo queries channel metadata. Callers treat a failure as a
// disabled zero-record placeholder.
func (s *PowerShellSource) ChannelInfo(ctx context.Context, channel string) (model.ChannelInfo, error) {
	script := fmt.Sprintf(
		"Get-WinEvent -ListLog %s -ErrorAction Stop | Select-Object LogName, IsEnabled, RecordCount | ConvertTo-Json",
		psQuote(channel),
	)
	out, err := s.run(ctx, script)
	if err != nil {
		return model.ChannelInfo{}, err
	}
	if len(out) == 0 {
		return model.ChannelInfo{}, NewSourceError(CategoryUnavailable, errors.New("empty metadata response"))
	}

	p := s.parsers.Get()
	defer s.parsers.Put(p)
	v, err := p.ParseBytes(out)
	if err != nil {
		return model.ChannelInfo{}, NewSourceError(CategoryDecode, err)
	}
	return model.ChannelInfo{
		Name:        string(v.GetStringBytes("LogName")),
		Enabled:     v.GetBool("IsEnabled"),
		RecordCount: v.GetUint64("RecordCount"),
	}, nil
}

// Channels returns the fixed allowed channel names.
func (s *PowerShellSource) Channels() []string {
	return guard.AllowedChannels()
}

func (s *PowerShellSource) run(ctx context.Context, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.shell, "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewSourceError(CategoryTimeout, err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && noEventsFound(exitErr.Stderr) {
			return nil, nil
		}
		return nil, NewSourceError(CategoryUnavailable, err)
	}
	return out, nil
}

// noEventsFound recognizes the Get-WinEvent failure that just means an
// empty result set.
func noEventsFound(stderr []byte) bool {
	s := string(stderr)
	return strings.Contains(s, "NoMatchingEventsFound") ||
		strings.Contains(s, "No events were found")
}

func buildQueryScript(channel, filter string, window guard.QueryWindow, max int) string {
	var b strings.Builder
	b.WriteString("Get-WinEvent -LogName ")
	b.WriteString(psQuote(channel))
	b.WriteString(" -MaxEvents ")
	b.WriteString(strconv.Itoa(max))

	switch {
	case filter != "":
		b.WriteString(" -FilterXPath ")
		b.WriteString(psQuote(filter))
	case window.Start != nil || window.End != nil:
		b.WriteString(" -FilterXPath ")
		b.WriteString(psQuote(timeBoundXPath(window)))
	}

	b.WriteString(" -ErrorAction Stop | Select-Object RecordId, Id, Level, LevelDisplayName, TimeCreated, ProviderName, Message, MachineName, LogName, TaskDisplayName, OpcodeDisplayName, KeywordsDisplayNames, UserId | ConvertTo-Json -Depth 3")
	return b.String()
}

// timeBoundXPath renders a window with no user filter as a pure time
// predicate.
func timeBoundXPath(window guard.QueryWindow) string {
	var conds []string
	if window.Start != nil {
		conds = append(conds, fmt.Sprintf("@SystemTime>='%s'", systemTime(*window.Start)))
	}
	if window.End != nil {
		conds = append(conds, fmt.Sprintf("@SystemTime<='%s'", systemTime(*window.End)))
	}
	return fmt.Sprintf("*[System[TimeCreated[%s]]]", strings.Join(conds, " and "))
}

// psQuote renders s as a PowerShell single-quoted literal, the only
// quoting form with no interpolation.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func systemTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func clipWindow(records []model.EventRecord, window guard.QueryWindow) []model.EventRecord {
	out := records[:0]
	for _, r := range records {
		if window.Start != nil && r.TimeCreated.Before(*window.Start) {
			continue
		}
		if window.End != nil && r.TimeCreated.After(*window.End) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// parseEvents decodes ConvertTo-Json output, which is an object for a
// single event and an array otherwise.
func (s *PowerShellSource) parseEvents(data []byte) ([]model.EventRecord, error) {
	p := s.parsers.Get()
	defer s.parsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	var records []model.EventRecord
	appendRecord := func(val *fastjson.Value) {
		rec := model.EventRecord{
			RecordID: val.GetUint64("RecordId"),
			EventID:  val.GetInt("Id"),
			Level:    parseLevel(val),
			Provider: string(val.GetStringBytes("ProviderName")),
			Message:  string(val.GetStringBytes("Message")),
			Computer: string(val.GetStringBytes("MachineName")),
			Channel:  string(val.GetStringBytes("LogName")),
			Task:     string(val.GetStringBytes("TaskDisplayName")),
			Opcode:   string(val.GetStringBytes("OpcodeDisplayName")),
			UserID:   string(val.GetStringBytes("UserId")),
		}
		if kw := val.GetArray("KeywordsDisplayNames"); kw != nil {
			parts := make([]string, 0, len(kw))
			for _, k := range kw {
				parts = append(parts, string(k.GetStringBytes()))
			}
			rec.Keywords = strings.Join(parts, ",")
		}
		if ts, ok := parseSourceTime(string(val.GetStringBytes("TimeCreated"))); ok {
			rec.TimeCreated = ts
		}
		records = append(records, rec)
	}

	if v.Type() == fastjson.TypeArray {
		arr, _ := v.Array()
		for _, val := range arr {
			appendRecord(val)
		}
	} else {
		appendRecord(v)
	}
	return records, nil
}

func parseLevel(val *fastjson.Value) model.Level {
	switch string(val.GetStringBytes("LevelDisplayName")) {
	case "Critical":
		return model.LevelCritical
	case "Error":
		return model.LevelError
	case "Warning":
		return model.LevelWarning
	case "Information":
		return model.LevelInformation
	case "Verbose":
		return model.LevelVerbose
	}
	if n := val.GetInt("Level"); n >= 1 && n <= 5 {
		return model.Level(n)
	}
	return model.LevelInformation
}

// parseSourceTime accepts both serializations ConvertTo-Json emits for
// DateTime: the Windows PowerShell "/Date(ms)/" form and ISO 8601.
func parseSourceTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasPrefix(s, "/Date(") && strings.HasSuffix(s, ")/") {
		ms, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(s, "/Date("), ")/"), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
