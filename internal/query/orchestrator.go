// Package query composes the guard validators, the incident
// classifier, and the log-source collaborator into the two operations
// exposed to callers: prepare-and-run a single query, and scan
// channels for incident signals.
package query

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aalejandroaraujo/winlog-mcp/internal/classify"
	"github.com/aalejandroaraujo/winlog-mcp/internal/config"
	"github.com/aalejandroaraujo/winlog-mcp/internal/guard"
	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
	"github.com/aalejandroaraujo/winlog-mcp/internal/source"
)

// scanBatchSize caps each per-channel scan query. Independent of the
// caller-facing result cap.
const scanBatchSize = 500

// AuditRecorder receives one entry per validated or executed
// operation. A nil recorder disables auditing.
type AuditRecorder interface {
	Record(action, channel, filter, outcome string)
}

// PreparedQuery is a fully validated, clamped query ready for the log
// source.
type PreparedQuery struct {
	Channel string
	Filter  string
	Window  guard.QueryWindow
}

type Orchestrator struct {
	limits config.Limits
	src    source.LogSource
	audit  AuditRecorder
}

func NewOrchestrator(limits config.Limits, src source.LogSource, audit AuditRecorder) *Orchestrator {
	return &Orchestrator{limits: limits, src: src, audit: audit}
}

// Prepare validates the channel and filter and clamps the query
// options. It fails fast on the first validator that rejects.
func (o *Orchestrator) Prepare(channel, filter string, cap *int, start, end string) (PreparedQuery, error) {
	ch, err := guard.ValidateChannel(channel)
	if err != nil {
		o.record("prepare", channel, filter, "rejected: channel")
		return PreparedQuery{}, err
	}
	f, err := guard.ValidateFilter(filter, o.limits)
	if err != nil {
		o.record("prepare", channel, filter, "rejected: filter")
		return PreparedQuery{}, err
	}
	w, err := guard.ClampQueryOptions(cap, start, end, o.limits)
	if err != nil {
		o.record("prepare", channel, filter, "rejected: timestamp")
		return PreparedQuery{}, err
	}
	o.record("prepare", ch, f, "ok")
	return PreparedQuery{Channel: ch, Filter: f, Window: w}, nil
}

// Execute runs a prepared query against the log source, bounded by the
// configured timeout. Results come back newest first.
func (o *Orchestrator) Execute(ctx context.Context, pq PreparedQuery) ([]model.EventRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, o.limits.QueryTimeout)
	defer cancel()

	records, err := o.src.QueryEvents(ctx, pq.Channel, pq.Filter, pq.Window, pq.Window.Cap)
	if err != nil {
		o.record("query", pq.Channel, pq.Filter, "source error")
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TimeCreated.After(records[j].TimeCreated)
	})
	o.record("query", pq.Channel, pq.Filter, fmt.Sprintf("ok: %d records", len(records)))
	return records, nil
}

// Query validates, clamps, and executes in one call.
func (o *Orchestrator) Query(ctx context.Context, channel, filter string, cap *int, start, end string) ([]model.EventRecord, error) {
	pq, err := o.Prepare(channel, filter, cap, start, end)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, pq)
}

// ScanForIncidents queries each channel for every event code the
// pattern table knows, classifies the hits, and returns the signals
// newest first. A channel whose query fails contributes no signals but
// never aborts the scan; ties on timestamp keep channel order, then
// per-channel source order. now is explicit so the lookback cutoff is
// deterministic.
func (o *Orchestrator) ScanForIncidents(ctx context.Context, channels []string, hoursBack int, now time.Time) ([]model.IncidentSignal, error) {
	validated := make([]string, 0, len(channels))
	for _, ch := range channels {
		c, err := guard.ValidateChannel(ch)
		if err != nil {
			return nil, err
		}
		validated = append(validated, c)
	}

	hours := guard.ClampLookbackHours(hoursBack, o.limits)
	cutoff := now.Add(-time.Duration(hours) * time.Hour)
	filter := scanFilter(classify.AllEventIDs(), cutoff)

	perChannel := make([][]model.IncidentSignal, len(validated))
	var wg sync.WaitGroup
	for i, ch := range validated {
		wg.Add(1)
		go func(slot int, channel string) {
			defer wg.Done()

			qctx, cancel := context.WithTimeout(ctx, o.limits.QueryTimeout)
			defer cancel()

			records, err := o.src.QueryEvents(qctx, channel, filter, guard.QueryWindow{Cap: scanBatchSize}, scanBatchSize)
			if err != nil {
				log.Printf("[scan] channel %s skipped: %v", channel, err)
				o.record("scan", channel, filter, "source error")
				return
			}

			var signals []model.IncidentSignal
			for _, rec := range records {
				if sig := classify.Classify(rec); sig != nil {
					signals = append(signals, *sig)
				}
			}
			perChannel[slot] = signals
		}(i, ch)
	}
	wg.Wait()

	var all []model.IncidentSignal
	for _, signals := range perChannel {
		all = append(all, signals...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Record.TimeCreated.After(all[j].Record.TimeCreated)
	})
	o.record("scan", strings.Join(validated, ","), filter, fmt.Sprintf("ok: %d signals", len(all)))
	return all, nil
}

// scanFilter folds every pattern event code plus the lookback cutoff
// into one XPath expression.
func scanFilter(eventIDs []int, cutoff time.Time) string {
	conds := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		conds[i] = fmt.Sprintf("EventID=%d", id)
	}
	return fmt.Sprintf(
		"*[System[(%s) and TimeCreated[@SystemTime>='%s']]]",
		strings.Join(conds, " or "),
		cutoff.UTC().Format("2006-01-02T15:04:05.000Z"),
	)
}

func (o *Orchestrator) record(action, channel, filter, outcome string) {
	if o.audit != nil {
		o.audit.Record(action, channel, filter, outcome)
	}
}
