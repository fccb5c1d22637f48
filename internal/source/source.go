// Package source defines the log-source collaborator consumed by the
// query core, plus the PowerShell-backed implementation.
package source

import (
	"context"

	"github.com/aalejandroaraujo/winlog-mcp/internal/guard"
	"github.com/aalejandroaraujo/winlog-mcp/internal/model"
)

// Category is the generic failure class a SourceError exposes.
type Category string

const (
	CategoryUnavailable Category = "unavailable"
	CategoryTimeout     Category = "timeout"
	CategoryDecode      Category = "decode"
)

// SourceError is an opaque collaborator failure. Error() reveals the
// category only; the wrapped cause stays available via Unwrap for
// process-local logging and is never shown to callers.
type SourceError struct {
	Category Category
	cause    error
}

func NewSourceError(cat Category, cause error) *SourceError {
	return &SourceError{Category: cat, cause: cause}
}

func (e *SourceError) Error() string {
	return "log source error: " + string(e.Category)
}

func (e *SourceError) Unwrap() error { return e.cause }

// LogSource fetches event records on behalf of the core. Calls are
// bounded by the deadline on ctx; the core never retries.
type LogSource interface {
	QueryEvents(ctx context.Context, channel, filter string, window guard.QueryWindow, max int) ([]model.EventRecord, error)
	ChannelInfo(ctx context.Context, channel string) (model.ChannelInfo, error)
	Channels() []string
}
