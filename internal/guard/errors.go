package guard

import (
	"fmt"
	"strings"
)

// Fixed machine codes surfaced to callers. The messages around them
// stay generic; diagnostic detail lives on the error values only.
const (
	CodeChannelRejected  = "channel_rejected"
	CodeFilterRejected   = "filter_rejected"
	CodeFilterTooComplex = "filter_too_complex"
	CodeInvalidTimestamp = "invalid_timestamp"
)

// ChannelRejectedError reports a channel outside the allowlist. Input
// and Allowed are diagnostic only and must never be used to pick a
// corrected channel.
type ChannelRejectedError struct {
	Input   string
	Allowed []string
}

func (e *ChannelRejectedError) Error() string {
	return fmt.Sprintf("channel %q not in allowlist [%s]", e.Input, strings.Join(e.Allowed, ", "))
}

// Code returns the fixed machine code for this error class.
func (e *ChannelRejectedError) Code() string { return CodeChannelRejected }

// FilterRejectedError reports a filter containing blocked constructs
// or disallowed characters. Reasons lists every violated rule.
type FilterRejectedError struct {
	Reasons []string
}

func (e *FilterRejectedError) Error() string {
	return "filter rejected: " + strings.Join(e.Reasons, "; ")
}

func (e *FilterRejectedError) Code() string { return CodeFilterRejected }

// FilterTooComplexError reports a filter exceeding a complexity limit
// (length, nesting depth, or predicate count).
type FilterTooComplexError struct {
	Reason string
}

func (e *FilterTooComplexError) Error() string {
	return "filter too complex: " + e.Reason
}

func (e *FilterTooComplexError) Code() string { return CodeFilterTooComplex }

// InvalidTimestampError reports a start/end instant that failed strict
// parsing.
type InvalidTimestampError struct {
	Field string
	Input string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid %s timestamp %q", e.Field, e.Input)
}

func (e *InvalidTimestampError) Code() string { return CodeInvalidTimestamp }

// Coded is implemented by every validation error in this package.
type Coded interface {
	error
	Code() string
}
