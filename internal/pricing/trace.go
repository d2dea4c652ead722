package pricing

import (
	"fmt"
	"time"

	"github.com/seovimalraj/cnc-quote-sub009/internal/canonical"
)

// NewTraceEntry builds one audit record for a factor invocation. The input is
// canonically hashed so the exact inputs can be correlated later without
// storing them verbatim.
func NewTraceEntry(factor string, input any, output map[string]any, note string) (TraceEntry, error) {
	inputHash, err := canonical.HashInput(input)
	if err != nil {
		return TraceEntry{}, fmt.Errorf("failed to hash trace input for factor %s: %w", factor, err)
	}

	return TraceEntry{
		At:        time.Now().UTC(),
		Factor:    factor,
		InputHash: inputHash,
		Output:    output,
		Note:      note,
	}, nil
}

// ValidateTrace checks that an accumulated trace is structurally sound before
// it is trusted as an audit record: non-empty, every entry carries a factor
// code, a timestamp, and an input hash, and timestamps never go backwards.
// A violation indicates an orchestrator defect, not bad input.
func ValidateTrace(trace []TraceEntry) error {
	if len(trace) == 0 {
		return fmt.Errorf("%w: trace is empty", ErrInvalidTrace)
	}

	var prev time.Time
	for i, entry := range trace {
		if entry.Factor == "" {
			return fmt.Errorf("%w: entry %d has no factor code", ErrInvalidTrace, i)
		}
		if entry.InputHash == "" {
			return fmt.Errorf("%w: entry %d (factor %s) has no input hash", ErrInvalidTrace, i, entry.Factor)
		}
		if entry.At.IsZero() {
			return fmt.Errorf("%w: entry %d (factor %s) has no timestamp", ErrInvalidTrace, i, entry.Factor)
		}
		if entry.At.Before(prev) {
			return fmt.Errorf("%w: entry %d (factor %s) timestamp precedes entry %d", ErrInvalidTrace, i, entry.Factor, i-1)
		}
		prev = entry.At
	}

	return nil
}
