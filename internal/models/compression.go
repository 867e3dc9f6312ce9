// ABOUTME: CompressionOutcome reports what a compression trigger did
// ABOUTME: One of skipped, compressed(n_removed) or failed
package models

import "fmt"

// CompressionStatus is the kind of outcome
type CompressionStatus string

const (
	CompressionSkipped    CompressionStatus = "skipped"
	CompressionCompressed CompressionStatus = "compressed"
	CompressionFailed     CompressionStatus = "failed"
)

// CompressionOutcome is the result of Compressor.MaybeCompress
type CompressionOutcome struct {
	Status  CompressionStatus `json:"status"`
	Removed int               `json:"removed,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Summary *Memory           `json:"summary,omitempty"`
}

func (o CompressionOutcome) String() string {
	switch o.Status {
	case CompressionCompressed:
		return fmt.Sprintf("compressed(%d)", o.Removed)
	case CompressionFailed:
		return fmt.Sprintf("failed: %s", o.Reason)
	default:
		if o.Reason != "" {
			return fmt.Sprintf("skipped: %s", o.Reason)
		}
		return "skipped"
	}
}
