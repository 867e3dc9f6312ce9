// ABOUTME: Health describes the reasoning service state seen by the fallback coordinator
// ABOUTME: Read-only snapshot for CLI, MCP and dashboard surfaces
package models

import "time"

// HealthState is the coordinator's view of the reasoning service
type HealthState string

const (
	HealthUnknown  HealthState = "unknown"
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
)

// Health is a point-in-time snapshot
type Health struct {
	State       HealthState `json:"state"`
	Service     string      `json:"service"`
	LastSuccess time.Time   `json:"last_success,omitempty"`
	LastError   string      `json:"last_error,omitempty"`
	LastErrorAt time.Time   `json:"last_error_at,omitempty"`
	Successes   int64       `json:"successes"`
	Failures    int64       `json:"failures"`
}
