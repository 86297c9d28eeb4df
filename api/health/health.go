// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import "context"

// Checkable is the interface for health reporting. Both LogicRepo and
// LogicConsumer implement it.
type Checkable interface {
	// Health returns a health report
	Health(context.Context) (interface{}, error)
}

// Report is the shape LogicRepo and LogicConsumer return from Health:
// always healthy (neither engine has a failure mode that leaves it
// running but unhealthy), carrying whatever counters are relevant to
// that side of the sync state machine.
type Report struct {
	// Healthy is true if the component is healthy
	Healthy bool `json:"healthy"`

	// Details is a map of detailed health information
	Details map[string]interface{} `json:"details,omitempty"`
}
