package models

import "time"

type BreakerStateValue string

const (
	BreakerClosed   BreakerStateValue = "CLOSED"
	BreakerOpen     BreakerStateValue = "OPEN"
	BreakerHalfOpen BreakerStateValue = "HALF_OPEN"
)

type BreakerState struct {
	Name            string            `json:"name"`
	State           BreakerStateValue `json:"state"`
	FailureCount    int               `json:"failure_count"`
	SuccessCount    int               `json:"success_count"`
	LastFailureTime *time.Time        `json:"last_failure_time"`
}
