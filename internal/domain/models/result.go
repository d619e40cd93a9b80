package models

import "time"

// DeliveryResult reports how much of a metric batch reached the analytics platform.
type DeliveryResult struct {
	Requested       int `json:"requested"`
	Delivered       int `json:"delivered"`
	Chunks          int `json:"chunks"`
	ChunksDelivered int `json:"chunks_delivered"`
}

func (r DeliveryResult) Partial() bool {
	return r.Delivered > 0 && r.Delivered < r.Requested
}

type ProcessingStage string

const (
	StageReceived    ProcessingStage = "received"
	StageVerified    ProcessingStage = "verified"
	StageClassified  ProcessingStage = "classified"
	StageTransformed ProcessingStage = "transformed"
	StageDelivered   ProcessingStage = "delivered"
	StageRejected    ProcessingStage = "rejected"
	StageFailed      ProcessingStage = "failed"
	StageDuplicate   ProcessingStage = "duplicate"
)

// ProcessingOutcome is the internal result of one event; it is logged and
// exported, never written to the webhook response.
type ProcessingOutcome struct {
	Stage            ProcessingStage
	EventType        string
	MetricsGenerated int
	Payment          PaymentStatus
	Delivery         DeliveryResult
	Err              error
	Duration         time.Duration
}

// AckResult is what the webhook transport gets back. Unless the event was
// rejected it is success-shaped, whatever the internal outcome.
type AckResult struct {
	Success          bool              `json:"success"`
	MetricsGenerated int               `json:"metricsGenerated"`
	ProcessingTime   string            `json:"processingTime"`
	Outcome          ProcessingOutcome `json:"-"`
}

func (a AckResult) Rejected() bool {
	return a.Outcome.Stage == StageRejected
}

// BatchOutcome is the result of delivering many events in one push.
type BatchOutcome struct {
	Events   int
	Skipped  int
	Metrics  int
	Delivery DeliveryResult
	Err      error
}

type HealthReport struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
	Breaker BreakerState  `json:"breaker"`
}
