package models

import (
	"time"

	"github.com/google/uuid"
)

// FailedBatch is published to Kafka when metrics could not be delivered,
// so they can be replayed once the analytics platform recovers.
type FailedBatch struct {
	ID        uuid.UUID      `json:"id"`
	Source    string         `json:"source"`
	EventType string         `json:"event_type"`
	OrderID   string         `json:"order_id,omitempty"`
	Error     string         `json:"error"`
	ErrorKind string         `json:"error_kind"`
	Metrics   []MetricRecord `json:"metrics"`
	FailedAt  time.Time      `json:"failed_at"`
}
