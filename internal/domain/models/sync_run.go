package models

import (
	"time"

	"github.com/google/uuid"
)

type SyncType string

const (
	SyncOrders    SyncType = "orders"
	SyncShipments SyncType = "shipments"
	SyncAll       SyncType = "all"
)

type SyncRunStatus string

const (
	SyncRunRunning   SyncRunStatus = "running"
	SyncRunSucceeded SyncRunStatus = "succeeded"
	SyncRunFailed    SyncRunStatus = "failed"
)

type SyncRun struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	Type       SyncType      `json:"type" db:"sync_type"`
	From       time.Time     `json:"from" db:"range_from"`
	To         time.Time     `json:"to" db:"range_to"`
	Status     SyncRunStatus `json:"status" db:"status"`
	Events     int           `json:"events" db:"events"`
	Metrics    int           `json:"metrics" db:"metrics"`
	Error      string        `json:"error,omitempty" db:"error"`
	StartedAt  time.Time     `json:"started_at" db:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty" db:"finished_at"`
}
