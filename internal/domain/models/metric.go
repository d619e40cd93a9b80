package models

import "time"

const MetricDateLayout = "2006-01-02"

// MetricRecord is one dimensioned data point for the analytics platform.
// Dimension values are strings, numbers or bools.
type MetricRecord struct {
	MetricName string         `json:"metric_name"`
	Value      float64        `json:"value"`
	Date       string         `json:"date"`
	Dimensions map[string]any `json:"dimensions"`
}

func MetricDate(t time.Time) string {
	return t.Format(MetricDateLayout)
}
