// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	AnalysisStarted   EventType = "ANALYSIS_STARTED"
	AnalysisCompleted EventType = "ANALYSIS_COMPLETED"
	AnalysisFailed    EventType = "ANALYSIS_FAILED"
	PricesSynced      EventType = "PRICES_SYNCED"
	ReportArchived    EventType = "REPORT_ARCHIVED"
	ReportsExpired    EventType = "REPORTS_EXPIRED"
	ErrorOccurred     EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every type a stream subscriber may filter on.
var AllEventTypes = []EventType{
	AnalysisStarted,
	AnalysisCompleted,
	AnalysisFailed,
	PricesSynced,
	ReportArchived,
	ReportsExpired,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
