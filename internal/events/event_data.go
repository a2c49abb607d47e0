package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// AnalysisStartedData contains data for AnalysisStarted events
type AnalysisStartedData struct {
	Instruments []string `json:"instruments"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Trials      int      `json:"trials"`
	HorizonDays int      `json:"horizon_days"`
}

// EventType returns the event type for AnalysisStartedData
func (d *AnalysisStartedData) EventType() EventType {
	return AnalysisStarted
}

// AnalysisCompletedData contains data for AnalysisCompleted events
type AnalysisCompletedData struct {
	ReportID     string   `json:"report_id"`
	Instruments  []string `json:"instruments"`
	SharpeRatio  *float64 `json:"sharpe_ratio,omitempty"`
	MedianReturn float64  `json:"median_return"`
	DurationMs   int64    `json:"duration_ms"`
}

// EventType returns the event type for AnalysisCompletedData
func (d *AnalysisCompletedData) EventType() EventType {
	return AnalysisCompleted
}

// AnalysisFailedData contains data for AnalysisFailed events
type AnalysisFailedData struct {
	Instruments []string `json:"instruments"`
	Stage       string   `json:"stage"`
	Error       string   `json:"error"`
}

// EventType returns the event type for AnalysisFailedData
func (d *AnalysisFailedData) EventType() EventType {
	return AnalysisFailed
}

// PricesSyncedData contains data for PricesSynced events
type PricesSyncedData struct {
	Instrument string `json:"instrument"`
	Count      int    `json:"count"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// EventType returns the event type for PricesSyncedData
func (d *PricesSyncedData) EventType() EventType {
	return PricesSynced
}

// ReportArchivedData contains data for ReportArchived events
type ReportArchivedData struct {
	ReportID string `json:"report_id"`
	Key      string `json:"key"`
	Bytes    int64  `json:"bytes"`
}

// EventType returns the event type for ReportArchivedData
func (d *ReportArchivedData) EventType() EventType {
	return ReportArchived
}

// ReportsExpiredData contains data for ReportsExpired events
type ReportsExpiredData struct {
	Deleted int64 `json:"deleted"`
}

// EventType returns the event type for ReportsExpiredData
func (d *ReportsExpiredData) EventType() EventType {
	return ReportsExpired
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
