package domain

import "time"

// ThreatVector is the running tally for one named threat category. Severity
// and LastDetectedAt reflect the most recent observation, not the maximum.
type ThreatVector struct {
	ThreatType     string     `json:"threat_type"`
	Count          int64      `json:"count"`
	Severity       Severity   `json:"severity"`
	LastDetectedAt *time.Time `json:"last_detected_at,omitempty"`
}

// RequestMetrics is the singleton counter row for the security layer.
type RequestMetrics struct {
	TotalRequests  int64     `json:"total_requests"`
	ThreatsBlocked int64     `json:"threats_blocked"`
	ThreatsFlagged int64     `json:"threats_flagged"`
	LastUpdatedAt  time.Time `json:"last_updated_at"`
}
