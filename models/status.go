package models

import "time"

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// UTCNow formats t in UTC as ISO-8601 with sub-second precision.
func UTCNow(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// MediaStatus is the callback body for a media job. The embedded result is
// only set on completion; its fields are flattened into the JSON object.
type MediaStatus struct {
	JobID          string    `json:"jobId"`
	OrganizationID string    `json:"organizationId"`
	AssetID        string    `json:"assetId"`
	Status         JobStatus `json:"status"`
	*MediaProcessingResult
	Error       string `json:"error,omitempty"`
	ProcessedAt string `json:"processedAt"`
}

// PricingStatus is the callback body for a pricing job.
type PricingStatus struct {
	JobID          string    `json:"jobId"`
	OrganizationID string    `json:"organizationId"`
	Status         JobStatus `json:"status"`
	*PricingRecommendation
	Error       string `json:"error,omitempty"`
	ProcessedAt string `json:"processedAt"`
}
