package models

const DefaultMediaCallbackPath = "/workers/media/status"

type MediaJob struct {
	JobID          string `json:"jobId"`
	OrganizationID string `json:"organizationId"`
	AssetID        string `json:"assetId"`
	SourceURL      string `json:"sourceUrl"`
	CallbackPath   string `json:"callbackPath"`
}

// MediaJobFromPayload never fails; missing or odd values become empty strings
// and the caller decides whether the job is usable.
func MediaJobFromPayload(payload map[string]interface{}) MediaJob {
	return MediaJob{
		JobID:          JobIDFromPayload(payload),
		OrganizationID: stringField(payload, "organizationId", ""),
		AssetID:        stringField(payload, "assetId", ""),
		SourceURL:      stringField(payload, "sourceUrl", ""),
		CallbackPath:   stringField(payload, "callbackPath", DefaultMediaCallbackPath),
	}
}

func (j MediaJob) Valid() bool {
	return j.JobID != "" && j.AssetID != "" && j.OrganizationID != ""
}

type MediaProcessingResult struct {
	Metadata     map[string]interface{} `json:"metadata"`
	ThumbnailURL string                 `json:"thumbnailUrl"`
	ProxyURL     *string                `json:"proxyUrl"`
}
