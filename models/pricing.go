package models

import "fmt"

const DefaultPricingCallbackPath = "/workers/pricing/status"

type PricingJob struct {
	JobID              string    `json:"jobId"`
	OrganizationID     string    `json:"organizationId"`
	Category           string    `json:"category"`
	Seasonality        string    `json:"seasonality"`
	BaseDailyRateCents int64     `json:"baseDailyRateCents"`
	UtilizationHistory []float64 `json:"utilizationHistory"`
	CallbackPath       string    `json:"callbackPath"`
}

// PricingJobFromPayload applies defaults for missing fields. The only error it
// returns is an ErrInvalidHistory for a history element that is not a number.
// A history that is not a list at all is treated as empty.
func PricingJobFromPayload(payload map[string]interface{}) (PricingJob, error) {
	history, err := historyField(payload, "utilizationHistory")
	if err != nil {
		return PricingJob{}, err
	}

	return PricingJob{
		JobID:              JobIDFromPayload(payload),
		OrganizationID:     stringField(payload, "organizationId", ""),
		Category:           stringField(payload, "category", "other"),
		Seasonality:        stringField(payload, "seasonality", "normal"),
		BaseDailyRateCents: intField(payload, "baseDailyRateCents", 0),
		UtilizationHistory: history,
		CallbackPath:       stringField(payload, "callbackPath", DefaultPricingCallbackPath),
	}, nil
}

func (j PricingJob) Valid() bool {
	return j.JobID != "" && j.OrganizationID != ""
}

type PricingRecommendation struct {
	SuggestedDailyRateCents int64   `json:"suggestedDailyRateCents"`
	Confidence              float64 `json:"confidence"`
	Explanation             string  `json:"explanation"`
}

func historyField(payload map[string]interface{}, key string) ([]float64, error) {
	switch raw := payload[key].(type) {
	case []interface{}:
		history := make([]float64, 0, len(raw))
		for i, v := range raw {
			f, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidHistory, key, i, err)
			}
			history = append(history, f)
		}
		return history, nil
	case []float64:
		return append([]float64(nil), raw...), nil
	default:
		return []float64{}, nil
	}
}
