// Package pricing computes daily rental rate recommendations from a base rate,
// equipment category, season and recent utilization.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"studioworkers/models"
)

// EngineError is a pricing failure caused by the job's inputs.
type EngineError struct {
	Reason string
}

func (e *EngineError) Error() string {
	return e.Reason
}

var ErrNonPositiveBaseRate = &EngineError{Reason: "baseDailyRateCents must be greater than zero"}

var categoryFactors = map[string]float64{
	"camera":   1.00,
	"lens":     1.08,
	"lighting": 0.95,
	"audio":    0.93,
	"grip":     0.90,
	"drone":    1.12,
	"other":    1.00,
}

var seasonalityFactors = map[string]float64{
	"low":    0.90,
	"normal": 1.00,
	"high":   1.12,
	"peak":   1.22,
}

const (
	defaultUtilization = 0.5
	fullSampleSize     = 12.0
)

// CategoryFactor is case-insensitive; unknown categories price like "other".
func CategoryFactor(category string) float64 {
	if f, ok := categoryFactors[strings.ToLower(category)]; ok {
		return f
	}
	return categoryFactors["other"]
}

// SeasonalityFactor is case-insensitive; unknown seasons price like "normal".
func SeasonalityFactor(seasonality string) float64 {
	if f, ok := seasonalityFactors[strings.ToLower(seasonality)]; ok {
		return f
	}
	return seasonalityFactors["normal"]
}

// RecommendPrice is a pure function of job.
func RecommendPrice(job models.PricingJob) (*models.PricingRecommendation, error) {
	if job.BaseDailyRateCents <= 0 {
		return nil, ErrNonPositiveBaseRate
	}

	categoryFactor := CategoryFactor(job.Category)
	seasonalityFactor := SeasonalityFactor(job.Seasonality)

	history := cleanHistory(job.UtilizationHistory)
	utilization := defaultUtilization
	if len(history) > 0 {
		utilization = mean(history)
	}

	utilizationFactor := 0.85 + float64(utilization*0.40)
	rawRate := float64(job.BaseDailyRateCents) * utilizationFactor * categoryFactor * seasonalityFactor
	suggested := int64(math.RoundToEven(rawRate))

	sampleFactor := clamp(float64(len(history))/fullSampleSize, 0.1, 1.0)
	variance := 0.0
	if len(history) > 1 {
		variance = populationVariance(history)
	}
	variancePenalty := clamp(variance, 0.0, 0.25)
	// Explicit conversions keep the products from being fused into FMA instructions.
	confidence := round2(clamp(0.55+float64(sampleFactor*0.35)-float64(variancePenalty*0.6), 0.15, 0.95))

	explanation := fmt.Sprintf(
		"Baseline %dc adjusted by utilization (%.2fx), category (%.2fx), and seasonality (%.2fx).",
		job.BaseDailyRateCents, utilizationFactor, categoryFactor, seasonalityFactor,
	)

	return &models.PricingRecommendation{
		SuggestedDailyRateCents: suggested,
		Confidence:              confidence,
		Explanation:             explanation,
	}, nil
}

// cleanHistory drops NaN and infinite samples and clamps the rest to [0, 1].
func cleanHistory(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, clamp(v, 0.0, 1.0))
	}
	return out
}

func clamp(value, minimum, maximum float64) float64 {
	return math.Max(minimum, math.Min(maximum, value))
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// round2 rounds to two decimals using the exact binary value of v, so ties
// resolve the same way as decimal formatting does.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
