// Package spaced implements the spaced-repetition review policy.
package spaced

import (
	"math"
	"time"
)

const (
	// InitialIntervalDays is the interval assigned before any review history exists.
	InitialIntervalDays = 1

	// ExcellentScoreThreshold is the inclusive lower bound of the top tier.
	ExcellentScoreThreshold = 0.80
	// GoodScoreThreshold is the inclusive lower bound of the middle tier.
	GoodScoreThreshold = 0.60

	excellentMultiplier = 2.5
	goodMultiplier      = 1.5
)

// NextInterval calculates the next review interval in days from a session score
// and the prior interval. Tier bounds are inclusive on the lower end:
// score >= 0.80 grows by 2.5x, score >= 0.60 grows by 1.5x, anything below
// resets to the initial interval. The result is rounded to the nearest whole
// day and never less than 1.
func NextInterval(score float64, priorIntervalDays int) int {
	if priorIntervalDays < InitialIntervalDays {
		priorIntervalDays = InitialIntervalDays
	}

	var next int
	switch {
	case score >= ExcellentScoreThreshold:
		next = int(math.Round(float64(priorIntervalDays) * excellentMultiplier))
	case score >= GoodScoreThreshold:
		next = int(math.Round(float64(priorIntervalDays) * goodMultiplier))
	default:
		return InitialIntervalDays
	}

	if next < 1 {
		return 1
	}
	return next
}

// NextDue returns the next due timestamp for a review that happened at
// studiedAt with the given next interval.
func NextDue(studiedAt time.Time, intervalDays int) time.Time {
	return studiedAt.Add(time.Duration(intervalDays) * 24 * time.Hour)
}

// retentionHalfLifeDays controls how quickly the advisory retention estimate
// decays while a topic is not studied.
const retentionHalfLifeDays = 14.0

// RetentionScore estimates how well a topic is currently remembered.
// It decays the historical average score exponentially with the time since the
// last study. The estimate is advisory only and does not affect scheduling.
func RetentionScore(averageScore float64, sinceLastStudy time.Duration) float64 {
	if averageScore <= 0 {
		return 0
	}
	if averageScore > 1 {
		averageScore = 1
	}
	days := sinceLastStudy.Hours() / 24
	if days < 0 {
		days = 0
	}
	decay := math.Exp2(-days / retentionHalfLifeDays)
	return averageScore * decay
}
