// Package budget derives a daily calorie target from a user profile.
package budget

import (
	"math"

	"github.com/aguxez/keecal/models"
)

// GoalOffset is the kcal adjustment applied after activity scaling.
const GoalOffset = 500

var activityFactors = map[models.ActivityLevel]float64{
	models.Sedentary:   1.2,
	models.Light:       1.375,
	models.Moderate:    1.55,
	models.Active:      1.725,
	models.ExtraActive: 1.9,
}

// BMR returns the Mifflin-St Jeor basal metabolic rate.
func BMR(p models.UserProfile) float64 {
	base := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Gender == models.Male {
		return base + 5
	}
	return base - 161
}

// ActivityFactor returns the TDEE multiplier for a level. Unknown levels
// are treated as sedentary.
func ActivityFactor(level models.ActivityLevel) float64 {
	if f, ok := activityFactors[level]; ok {
		return f
	}
	return activityFactors[models.Sedentary]
}

// Compute returns the daily calorie target rounded half away from zero.
// Inputs are not range checked.
func Compute(p models.UserProfile) int {
	tdee := BMR(p) * ActivityFactor(p.Activity)

	switch p.Goal {
	case models.Lose:
		tdee -= GoalOffset
	case models.Gain:
		tdee += GoalOffset
	}

	return roundKcal(tdee)
}

// roundKcal rounds half away from zero.
func roundKcal(v float64) int {
	return int(math.Round(v))
}
