package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aguxez/keecal/models"
)

func profile(g models.Gender, age int, weight, height float64, a models.ActivityLevel, goal models.Goal) models.UserProfile {
	return models.UserProfile{Gender: g, Age: age, Weight: weight, Height: height, Activity: a, Goal: goal}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		p    models.UserProfile
		want int
	}{
		// 10*70 + 6.25*175 - 5*30 + 5 = 1648.75; * 1.55 = 2555.5625
		{"male moderate maintain", profile(models.Male, 30, 70, 175, models.Moderate, models.Maintain), 2556},
		{"male moderate lose", profile(models.Male, 30, 70, 175, models.Moderate, models.Lose), 2056},
		{"male moderate gain", profile(models.Male, 30, 70, 175, models.Moderate, models.Gain), 3056},
		// 10*60 + 6.25*165 - 5*25 - 161 = 1345.25; * 1.2 = 1614.3
		{"female sedentary maintain", profile(models.Female, 25, 60, 165, models.Sedentary, models.Maintain), 1614},
		// 1345.25 * 1.9 = 2555.975
		{"female extra active maintain", profile(models.Female, 25, 60, 165, models.ExtraActive, models.Maintain), 2556},
		// 10*80 + 6.25*180 - 5*40 + 5 = 1730; * 1.375 = 2378.75
		{"male light maintain", profile(models.Male, 40, 80, 180, models.Light, models.Maintain), 2379},
		// 1730 * 1.725 = 2984.25 - 500
		{"male active lose", profile(models.Male, 40, 80, 180, models.Active, models.Lose), 2484},
		{"unknown activity falls back to sedentary", profile(models.Male, 40, 80, 180, "couch", models.Maintain), 2076},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.p))
		})
	}
}

func TestRoundKcal(t *testing.T) {
	assert.Equal(t, 3, roundKcal(2.5))
	assert.Equal(t, 4, roundKcal(3.5))
	assert.Equal(t, -3, roundKcal(-2.5))
	assert.Equal(t, 2556, roundKcal(2555.5625))
	assert.Equal(t, 2556, roundKcal(2555.975))
}

func TestCompute_NoBoundsEnforced(t *testing.T) {
	p := models.UserProfile{Gender: models.Female, Activity: models.Sedentary, Goal: models.Lose}
	// -161 * 1.2 - 500 = -693.2
	assert.Equal(t, -693, Compute(p))
}

func TestCompute_OffsetAppliedAfterScaling(t *testing.T) {
	base := profile(models.Female, 35, 65, 170, models.Active, models.Maintain)
	lose := base
	lose.Goal = models.Lose
	gain := base
	gain.Goal = models.Gain

	assert.Equal(t, Compute(base)-GoalOffset, Compute(lose))
	assert.Equal(t, Compute(base)+GoalOffset, Compute(gain))
}

func TestCompute_Deterministic(t *testing.T) {
	p := profile(models.Male, 30, 70, 175, models.Moderate, models.Maintain)
	first := Compute(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(p))
	}
}
