package agent

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"github.com/aguxez/keecal/models"
)

const analysisTemplate = `You are a professional fitness trainer named "{{.TrainerName}}" with a "{{.Personality}}" personality.

TASK: Analyze the food image provided and provide nutrition details in {{.Language}}.

USER CONTEXT:
- User Goal: {{.Goal}}
- Daily Calorie Limit: {{.DailyLimit}} kcal
- Calories consumed today: {{.ConsumedToday}} kcal
- Calories remaining today: {{.Remaining}} kcal

PERSONALITY GUIDELINES:
{{.Tone}}

Respond with a single JSON object and nothing else:
{
  "name": "Food Name",
  "calories": number,
  "protein": number,
  "carbs": number,
  "fat": number,
  "trainerComment": "Feedback based on your personality and their progress."
}`

var personalityTones = map[models.Personality]string{
	models.Kind:       "Very gentle, uses emojis, encourages the user.",
	models.Aggressive: "Very strict, sounds like a drill instructor, demands discipline.",
	models.Funny:      "Joking, uses humor, makes light of the situation.",
}

var analysisPrompt = prompts.NewPromptTemplate(analysisTemplate, []string{
	"TrainerName", "Personality", "Language", "Goal", "DailyLimit", "ConsumedToday", "Remaining", "Tone",
})

// responseLanguage maps a profile language to the language the trainer
// should answer in.
func responseLanguage(lang models.Language) string {
	if lang == models.Thai {
		return "Thai"
	}
	return "English"
}

func buildPrompt(profile models.UserProfile, trainer models.Trainer, consumedToday int) (string, error) {
	tone, ok := personalityTones[trainer.Personality]
	if !ok {
		tone = personalityTones[models.Kind]
	}

	out, err := analysisPrompt.Format(map[string]any{
		"TrainerName":   trainer.Name,
		"Personality":   string(trainer.Personality),
		"Language":      responseLanguage(profile.PreferredLanguage),
		"Goal":          string(profile.Goal),
		"DailyLimit":    profile.DailyLimit,
		"ConsumedToday": consumedToday,
		"Remaining":     profile.DailyLimit - consumedToday,
		"Tone":          tone,
	})
	if err != nil {
		return "", fmt.Errorf("formatting analysis prompt: %w", err)
	}
	return out, nil
}
