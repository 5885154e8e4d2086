package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aguxez/keecal/models"
)

func TestNormalize_AliasVariantsProduceSameResult(t *testing.T) {
	flat := `{"name":"Pad Thai","calories":"250","protein":10,"carbs":20,"fat":5,"comment":"nice"}`
	nested := `{"name":"Pad Thai","calories":250,"nutrition":{"protein":10,"carbs":20,"fat":5},"trainerComment":"nice"}`

	a, err := Normalize(flat)
	require.NoError(t, err)
	b, err := Normalize(nested)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, models.NutritionResult{
		Name:           "Pad Thai",
		Calories:       250,
		Nutrition:      models.NutritionBreakdown{Protein: 10, Carbs: 20, Fat: 5},
		TrainerComment: "nice",
	}, a)
}

func TestNormalize_Variants(t *testing.T) {
	want := models.NutritionResult{
		Name:           "Som Tam",
		Calories:       120,
		Nutrition:      models.NutritionBreakdown{Protein: 3, Carbs: 20, Fat: 2},
		TrainerComment: "Keep going!",
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"plain", `{"name":"Som Tam","calories":120,"protein":3,"carbs":20,"fat":2,"trainerComment":"Keep going!"}`},
		{"json fence", "```json\n{\"name\":\"Som Tam\",\"calories\":120,\"protein\":3,\"carbs\":20,\"fat\":2,\"trainerComment\":\"Keep going!\"}\n```"},
		{"bare fence with prose", "Here you go:\n```\n{\"name\":\"Som Tam\",\"calories\":120,\"protein\":3,\"carbs\":20,\"fat\":2,\"comment\":\"Keep going!\"}\n```\nEnjoy"},
		{"unterminated fence", "```json\n{\"name\":\"Som Tam\",\"calories\":120,\"protein\":3,\"carbs\":20,\"fat\":2,\"comment\":\"Keep going!\"}"},
		{"upper case keys", `{"Name":"Som Tam","CALORIES":120,"Protein":3,"Carbs":20,"Fat":2,"TrainerComment":"Keep going!"}`},
		{"snake case keys", `{"food_name":"Som Tam","calories":120,"nutrition":{"protein":3,"carbohydrates":20,"fat":2},"trainer_comment":"Keep going!"}`},
		{"single quotes", `{'name': 'Som Tam', 'calories': 120, 'protein': 3, 'carbs': 20, 'fat': 2, 'comment': 'Keep going!'}`},
		{"trailing comma", `{"name":"Som Tam","calories":120,"protein":3,"carbs":20,"fat":2,"comment":"Keep going!",}`},
		{"surrounding whitespace", "\n\t  {\"name\":\" Som Tam \",\"calories\":119.6,\"protein\":2.5,\"carbs\":19.5,\"fat\":2.4,\"comment\":\"Keep going!\"}  \n"},
		{"numeric strings with units", `{"name":"Som Tam","calories":"120 kcal","protein":"3g","carbs":"20 g","fat":"2","comment":"Keep going!"}`},
		{"nested partial falls back to siblings", `{"name":"Som Tam","calories":120,"nutrition":{"protein":3},"carbs":20,"fat":2,"comment":"Keep going!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalize_PrefersTrainerCommentOverComment(t *testing.T) {
	got, err := Normalize(`{"name":"Rice","calories":200,"comment":"second","trainerComment":"first"}`)
	require.NoError(t, err)
	assert.Equal(t, "first", got.TrainerComment)
}

func TestNormalize_NestedWinsOverSiblings(t *testing.T) {
	got, err := Normalize(`{"name":"Rice","calories":200,"protein":99,"nutrition":{"protein":4,"carbs":45,"fat":0}}`)
	require.NoError(t, err)
	assert.Equal(t, models.NutritionBreakdown{Protein: 4, Carbs: 45, Fat: 0}, got.Nutrition)
}

func TestNormalize_MissingNutritionDefaultsToZero(t *testing.T) {
	got, err := Normalize(`{"name":"Black coffee","calories":5}`)
	require.NoError(t, err)
	assert.Equal(t, models.NutritionBreakdown{}, got.Nutrition)
	assert.Equal(t, 5, got.Calories)
	assert.Empty(t, got.TrainerComment)
}

func TestNormalize_RoundsHalfAwayFromZero(t *testing.T) {
	got, err := Normalize(`{"name":"Toast","calories":80.5,"protein":2.5,"carbs":14.49,"fat":0.5}`)
	require.NoError(t, err)
	assert.Equal(t, 81, got.Calories)
	assert.Equal(t, models.NutritionBreakdown{Protein: 3, Carbs: 14, Fat: 1}, got.Nutrition)
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing string
		invalid string
	}{
		{name: "missing name", raw: `{"calories":100}`, missing: "name"},
		{name: "empty name", raw: `{"name":"  ","calories":100}`, missing: "name"},
		{name: "non string name", raw: `{"name":42,"calories":100}`, missing: "name"},
		{name: "missing calories", raw: `{"name":"Soup","protein":4}`, missing: "calories"},
		{name: "null calories", raw: `{"name":"Soup","calories":null}`, missing: "calories"},
		{name: "negative calories", raw: `{"name":"Soup","calories":-10}`, invalid: "calories"},
		{name: "text calories", raw: `{"name":"Soup","calories":"lots"}`, invalid: "calories"},
		{name: "negative fat", raw: `{"name":"Soup","calories":10,"fat":-1}`, invalid: "fat"},
		{name: "bool protein", raw: `{"name":"Soup","calories":10,"nutrition":{"protein":true}}`, invalid: "protein"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			require.Error(t, err)

			if tt.missing != "" {
				var mf *MissingFieldError
				require.True(t, errors.As(err, &mf), "got %v", err)
				assert.Equal(t, tt.missing, mf.Field)
			}
			if tt.invalid != "" {
				var inv *InvalidFieldError
				require.True(t, errors.As(err, &inv), "got %v", err)
				assert.Equal(t, tt.invalid, inv.Field)
			}
		})
	}
}

func TestNormalize_Unparsable(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not identify any food in this picture.",
		"```json\n```",
		`["name","calories"]`,
		`null`,
		`{"name": "Soup", "calories": }`,
	} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrUnparsable, "raw=%q", raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := "```json\n{'Name': 'Khao Man Gai', 'Calories': '596', 'nutrition': {'Protein': 25.2}, 'comment': 'Watch the oil'}\n```"
	first, err := Normalize(raw)
	require.NoError(t, err)
	second, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{'a': 'b'}`, `{"a": "b"}`},
		{`{'a': 'it\'s'}`, `{"a": "it's"}`},
		{`{'a': 'say "hi"'}`, `{"a": "say \"hi\""}`},
		{`{"a": "don't"}`, `{"a": "don't"}`},
		{`{"a": "don\'t"}`, `{"a": "don't"}`},
		{`Result: {"a": 1,} thanks`, `{"a": 1}`},
		{`{"a": [1, 2,]}`, `{"a": [1, 2]}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repairJSON(tt.in))
	}
}

func TestNormalize_EscapedApostropheInDoubleQuotes(t *testing.T) {
	got, err := Normalize(`{"name": "Tom\'s pie", 'calories': 300}`)
	require.NoError(t, err)
	assert.Equal(t, "Tom's pie", got.Name)
	assert.Equal(t, 300, got.Calories)
}
