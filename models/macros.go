package models

import "time"

// NutritionBreakdown holds macro grams for a single food item.
type NutritionBreakdown struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// NutritionResult is the canonical answer extracted from a classifier reply.
type NutritionResult struct {
	Name           string             `json:"name"`
	Calories       int                `json:"calories"`
	Nutrition      NutritionBreakdown `json:"nutrition"`
	TrainerComment string             `json:"trainerComment"`
}

// FoodEntry is a ledger record. Entries are never modified after creation.
type FoodEntry struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Calories       int                `json:"calories"`
	Nutrition      NutritionBreakdown `json:"nutrition"`
	TrainerComment string             `json:"trainerComment"`
	Timestamp      time.Time          `json:"timestamp"`
	ImageReference string             `json:"imageReference"`
}

// DailyAggregate groups the entries of one local calendar day.
type DailyAggregate struct {
	Date    string      `json:"date"`
	Entries []FoodEntry `json:"entries"`
	Total   int         `json:"total"`
}
