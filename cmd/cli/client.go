package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultAPIURL = "http://localhost:8080"

type nutrition struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

type entry struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Calories       int       `json:"calories"`
	Nutrition      nutrition `json:"nutrition"`
	TrainerComment string    `json:"trainerComment"`
	Timestamp      time.Time `json:"timestamp"`
}

type summary struct {
	Date       string  `json:"date"`
	Entries    []entry `json:"entries"`
	Total      int     `json:"total"`
	DailyLimit int     `json:"dailyLimit"`
	Remaining  int     `json:"remaining"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type client struct {
	http *resty.Client
}

func newClient(baseURL string) *client {
	if baseURL == "" {
		baseURL = os.Getenv("KEECAL_API_URL")
	}
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)

	return &client{http: c}
}

func (c *client) today(ctx context.Context) (summary, error) {
	var s summary
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&s).
		SetError(&apiErr).
		Get("/entries/today")
	if err != nil {
		return summary{}, fmt.Errorf("requesting today: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if apiErr.Error != "" {
			return summary{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), apiErr.Error)
		}
		return summary{}, fmt.Errorf("HTTP error: %s", resp.Status())
	}
	return s, nil
}

// renderMarkdown lays out the summary for glamour.
func renderMarkdown(s summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Today (%s)\n\n", s.Date)
	fmt.Fprintf(&b, "**%d** / %d kcal", s.Total, s.DailyLimit)
	if s.Remaining >= 0 {
		fmt.Fprintf(&b, ", %d remaining\n\n", s.Remaining)
	} else {
		fmt.Fprintf(&b, ", **%d over**\n\n", -s.Remaining)
	}

	if len(s.Entries) == 0 {
		b.WriteString("_No meals logged yet._\n")
		return b.String()
	}

	b.WriteString("| Time | Meal | kcal | P | C | F |\n")
	b.WriteString("|------|------|-----:|--:|--:|--:|\n")
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d |\n",
			e.Timestamp.Local().Format("15:04"), escapeCell(e.Name), e.Calories,
			e.Nutrition.Protein, e.Nutrition.Carbs, e.Nutrition.Fat)
	}

	if c := s.Entries[0].TrainerComment; c != "" {
		fmt.Fprintf(&b, "\n> %s\n", c)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
