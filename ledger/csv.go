package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aguxez/keecal/models"
)

var csvHeader = []string{
	"ID", "Timestamp", "Name", "Calories (kcal)", "Protein (g)", "Carbs (g)", "Fat (g)", "Trainer Comment",
}

// WriteCSV exports every entry, newest first, with timestamps in loc.
func (l *Ledger) WriteCSV(w io.Writer, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, day := range l.GroupByDay(loc) {
		for _, e := range day.Entries {
			record := []string{
				e.ID,
				e.Timestamp.In(loc).Format(time.RFC3339),
				e.Name,
				strconv.Itoa(e.Calories),
				strconv.Itoa(e.Nutrition.Protein),
				strconv.Itoa(e.Nutrition.Carbs),
				strconv.Itoa(e.Nutrition.Fat),
				e.TrainerComment,
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("writing entry %s: %w", e.ID, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ParseCSV reads entries in the WriteCSV layout. Image references are not
// part of the export and come back empty.
func ParseCSV(r io.Reader) ([]models.FoodEntry, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("invalid header length: expected %d columns, got %d", len(csvHeader), len(header))
	}
	for i, h := range header {
		if h != csvHeader[i] {
			return nil, fmt.Errorf("invalid header: expected %s at position %d, got %s", csvHeader[i], i, h)
		}
	}

	var entries []models.FoodEntry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}

		ts, err := time.Parse(time.RFC3339, record[1])
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %s: %w", record[1], err)
		}

		var nums [4]int
		for i := range nums {
			nums[i], err = strconv.Atoi(record[3+i])
			if err != nil {
				return nil, fmt.Errorf("parsing %s %q: %w", csvHeader[3+i], record[3+i], err)
			}
		}

		entries = append(entries, models.FoodEntry{
			ID:             record[0],
			Timestamp:      ts,
			Name:           record[2],
			Calories:       nums[0],
			Nutrition:      models.NutritionBreakdown{Protein: nums[1], Carbs: nums[2], Fat: nums[3]},
			TrainerComment: record[7],
		})
	}

	return entries, nil
}
