package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aguxez/keecal/models"
	"github.com/aguxez/keecal/tracker"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func useDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KEECAL_DATA_DIR", dir)
	t.Setenv("KEECAL_DB_PATH", "")
	t.Setenv("KEECAL_TIMEZONE", "UTC")
	return dir
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "analyze")
	assert.Contains(t, out, "serve")
}

func TestProfileSetupAndToday(t *testing.T) {
	dir := useDataDir(t)

	out, err := execute(t, "profile", "setup", "--name", "Nok", "--age", "30", "--weight", "70", "--height", "175", "--language", "en")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily budget: 2556 kcal")
	assert.FileExists(t, filepath.Join(dir, "keecal.db"))

	out, err = execute(t, "today")
	require.NoError(t, err)
	assert.Contains(t, out, "Budget: 2556 kcal")
	assert.Contains(t, out, "Remaining: 2556 kcal")
	assert.Contains(t, out, "No meals logged yet.")
}

func TestProfileSetupRejectsInvalid(t *testing.T) {
	useDataDir(t)

	_, err := execute(t, "profile", "setup", "--name", "Nok", "--age", "30", "--weight", "70", "--height", "175", "--goal", "bulk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown goal")
}

func TestTrainerSetKeepsImage(t *testing.T) {
	useDataDir(t)

	out, err := execute(t, "trainer", "set", "--name", "Sergeant", "--personality", "aggressive")
	require.NoError(t, err)
	assert.Contains(t, out, "Trainer: Sergeant (aggressive)")

	out, err = execute(t, "trainer", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Sergeant"`)
	assert.Contains(t, out, models.DefaultTrainer().Image)
}

func TestResetRequiresConfirmation(t *testing.T) {
	useDataDir(t)

	_, err := execute(t, "reset")
	require.Error(t, err)

	out, err := execute(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All data cleared.")
}

func TestImportThenHistory(t *testing.T) {
	dir := useDataDir(t)

	csvPath := filepath.Join(dir, "in.csv")
	csv := "ID,Timestamp,Name,Calories (kcal),Protein (g),Carbs (g),Fat (g),Trainer Comment\n" +
		"e2,2025-03-02T12:00:00Z,Pho,450,25,60,10,\n" +
		"e1,2025-03-01T08:00:00Z,Toast,200,5,30,6,Good start\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))

	out, err := execute(t, "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 entries")

	out, err = execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-02  450 kcal  (1 meals)")
	assert.Contains(t, out, "2025-03-01  200 kcal  (1 meals)")
	assert.Less(t, bytes.Index([]byte(out), []byte("2025-03-02")), bytes.Index([]byte(out), []byte("2025-03-01")))
}

func TestWriteSummaryOverBudget(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, tracker.Summary{
		DailyAggregate: models.DailyAggregate{
			Date:  "2025-03-01",
			Total: 2300,
			Entries: []models.FoodEntry{
				{ID: "a", Name: "Burger", Calories: 2300, Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), TrainerComment: "Easy there"},
			},
		},
		DailyLimit: 2000,
		Remaining:  -300,
	})

	out := buf.String()
	assert.Contains(t, out, "Over budget by 300 kcal")
	assert.Contains(t, out, "Burger  2300 kcal")
	assert.Contains(t, out, `"Easy there"`)
}

func TestReadPhotoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meal.PNG")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	photo, err := readPhotoFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.MIMEType)
	assert.Equal(t, path, photo.Reference)

	_, err = readPhotoFile(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}
