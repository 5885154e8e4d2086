// Package tracker wires the analysis gateway, the ledger and the profile
// stores into the operations exposed to the HTTP API, the CLI and the photo
// inbox.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/aguxez/keecal/agent"
	"github.com/aguxez/keecal/ledger"
	"github.com/aguxez/keecal/models"
	"github.com/aguxez/keecal/store"
)

// Summary is today's intake measured against the profile budget.
type Summary struct {
	models.DailyAggregate
	DailyLimit int `json:"dailyLimit"`
	Remaining  int `json:"remaining"`
}

type Tracker struct {
	gateway  *agent.Gateway
	ledger   *ledger.Ledger
	profiles *store.ProfileStore
	trainers *store.TrainerStore
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

func New(gw *agent.Gateway, l *ledger.Ledger, profiles *store.ProfileStore, trainers *store.TrainerStore, loc *time.Location, log zerolog.Logger) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{
		gateway:  gw,
		ledger:   l,
		profiles: profiles,
		trainers: trainers,
		loc:      loc,
		now:      time.Now,
		log:      log.With().Str("component", "tracker").Logger(),
	}
}

// Analyze classifies a photo against the current profile, trainer and
// today's intake. The entry is not committed.
func (t *Tracker) Analyze(ctx context.Context, photo agent.Photo) (models.FoodEntry, error) {
	profile, _ := t.profiles.Profile()
	trainer, _ := t.trainers.Trainer()
	consumed := t.ledger.TotalCaloriesForDay(t.now(), t.loc)

	entry, err := t.gateway.Analyze(ctx, photo, profile, trainer, consumed)
	if err != nil {
		return models.FoodEntry{}, err
	}

	t.log.Info().
		Str("entry_id", entry.ID).
		Str("name", entry.Name).
		Int("calories", entry.Calories).
		Msg("meal analyzed")
	return entry, nil
}

// Commit appends an analyzed entry to the ledger.
func (t *Tracker) Commit(ctx context.Context, entry models.FoodEntry) error {
	if err := t.ledger.Append(ctx, entry); err != nil {
		return err
	}
	t.log.Info().Str("entry_id", entry.ID).Int("calories", entry.Calories).Msg("entry committed")
	return nil
}

// AnalyzeAndCommit is used where no confirmation step exists.
func (t *Tracker) AnalyzeAndCommit(ctx context.Context, photo agent.Photo) (models.FoodEntry, error) {
	entry, err := t.Analyze(ctx, photo)
	if err != nil {
		return models.FoodEntry{}, err
	}
	if err := t.Commit(ctx, entry); err != nil {
		return models.FoodEntry{}, err
	}
	return entry, nil
}

func (t *Tracker) Today() Summary {
	profile, _ := t.profiles.Profile()
	agg := t.ledger.Today(t.now(), t.loc)
	return Summary{
		DailyAggregate: agg,
		DailyLimit:     profile.DailyLimit,
		Remaining:      profile.DailyLimit - agg.Total,
	}
}

func (t *Tracker) History() []models.DailyAggregate {
	return t.ledger.GroupByDay(t.loc)
}

// ExportCSV writes the full history in the tracker's time zone.
func (t *Tracker) ExportCSV(w io.Writer) error {
	return t.ledger.WriteCSV(w, t.loc)
}

// Import appends entries read from a CSV export. It stops at the first
// failure and reports how many entries were added before it.
func (t *Tracker) Import(ctx context.Context, r io.Reader) (int, error) {
	entries, err := ledger.ParseCSV(r)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := t.ledger.Append(ctx, e); err != nil {
			return i, fmt.Errorf("importing entry %s: %w", e.ID, err)
		}
	}
	return len(entries), nil
}

func (t *Tracker) Ledger() *ledger.Ledger { return t.ledger }

func (t *Tracker) Profile() (models.UserProfile, bool) { return t.profiles.Profile() }

func (t *Tracker) SetupProfile(ctx context.Context, p models.UserProfile, limitOverride int) (models.UserProfile, error) {
	saved, err := t.profiles.Setup(ctx, p, limitOverride)
	if err != nil {
		return models.UserProfile{}, err
	}
	t.log.Info().Int("daily_limit", saved.DailyLimit).Msg("profile saved")
	return saved, nil
}

func (t *Tracker) Trainer() (models.Trainer, bool) { return t.trainers.Trainer() }

func (t *Tracker) SaveTrainer(ctx context.Context, tr models.Trainer) error {
	return t.trainers.Save(ctx, tr)
}

// Reset clears history, profile and trainer. Every store is attempted and
// the failures are joined.
func (t *Tracker) Reset(ctx context.Context) error {
	err := errors.Join(
		t.ledger.Reset(ctx),
		t.profiles.Reset(ctx),
		t.trainers.Reset(ctx),
	)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	t.log.Info().Msg("all data reset")
	return nil
}
