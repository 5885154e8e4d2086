// Package ledger stores food entries and projects them into daily totals.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aguxez/keecal/kvstore"
	"github.com/aguxez/keecal/models"
)

var (
	ErrDuplicateID  = errors.New("duplicate entry id")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrPersistence  = errors.New("persisting ledger failed")
)

const dayKeyLayout = "2006-01-02"

// Ledger is an append-only sequence of entries persisted as one JSON
// document. Every Append writes the whole sequence before it becomes visible.
type Ledger struct {
	mu      sync.RWMutex
	store   kvstore.Store
	entries []models.FoodEntry
	ids     map[string]struct{}
}

// Load rehydrates the ledger from store. A missing document yields an empty
// ledger.
func Load(ctx context.Context, store kvstore.Store) (*Ledger, error) {
	l := &Ledger{store: store, ids: make(map[string]struct{})}

	raw, ok, err := store.Get(ctx, kvstore.HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	if !ok || raw == "" {
		return l, nil
	}

	var entries []models.FoodEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}
	for _, e := range entries {
		if _, dup := l.ids[e.ID]; dup {
			return nil, fmt.Errorf("decoding ledger: %w: %s", ErrDuplicateID, e.ID)
		}
		l.ids[e.ID] = struct{}{}
	}
	l.entries = entries
	return l, nil
}

func validate(e models.FoodEntry) error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidEntry)
	case e.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	case e.Calories < 0:
		return fmt.Errorf("%w: negative calories", ErrInvalidEntry)
	case e.Nutrition.Protein < 0 || e.Nutrition.Carbs < 0 || e.Nutrition.Fat < 0:
		return fmt.Errorf("%w: negative nutrition value", ErrInvalidEntry)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEntry)
	}
	return nil
}

// Append adds entry and persists the ledger. If the write fails the entry is
// not added.
func (l *Ledger) Append(ctx context.Context, entry models.FoodEntry) error {
	if err := validate(entry); err != nil {
		appendsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	entry.Timestamp = entry.Timestamp.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.ids[entry.ID]; dup {
		appendsTotal.WithLabelValues("duplicate").Inc()
		return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
	}

	// Full slice expression forces a copy so a failed write leaves l.entries intact.
	next := append(l.entries[:len(l.entries):len(l.entries)], entry)
	if err := l.persist(ctx, next); err != nil {
		appendsTotal.WithLabelValues("persistence_failure").Inc()
		return err
	}

	l.entries = next
	l.ids[entry.ID] = struct{}{}
	appendsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (l *Ledger) persist(ctx context.Context, entries []models.FoodEntry) error {
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrPersistence, err)
	}
	if err := l.store.Set(ctx, kvstore.HistoryKey, string(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Reset removes every entry from memory and storage.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(ctx, kvstore.HistoryKey); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	l.entries = nil
	l.ids = make(map[string]struct{})
	return nil
}

// Entries returns a copy of all entries in append order.
func (l *Ledger) Entries() []models.FoodEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.FoodEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// DayKey formats the calendar date of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayKeyLayout)
}

// EntriesForDay returns the entries on the calendar day of date in loc,
// newest first.
func (l *Ledger) EntriesForDay(date time.Time, loc *time.Location) []models.FoodEntry {
	key := DayKey(date, loc)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.FoodEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if DayKey(l.entries[i].Timestamp, loc) == key {
			out = append(out, l.entries[i])
		}
	}
	sortNewestFirst(out)
	return out
}

// TotalCaloriesForDay sums the calories of EntriesForDay.
func (l *Ledger) TotalCaloriesForDay(date time.Time, loc *time.Location) int {
	return sumCalories(l.EntriesForDay(date, loc))
}

// Today returns the aggregate for the current day in loc.
func (l *Ledger) Today(now time.Time, loc *time.Location) models.DailyAggregate {
	entries := l.EntriesForDay(now, loc)
	return models.DailyAggregate{
		Date:    DayKey(now, loc),
		Entries: entries,
		Total:   sumCalories(entries),
	}
}

// GroupByDay groups all entries by calendar day in loc, most recent day
// first.
func (l *Ledger) GroupByDay(loc *time.Location) []models.DailyAggregate {
	l.mu.RLock()
	byDay := make(map[string][]models.FoodEntry)
	for i := len(l.entries) - 1; i >= 0; i-- {
		key := DayKey(l.entries[i].Timestamp, loc)
		byDay[key] = append(byDay[key], l.entries[i])
	}
	l.mu.RUnlock()

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]models.DailyAggregate, 0, len(keys))
	for _, k := range keys {
		entries := byDay[k]
		sortNewestFirst(entries)
		out = append(out, models.DailyAggregate{Date: k, Entries: entries, Total: sumCalories(entries)})
	}
	return out
}

// sortNewestFirst expects entries in reverse append order and keeps that
// order for equal timestamps.
func sortNewestFirst(entries []models.FoodEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

func sumCalories(entries []models.FoodEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Calories
	}
	return total
}
