// Package store keeps the user profile and trainer documents, caching the
// last loaded value and writing through on every change.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aguxez/keecal/budget"
	"github.com/aguxez/keecal/kvstore"
	"github.com/aguxez/keecal/models"
)

// document is a JSON value cached in memory and persisted under one key.
type document[T any] struct {
	mu         sync.RWMutex
	kv         kvstore.Store
	key        string
	value      T
	configured bool
	defaults   func() T
}

func (d *document[T]) load(ctx context.Context) error {
	raw, ok, err := d.kv.Get(ctx, d.key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", d.key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !ok || raw == "" {
		d.value, d.configured = d.defaults(), false
		return nil
	}

	v := d.defaults()
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("decoding %s: %w", d.key, err)
	}
	d.value, d.configured = v, true
	return nil
}

func (d *document[T]) get() (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value, d.configured
}

func (d *document[T]) save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.kv.Set(ctx, d.key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", d.key, err)
	}
	d.value, d.configured = v, true
	return nil
}

func (d *document[T]) reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.kv.Delete(ctx, d.key); err != nil {
		return fmt.Errorf("deleting %s: %w", d.key, err)
	}
	d.value, d.configured = d.defaults(), false
	return nil
}

type ProfileStore struct {
	doc document[models.UserProfile]
}

// LoadProfileStore reads the stored profile, falling back to defaults.
func LoadProfileStore(ctx context.Context, kv kvstore.Store) (*ProfileStore, error) {
	s := &ProfileStore{doc: document[models.UserProfile]{kv: kv, key: kvstore.ProfileKey, defaults: models.DefaultProfile}}
	if err := s.doc.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Profile returns the current profile and whether one has been saved.
func (s *ProfileStore) Profile() (models.UserProfile, bool) {
	return s.doc.get()
}

// Setup validates p, sets its daily limit and saves it. A positive
// limitOverride replaces the computed budget.
func (s *ProfileStore) Setup(ctx context.Context, p models.UserProfile, limitOverride int) (models.UserProfile, error) {
	if err := p.Validate(); err != nil {
		return models.UserProfile{}, err
	}

	p.DailyLimit = budget.Compute(p)
	if limitOverride > 0 {
		p.DailyLimit = limitOverride
	}

	if err := s.doc.save(ctx, p); err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

func (s *ProfileStore) Reset(ctx context.Context) error {
	return s.doc.reset(ctx)
}

type TrainerStore struct {
	doc document[models.Trainer]
}

func LoadTrainerStore(ctx context.Context, kv kvstore.Store) (*TrainerStore, error) {
	s := &TrainerStore{doc: document[models.Trainer]{kv: kv, key: kvstore.TrainerKey, defaults: models.DefaultTrainer}}
	if err := s.doc.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TrainerStore) Trainer() (models.Trainer, bool) {
	return s.doc.get()
}

func (s *TrainerStore) Save(ctx context.Context, t models.Trainer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.doc.save(ctx, t)
}

func (s *TrainerStore) Reset(ctx context.Context) error {
	return s.doc.reset(ctx)
}
