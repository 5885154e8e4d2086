package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aguxez/keecal/models"
)

var (
	ErrBusy            = errors.New("an analysis is already in progress")
	ErrProviderFailure = errors.New("classifier request failed")
	ErrInvalidResponse = errors.New("classifier returned an invalid response")
	ErrEmptyImage      = errors.New("image is empty")
)

// Photo is an encoded meal image. Reference is stored on the resulting entry;
// when empty a data URI of the image is used instead.
type Photo struct {
	Data      []byte
	MIMEType  string
	Reference string
}

// Gateway runs one classification round trip per Analyze call and turns the
// reply into a FoodEntry. Only one call may be outstanding at a time.
type Gateway struct {
	classifier Classifier
	log        zerolog.Logger
	now        func() time.Time
	newID      func() (string, error)
	busy       atomic.Bool
}

type GatewayOption func(*Gateway)

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(newID func() (string, error)) GatewayOption {
	return func(g *Gateway) { g.newID = newID }
}

func NewGateway(classifier Classifier, log zerolog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		classifier: classifier,
		log:        log.With().Str("component", "analysis_gateway").Logger(),
		now:        time.Now,
		newID:      newEntryID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// newEntryID returns a UUIDv7, which sorts by creation time.
func newEntryID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Analyze classifies photo and returns an uncommitted entry. Appending it to
// the ledger is left to the caller.
func (g *Gateway) Analyze(ctx context.Context, photo Photo, profile models.UserProfile, trainer models.Trainer, consumedToday int) (models.FoodEntry, error) {
	if !g.busy.CompareAndSwap(false, true) {
		analysesTotal.WithLabelValues("busy").Inc()
		return models.FoodEntry{}, ErrBusy
	}
	defer g.busy.Store(false)

	entry, outcome, err := g.analyze(ctx, photo, profile, trainer, consumedToday)
	analysesTotal.WithLabelValues(outcome).Inc()
	return entry, err
}

func (g *Gateway) analyze(ctx context.Context, photo Photo, profile models.UserProfile, trainer models.Trainer, consumedToday int) (models.FoodEntry, string, error) {
	if len(photo.Data) == 0 {
		return models.FoodEntry{}, "rejected", ErrEmptyImage
	}

	prompt, err := buildPrompt(profile, trainer, consumedToday)
	if err != nil {
		return models.FoodEntry{}, "rejected", err
	}

	// Cancellation is honoured only until the request is issued.
	if err := ctx.Err(); err != nil {
		return models.FoodEntry{}, "cancelled", err
	}

	mimeType := photo.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(photo.Data)
	}

	start := g.now()
	raw, err := g.classifier.Classify(ctx, photo.Data, mimeType, prompt)
	if err != nil {
		return models.FoodEntry{}, "provider_failure", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	g.log.Debug().
		Dur("latency", g.now().Sub(start)).
		Int("response_bytes", len(raw)).
		Msg("classifier replied")

	result, err := Normalize(raw)
	if err != nil {
		return models.FoodEntry{}, "invalid_response", fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	id, err := g.newID()
	if err != nil {
		return models.FoodEntry{}, "rejected", fmt.Errorf("generating entry id: %w", err)
	}

	ref := photo.Reference
	if ref == "" {
		ref = dataURI(mimeType, photo.Data)
	}

	return models.FoodEntry{
		ID:             id,
		Name:           result.Name,
		Calories:       result.Calories,
		Nutrition:      result.Nutrition,
		TrainerComment: result.TrainerComment,
		Timestamp:      g.now(),
		ImageReference: ref,
	}, "ok", nil
}
