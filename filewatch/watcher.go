package filewatch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aguxez/keecal/agent"
	"github.com/aguxez/keecal/models"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true}

// PhotoHandler analyzes a photo and appends the result to the ledger.
type PhotoHandler interface {
	AnalyzeAndCommit(ctx context.Context, photo agent.Photo) (models.FoodEntry, error)
}

// InboxWatcher analyzes photos moved into a directory. Files must be moved
// in atomically; a photo still being written would be read partially.
// Handled photos go to processed/ or failed/ below the inbox.
type InboxWatcher struct {
	dir     string
	handler PhotoHandler
	watcher *fsnotify.Watcher
	log     zerolog.Logger
}

func NewInboxWatcher(dir string, handler PhotoHandler, log zerolog.Logger) (*InboxWatcher, error) {
	for _, d := range []string{dir, filepath.Join(dir, processedDir), filepath.Join(dir, failedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", d, err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	return &InboxWatcher{
		dir:     dir,
		handler: handler,
		watcher: w,
		log:     log.With().Str("component", "inbox").Str("dir", dir).Logger(),
	}, nil
}

// Watch handles events serially until ctx is done or the watcher is closed.
func (iw *InboxWatcher) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				iw.log.Debug().Str("file", event.Name).Msg("photo arrived")
				if err := iw.HandleFile(ctx, event.Name); err != nil {
					iw.log.Error().Stack().Err(err).Str("file", event.Name).Msg("photo not logged")
				}
			}
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			iw.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// ScanExisting handles photos left in the inbox while nothing was watching.
func (iw *InboxWatcher) ScanExisting(ctx context.Context) error {
	files, err := os.ReadDir(iw.dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}

	var errs []error
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if err := iw.HandleFile(ctx, filepath.Join(iw.dir, f.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleFile analyzes one photo and moves it out of the inbox. Non-image
// files are ignored.
//
// The photo leaves the inbox for processed/ under a UUID-prefixed name
// before it is analyzed, and moves on to failed/ if analysis fails.
func (iw *InboxWatcher) HandleFile(ctx context.Context, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExts[ext] {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return err
	}

	base := filepath.Base(path)
	name, err := uniqueName(base)
	if err != nil {
		return err
	}
	processed := filepath.Join(iw.dir, processedDir, name)

	if err := os.Rename(path, processed); err != nil {
		return fmt.Errorf("claiming %s: %w", base, err)
	}

	entry, err := iw.analyze(ctx, processed, ext)
	if err != nil {
		err = fmt.Errorf("analyzing %s: %w", base, err)
		if mvErr := os.Rename(processed, filepath.Join(iw.dir, failedDir, name)); mvErr != nil {
			return errors.Join(err, mvErr)
		}
		return err
	}

	iw.log.Info().
		Str("file", base).
		Str("stored_as", name).
		Str("entry_id", entry.ID).
		Int("calories", entry.Calories).
		Msg("photo logged")
	return nil
}

func (iw *InboxWatcher) analyze(ctx context.Context, path, ext string) (models.FoodEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FoodEntry{}, err
	}
	return iw.handler.AnalyzeAndCommit(ctx, agent.Photo{
		Data:      data,
		MIMEType:  mime.TypeByExtension(ext),
		Reference: path,
	})
}

// uniqueName prefixes base with a time-ordered UUID.
func uniqueName(base string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("naming %s: %w", base, err)
	}
	return id.String() + "-" + base, nil
}

func (iw *InboxWatcher) Close() error {
	return iw.watcher.Close()
}
