package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"tunedl/models"
)

// PathPair holds the canonical output path and the doubled-extension path the
// engine writes when the output template already carries the extension.
type PathPair struct {
	TempPath  string
	FinalPath string
}

func NewPathPair(dir, name, format string) PathPair {
	temp := filepath.Join(dir, name+"."+format)
	return PathPair{
		TempPath:  temp,
		FinalPath: temp + "." + format,
	}
}

// Executor runs the fetch engine and reconciles its output path.
type Executor struct {
	engine  Engine
	format  string
	quality int
	logger  *log.Entry
}

func NewExecutor(engine Engine, format string, quality int) *Executor {
	return &Executor{
		engine:  engine,
		format:  format,
		quality: quality,
		logger: log.WithFields(log.Fields{
			"module": "audio",
		}),
	}
}

func (e *Executor) Format() string {
	return e.format
}

// Acquire downloads mediaURL to paths.TempPath. The engine is invoked once.
func (e *Executor) Acquire(ctx context.Context, mediaURL string, paths PathPair) error {
	logger := e.logger.WithFields(log.Fields{"url": mediaURL, "path": paths.TempPath})

	span := sentry.StartSpan(ctx, "audio.acquire")
	span.Description = "Download and extract audio"
	span.SetTag("url", mediaURL)
	defer span.Finish()

	err := e.engine.Fetch(span.Context(), mediaURL, Options{
		Format:         e.format,
		Quality:        e.quality,
		OutputTemplate: paths.TempPath,
	})
	if err != nil {
		logger.Errorf("error downloading: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return &models.FetchError{URL: mediaURL, Err: err}
	}

	if err := reconcile(paths); err != nil {
		logger.Errorf("error renaming output: %v", err)
		span.Status = sentry.SpanStatusInternalError
		return &models.FetchError{URL: mediaURL, Err: err}
	}

	logger.Debug("download complete")
	span.Status = sentry.SpanStatusOK
	return nil
}

// AcquireDirect downloads mediaURL into dir, named after the media title.
func (e *Executor) AcquireDirect(ctx context.Context, mediaURL, dir string) error {
	span := sentry.StartSpan(ctx, "audio.acquire")
	span.Description = "Download and extract audio from a direct link"
	span.SetTag("url", mediaURL)
	defer span.Finish()

	err := e.engine.Fetch(span.Context(), mediaURL, Options{
		Format:         e.format,
		Quality:        e.quality,
		OutputTemplate: filepath.Join(dir, "%(title)s.%(ext)s"),
	})
	if err != nil {
		e.logger.WithField("url", mediaURL).Errorf("error downloading: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return &models.FetchError{URL: mediaURL, Err: err}
	}

	span.Status = sentry.SpanStatusOK
	return nil
}

// reconcile moves the doubled-extension file onto the canonical path, if the
// engine produced one.
func reconcile(paths PathPair) error {
	if _, err := os.Stat(paths.FinalPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Rename(paths.FinalPath, paths.TempPath); err != nil {
		return fmt.Errorf("rename %s: %w", paths.FinalPath, err)
	}
	return nil
}
