package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"tunedl/audio"
	"tunedl/config"
	"tunedl/database"
	"tunedl/helpers"
	"tunedl/metadata"
	"tunedl/models"
	"tunedl/sentryhelper"
	"tunedl/spotify"
)

// TrackResolver turns a single track link into a Track.
type TrackResolver interface {
	GetTrackInfo(ctx context.Context, ref string) (models.Track, error)
}

// Catalog resolves single tracks and expands collections.
type Catalog interface {
	TrackResolver
	GetCollection(ctx context.Context, ref string, kind models.CollectionType) (models.Collection, error)
}

type Locator interface {
	Locate(ctx context.Context, source models.DownloadSource, query string) (string, error)
}

type Acquirer interface {
	Format() string
	Acquire(ctx context.Context, mediaURL string, paths audio.PathPair) error
	AcquireDirect(ctx context.Context, mediaURL, dir string) error
}

type Tagger interface {
	Tag(ctx context.Context, path string, track models.Track) error
}

type History interface {
	RecordDownload(record database.HistoryRecord) error
}

// Dependencies wires the pipeline to its collaborators. Spotify, AppleMusic,
// History and Prompter may be nil.
type Dependencies struct {
	Platforms    []config.PlatformMarkers
	Spotify      Catalog
	AppleMusic   TrackResolver
	Locator      Locator
	Acquirer     Acquirer
	Tagger       Tagger
	History      History
	Prompter     Prompter
	Dir          string
	SkipExisting bool
}

type Pipeline struct {
	deps      Dependencies
	readTitle func(path string) (string, error)
	logger    *log.Entry
}

// ItemResult is the outcome of one track. Err fails the item; TagErr does not.
type ItemResult struct {
	Track    models.Track
	Source   models.DownloadSource
	MediaURL string
	Path     string
	Skipped  bool
	Err      error
	TagErr   error
}

func (r ItemResult) Succeeded() bool {
	return r.Err == nil
}

// BatchReport summarises a collection download. Succeeded+Failed == Total.
type BatchReport struct {
	ID        string
	Name      string
	Type      models.CollectionType
	Source    models.DownloadSource
	Total     int
	Succeeded int
	Failed    int
	Items     []ItemResult
}

// Result is what Download produced: a single item or a batch.
type Result struct {
	Platform models.Platform
	Item     *ItemResult
	Batch    *BatchReport
}

func NewPipeline(deps Dependencies) *Pipeline {
	if deps.Platforms == nil {
		deps.Platforms = config.DefaultPlatforms()
	}
	return &Pipeline{
		deps:      deps,
		readTitle: metadata.ReadTitle,
		logger: log.WithFields(log.Fields{
			"module": "controller",
		}),
	}
}

// Download runs the whole pipeline for one reference. Single-item failures are
// returned as the error; batch item failures only show up in the report.
func (p *Pipeline) Download(ctx context.Context, ref string, settings models.Settings) (result Result, err error) {
	ctx, transaction := sentryhelper.StartActionTransaction(ctx, "download", ref)
	defer func() {
		reported := err
		if errors.Is(err, models.ErrClassificationMiss) {
			reported = nil
		}
		sentryhelper.FinishAction(ctx, transaction, reported)
	}()

	platform, err := Classify(p.deps.Platforms, ref)
	if err != nil {
		p.logger.WithField("reference", ref).Warn("unsupported platform")
		return Result{}, err
	}
	result = Result{Platform: platform}
	logger := p.logger.WithFields(log.Fields{"reference": ref, "platform": platform})

	if !platform.IsCatalog() {
		source, err := SelectSource(settings, platform, p.deps.Prompter)
		if err != nil {
			return result, err
		}
		item := p.DownloadDirect(ctx, ref, source)
		result.Item = &item
		return result, item.Err
	}

	kind := spotify.KindTrack
	if platform == models.PlatformSpotify {
		kind = spotify.ContentKind(ref)
	}

	if kind.IsCollection() {
		if p.deps.Spotify == nil {
			return result, &models.ResolutionError{Reference: ref, Err: errors.New("spotify is not configured")}
		}
		collection, err := p.deps.Spotify.GetCollection(ctx, ref, models.CollectionType(kind))
		if err != nil {
			return result, err
		}
		source, err := SelectSource(settings, platform, p.deps.Prompter)
		if err != nil {
			return result, err
		}
		report := p.RunBatch(ctx, ref, collection, source)
		result.Batch = &report
		return result, nil
	}

	resolver, err := p.resolver(platform)
	if err != nil {
		return result, &models.ResolutionError{Reference: ref, Err: err}
	}
	track, err := resolver.GetTrackInfo(ctx, ref)
	if err != nil {
		return result, err
	}
	source, err := SelectSource(settings, platform, p.deps.Prompter)
	if err != nil {
		return result, err
	}

	logger.Infof("downloading %s", track.DisplayName())
	item := p.DownloadTrack(ctx, ref, track, source)
	result.Item = &item
	return result, item.Err
}

func (p *Pipeline) resolver(platform models.Platform) (TrackResolver, error) {
	switch platform {
	case models.PlatformSpotify:
		if p.deps.Spotify != nil {
			return p.deps.Spotify, nil
		}
	case models.PlatformAppleMusic:
		if p.deps.AppleMusic != nil {
			return p.deps.AppleMusic, nil
		}
	}
	return nil, fmt.Errorf("%s is not configured", platform)
}

// RunBatch drives every track of collection through DownloadTrack with the
// pre-resolved source, in order. Item failures are counted, never returned.
func (p *Pipeline) RunBatch(ctx context.Context, ref string, collection models.Collection, source models.DownloadSource) BatchReport {
	report := BatchReport{
		ID:     uuid.NewString(),
		Name:   collection.Name,
		Type:   collection.Type,
		Source: source,
		Total:  collection.Len(),
		Items:  make([]ItemResult, 0, collection.Len()),
	}
	logger := p.logger.WithFields(log.Fields{"batch_id": report.ID, "collection": collection.Name})
	logger.Infof("starting %s download (%d tracks) from %s", collection.Type, report.Total, source)

	for i, track := range collection.Tracks {
		logger.Debugf("track %d/%d: %s", i+1, report.Total, track.DisplayName())

		item := p.downloadTrack(ctx, report.ID, ref, track, source)
		if item.Succeeded() {
			report.Succeeded++
		} else {
			logger.Errorf("failed to download %s: %v", track.DisplayName(), item.Err)
			report.Failed++
		}
		report.Items = append(report.Items, item)
	}

	logger.Infof("batch finished: %d succeeded, %d failed", report.Succeeded, report.Failed)
	return report
}

// DownloadTrack locates, downloads and tags one catalog track.
func (p *Pipeline) DownloadTrack(ctx context.Context, ref string, track models.Track, source models.DownloadSource) ItemResult {
	return p.downloadTrack(ctx, "", ref, track, source)
}

func (p *Pipeline) downloadTrack(ctx context.Context, batchID, ref string, track models.Track, source models.DownloadSource) (item ItemResult) {
	paths := audio.NewPathPair(p.deps.Dir, helpers.SafeFilename(track.DisplayName()), p.deps.Acquirer.Format())
	item = ItemResult{Track: track, Source: source, Path: paths.TempPath}
	logger := p.logger.WithFields(log.Fields{"track": track.DisplayName(), "source": source})

	defer func() { p.record(batchID, ref, item) }()
	// a collaborator panic fails this item only; it is recovered before the
	// history record above is written
	defer func() {
		if r := recover(); r != nil {
			item.Err = fmt.Errorf("panic: %v", r)
			logger.Errorf("recovered from panic: %v", r)
			sentryhelper.CaptureException(ctx, item.Err)
		}
	}()

	if p.deps.SkipExisting {
		if title, err := p.readTitle(paths.TempPath); err == nil && title == track.Name {
			logger.Info("already downloaded, skipping")
			item.Skipped = true
			return item
		}
	}

	sentryhelper.AddBreadcrumb(ctx, &sentry.Breadcrumb{
		Category: "download",
		Message:  "Locating " + track.SearchQuery,
		Level:    sentry.LevelInfo,
		Data:     map[string]interface{}{"source": string(source), "batch_id": batchID},
	})

	mediaURL, err := p.deps.Locator.Locate(ctx, source, track.SearchQuery)
	if err != nil {
		item.Err = err
		return item
	}
	item.MediaURL = mediaURL

	if err := p.deps.Acquirer.Acquire(ctx, mediaURL, paths); err != nil {
		item.Err = err
		return item
	}

	if err := p.deps.Tagger.Tag(ctx, paths.TempPath, track); err != nil {
		logger.Warnf("downloaded without tags: %v", err)
		item.TagErr = err
	}

	logger.Debugf("saved to %s", paths.TempPath)
	return item
}

// DownloadDirect downloads a non-catalog link as-is, named after the media title.
// The result is not tagged.
func (p *Pipeline) DownloadDirect(ctx context.Context, ref string, source models.DownloadSource) ItemResult {
	item := ItemResult{Source: source, MediaURL: ref}
	if err := p.deps.Acquirer.AcquireDirect(ctx, ref, p.deps.Dir); err != nil {
		p.logger.WithField("reference", ref).Errorf("direct download failed: %v", err)
		item.Err = err
	}
	p.record("", ref, item)
	return item
}

func (p *Pipeline) record(batchID, ref string, item ItemResult) {
	if p.deps.History == nil {
		return
	}

	record := database.HistoryRecord{
		BatchID:    batchID,
		Reference:  ref,
		Title:      item.Track.Name,
		Performers: item.Track.Performers,
		Source:     string(item.Source),
		Path:       item.Path,
		Status:     database.StatusSucceeded,
	}
	if record.Title == "" {
		record.Title = ref
	}
	if item.Err != nil {
		record.Status = database.StatusFailed
		record.Error = item.Err.Error()
	}
	if err := p.deps.History.RecordDownload(record); err != nil {
		p.logger.Warnf("failed to record download history: %v", err)
	}
}
