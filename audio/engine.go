package audio

import (
	"context"
	"strconv"

	"github.com/lrstanley/go-ytdlp"
	log "github.com/sirupsen/logrus"
)

// Options are passed to the fetch engine for every download.
type Options struct {
	Format         string // preferred audio codec, e.g. "mp3"
	Quality        int    // kbps
	OutputTemplate string
}

// Engine downloads a media URL and extracts its audio track.
type Engine interface {
	Fetch(ctx context.Context, mediaURL string, opts Options) error
}

type ytdlpEngine struct {
	logger *log.Entry
}

// NewEngine returns the yt-dlp backed engine. ffmpeg must be on PATH for the
// audio extraction step.
func NewEngine() Engine {
	return &ytdlpEngine{
		logger: log.WithFields(log.Fields{
			"module": "audio-engine",
		}),
	}
}

func (e *ytdlpEngine) Fetch(ctx context.Context, mediaURL string, opts Options) error {
	e.logger.Debugf("starting fetch for %s", mediaURL)

	result, err := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(opts.Format).
		AudioQuality(strconv.Itoa(opts.Quality) + "K").
		Output(opts.OutputTemplate).
		NoPlaylist().
		NoProgress().
		NoWarnings().
		Run(ctx, mediaURL)
	if err != nil {
		fields := log.Fields{"error": err}
		if result != nil {
			fields["exit_code"] = result.ExitCode
			fields["stderr"] = result.Stderr
		}
		e.logger.WithFields(fields).Error("yt-dlp command failed")
		return err
	}

	e.logger.Tracef("fetched %s", mediaURL)
	return nil
}
