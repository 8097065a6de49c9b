package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tunedl/applemusic"
	"tunedl/audio"
	appConfig "tunedl/config"
	"tunedl/controller"
	"tunedl/database"
	"tunedl/handlers"
	"tunedl/logging"
	"tunedl/lyrics"
	"tunedl/menu"
	"tunedl/metadata"
	"tunedl/models"
	"tunedl/sentry"
	"tunedl/spotify"
	"tunedl/youtube"
)

// app holds everything the commands share once bootstrap succeeded.
type app struct {
	db       *database.Database
	pipeline *controller.Pipeline
	locator  *youtube.Locator
	spotify  *spotify.Client
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
	appConfig.NewConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "tunedl",
		Short:        "Download music from Spotify, Apple Music, YouTube and SoundCloud links",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.db.LoadSettings()
			if err != nil {
				log.Warnf("using default settings: %v", err)
			}

			var catalog menu.CatalogSearcher
			if a.spotify != nil {
				catalog = a.spotify
			}
			return menu.New(a.pipeline, a.db, a.locator, catalog, settings).Run(cmd.Context())
		},
	}

	root.AddCommand(newGetCommand(a), newServeCommand(a), newHistoryCommand(a))
	return root
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <reference>...",
		Short: "Download one or more links without the menu",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.db.LoadSettings()
			if err != nil {
				log.Warnf("using default settings: %v", err)
			}

			return downloadAll(cmd.Context(), a.pipeline, args, settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

type referenceDownloader interface {
	Download(ctx context.Context, ref string, settings models.Settings) (controller.Result, error)
}

// downloadAll downloads every reference and reports how many failed. A batch
// counts as failed when any of its items failed.
func downloadAll(ctx context.Context, downloader referenceDownloader, refs []string, settings models.Settings, out, errOut io.Writer) error {
	failed := 0
	for _, ref := range refs {
		result, err := downloader.Download(ctx, ref, settings)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", ref, err)
			failed++
			continue
		}
		menu.PrintResult(out, result)
		if result.Batch != nil && result.Batch.Failed > 0 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d references failed", failed, len(refs))
	}
	return nil
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the downloader over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router := handlers.NewManager(a.pipeline, a.db).Router()

			port := appConfig.Config.Options.Port
			server := &http.Server{Addr: ":" + port, Handler: router}
			go func() {
				<-cmd.Context().Done()
				server.Shutdown(context.Background())
			}()

			log.Infof("Starting server on :%s", port)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.db.GetHistory(limit)
			if err != nil {
				return err
			}
			menu.PrintHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of downloads to show")
	return cmd
}

func (a *app) setup(ctx context.Context) error {
	cfg := appConfig.Config
	logging.Setup(cfg.Options.LogLevel, cfg.Options.LogFile)

	if err := sentry.Init(cfg.Sentry.DSN, cfg.Sentry.Release); err != nil {
		log.Errorf("sentry.Init: %v", err)
	}

	if err := os.MkdirAll(cfg.Download.Dir, 0755); err != nil {
		return fmt.Errorf("cannot create download directory %s: %w", cfg.Download.Dir, err)
	}

	db, err := database.New(cfg.Options.DBPath)
	if err != nil {
		return err
	}
	a.db = db

	a.locator = youtube.NewLocator(cfg.Youtube.APIKey)

	deps := controller.Dependencies{
		Platforms:    cfg.Platforms,
		AppleMusic:   applemusic.NewClient(),
		Locator:      a.locator,
		Acquirer:     audio.NewExecutor(audio.NewEngine(), cfg.Download.AudioFormat, cfg.Download.AudioQuality),
		History:      db,
		Prompter:     menu.SurveyPrompter{},
		Dir:          cfg.Download.Dir,
		SkipExisting: cfg.Download.SkipExisting,
	}

	if cfg.Spotify.IsEnabled() {
		client, err := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		if err != nil {
			log.Warnf("Spotify disabled: %v", err)
		} else {
			a.spotify = client
			deps.Spotify = client
		}
	} else {
		log.Info("SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET not set, Spotify links are disabled")
	}

	if cfg.Download.EmbedLyrics {
		deps.Tagger = metadata.NewTagger(lyrics.New())
	} else {
		deps.Tagger = metadata.NewTagger(nil)
	}

	a.pipeline = controller.NewPipeline(deps)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	sentry.Flush()
}
