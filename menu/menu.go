package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"tunedl/controller"
	"tunedl/database"
	"tunedl/models"
	"tunedl/youtube"
)

const searchResultsPerBackend = 5

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	headingColor = color.New(color.FgCyan, color.Bold)
	hintColor    = color.New(color.FgYellow)
)

type Downloader interface {
	Download(ctx context.Context, ref string, settings models.Settings) (controller.Result, error)
	DownloadTrack(ctx context.Context, ref string, track models.Track, source models.DownloadSource) controller.ItemResult
	DownloadDirect(ctx context.Context, ref string, source models.DownloadSource) controller.ItemResult
}

type SettingsStore interface {
	SaveSettings(settings models.Settings) error
}

type MediaSearcher interface {
	Search(ctx context.Context, source models.DownloadSource, query string, n int) ([]youtube.Hit, error)
}

type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// Menu is the interactive session loop.
type Menu struct {
	downloader Downloader
	store      SettingsStore
	media      MediaSearcher
	catalog    CatalogSearcher // nil when Spotify is not configured
	prompter   controller.Prompter
	settings   models.Settings
	out        io.Writer
}

func New(downloader Downloader, store SettingsStore, media MediaSearcher, catalog CatalogSearcher, settings models.Settings) *Menu {
	return &Menu{
		downloader: downloader,
		store:      store,
		media:      media,
		catalog:    catalog,
		prompter:   SurveyPrompter{},
		settings:   settings,
		out:        os.Stdout,
	}
}

// Run shows the main menu until the user exits or presses Ctrl+C. Content
// errors are printed and never end the session.
func (m *Menu) Run(ctx context.Context) error {
	const (
		actionLink     = "Download by link"
		actionSearch   = "Search and download"
		actionSettings = "Download settings"
		actionExit     = "Exit"
	)

	for {
		var action string
		err := survey.AskOne(&survey.Select{
			Message: "Choose an action:",
			Options: []string{actionLink, actionSearch, actionSettings, actionExit},
		}, &action)
		if errors.Is(err, terminal.InterruptErr) {
			return nil
		}
		if err != nil {
			return err
		}

		switch action {
		case actionLink:
			var ref string
			if err := survey.AskOne(&survey.Input{Message: "Paste a link:"}, &ref); err != nil {
				continue
			}
			m.downloadReference(ctx, strings.TrimSpace(ref))
		case actionSearch:
			m.search(ctx)
		case actionSettings:
			m.changeSettings()
		case actionExit:
			return nil
		}
	}
}

func (m *Menu) downloadReference(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	result, err := m.downloader.Download(ctx, ref, m.settings)
	if err != nil {
		if errors.Is(err, models.ErrClassificationMiss) {
			failureColor.Fprintln(m.out, "Unsupported platform or invalid link")
			return
		}
		failureColor.Fprintf(m.out, "Download failed: %v\n", err)
		return
	}
	PrintResult(m.out, result)
}

// PrintResult writes a human-readable summary of a download.
func PrintResult(out io.Writer, result controller.Result) {
	if result.Batch != nil {
		report := result.Batch
		for _, item := range report.Items {
			printItem(out, item)
		}
		if report.Name != "" {
			headingColor.Fprintf(out, "\n%s %q finished\n", report.Type, report.Name)
		} else {
			headingColor.Fprintf(out, "\n%s finished\n", report.Type)
		}
		successColor.Fprintf(out, "Succeeded: %d\n", report.Succeeded)
		if report.Failed > 0 {
			failureColor.Fprintf(out, "Failed: %d\n", report.Failed)
		} else {
			fmt.Fprintf(out, "Failed: %d\n", report.Failed)
		}
		return
	}
	if result.Item != nil {
		printItem(out, *result.Item)
	}
}

func printItem(out io.Writer, item controller.ItemResult) {
	name := item.MediaURL
	if item.Track.Name != "" {
		name = item.Track.DisplayName()
	}

	switch {
	case item.Err != nil:
		failureColor.Fprintf(out, "✗ %s: %v\n", name, item.Err)
	case item.Skipped:
		hintColor.Fprintf(out, "- %s: already downloaded\n", name)
	case item.TagErr != nil:
		successColor.Fprintf(out, "✓ %s", name)
		hintColor.Fprintf(out, " (tags not written: %v)\n", item.TagErr)
	default:
		successColor.Fprintf(out, "✓ %s\n", name)
	}
}

// PrintHistory writes download history records, newest first.
func PrintHistory(out io.Writer, records []database.HistoryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No downloads yet")
		return
	}
	for _, r := range records {
		line := r.Title
		if r.Performers != "" {
			line = r.Performers + " - " + r.Title
		}
		stamp := r.DownloadedAt.Local().Format("2006-01-02 15:04")
		if r.Status == database.StatusFailed {
			failureColor.Fprintf(out, "%s  ✗ %s [%s]: %s\n", stamp, line, r.Source, r.Error)
			continue
		}
		successColor.Fprintf(out, "%s  ✓ %s [%s]\n", stamp, line, r.Source)
	}
}

func (m *Menu) changeSettings() {
	const back = "Back to main menu"

	for {
		askLabel := fmt.Sprintf("Ask for source: %s", yesNo(m.settings.AskSource))
		preferredLabel := fmt.Sprintf("Preferred source: %s", m.settings.PreferredSource)

		var choice string
		if err := survey.AskOne(&survey.Select{
			Message: "Download settings:",
			Options: []string{askLabel, preferredLabel, back},
		}, &choice); err != nil || choice == back {
			return
		}

		switch choice {
		case askLabel:
			m.settings.AskSource = !m.settings.AskSource
		case preferredLabel:
			options := make([]string, 0, len(models.DownloadSources))
			for _, source := range models.DownloadSources {
				options = append(options, string(source))
			}
			var selected string
			if err := survey.AskOne(&survey.Select{
				Message: "Choose a source:",
				Options: options,
				Default: string(m.settings.PreferredSource),
			}, &selected); err != nil {
				continue
			}
			source, err := models.ParseDownloadSource(selected)
			if err != nil {
				failureColor.Fprintln(m.out, err)
				continue
			}
			m.settings.PreferredSource = source
		}

		if err := m.store.SaveSettings(m.settings); err != nil {
			log.Errorf("failed to save settings: %v", err)
			failureColor.Fprintf(m.out, "Could not save settings: %v\n", err)
			continue
		}
		successColor.Fprintln(m.out, "Settings updated and saved")
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// SurveyPrompter asks free-form questions on the terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Prompt(message string) (string, error) {
	fmt.Print(message)
	var answer string
	err := survey.AskOne(&survey.Input{Message: "Your choice:"}, &answer)
	return answer, err
}
