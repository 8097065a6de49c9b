package controller

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"tunedl/models"
)

// Prompter asks the user a question and returns the raw answer.
type Prompter interface {
	Prompt(message string) (string, error)
}

// SelectSource decides which backend supplies the audio. It only prompts when
// AskSource is set and the metadata came from a catalog platform.
func SelectSource(settings models.Settings, origin models.Platform, prompter Prompter) (models.DownloadSource, error) {
	if !settings.AskSource {
		return settings.PreferredSource, nil
	}
	if !origin.IsCatalog() {
		return models.DownloadSource(origin), nil
	}
	if prompter == nil {
		return settings.PreferredSource, nil
	}

	var b strings.Builder
	b.WriteString("Select download source:\n")
	for i, source := range models.DownloadSources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, source)
	}
	message := b.String()

	for {
		answer, err := prompter.Prompt(message)
		if err != nil {
			return "", fmt.Errorf("source selection aborted: %w", err)
		}

		choice, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			log.Debugf("non-numeric source choice %q", answer)
			message = "Enter a valid number\n"
			continue
		}
		if choice < 1 || choice > len(models.DownloadSources) {
			message = "Invalid choice\n"
			continue
		}
		return models.DownloadSources[choice-1], nil
	}
}
