package controller

import (
	"strings"

	"tunedl/config"
	"tunedl/models"
)

// Classify returns the first platform with a marker contained in ref.
func Classify(platforms []config.PlatformMarkers, ref string) (models.Platform, error) {
	for _, p := range platforms {
		for _, marker := range p.Markers {
			if strings.Contains(ref, marker) {
				return p.Platform, nil
			}
		}
	}
	return models.PlatformNone, models.ErrClassificationMiss
}
