package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"

	"tunedl/controller"
	"tunedl/models"
)

type scriptedDownloader struct {
	results map[string]controller.Result
	errs    map[string]error
}

func (s scriptedDownloader) Download(_ context.Context, ref string, _ models.Settings) (controller.Result, error) {
	return s.results[ref], s.errs[ref]
}

func TestDownloadAll(t *testing.T) {
	color.NoColor = true

	track := models.NewTrack("Song", "Artist", "", models.TrackTypeTrack)
	downloader := scriptedDownloader{
		results: map[string]controller.Result{
			"ok":         {Item: &controller.ItemResult{Track: track}},
			"batch-ok":   {Batch: &controller.BatchReport{Type: models.CollectionAlbum, Total: 1, Succeeded: 1}},
			"batch-fail": {Batch: &controller.BatchReport{Type: models.CollectionAlbum, Total: 2, Succeeded: 1, Failed: 1}},
		},
		errs: map[string]error{
			"missing": models.ErrLocatorMiss,
		},
	}

	tests := []struct {
		name    string
		refs    []string
		wantErr string
	}{
		{"all succeed", []string{"ok", "batch-ok"}, ""},
		{"single failure", []string{"ok", "missing"}, "1 of 2 references failed"},
		{"batch with failed items", []string{"batch-fail", "missing", "ok"}, "2 of 3 references failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := downloadAll(context.Background(), downloader, tt.refs, models.DefaultSettings(), &out, &errOut)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("downloadAll() error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("downloadAll() error = %v, want %q", err, tt.wantErr)
			}
			if !strings.Contains(errOut.String(), "missing: "+models.ErrLocatorMiss.Error()) {
				t.Errorf("stderr = %q", errOut.String())
			}
		})
	}
}
