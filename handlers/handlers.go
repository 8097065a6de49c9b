// Package handlers exposes the download pipeline over HTTP for `tunedl serve`.
// Requests run synchronously and never prompt.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tunedl/controller"
	"tunedl/database"
	"tunedl/models"
	"tunedl/sentry"
)

type Downloader interface {
	Download(ctx context.Context, ref string, settings models.Settings) (controller.Result, error)
}

type Store interface {
	LoadSettings() (models.Settings, error)
	GetHistory(limit int) ([]database.HistoryRecord, error)
}

type Manager struct {
	Downloader Downloader
	Store      Store
	logger     *log.Entry
}

type DownloadRequest struct {
	Reference string `json:"reference" binding:"required"`
}

type ItemResponse struct {
	Title      string `json:"title,omitempty"`
	Performers string `json:"performers,omitempty"`
	Source     string `json:"source"`
	MediaURL   string `json:"media_url,omitempty"`
	Path       string `json:"path,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
	TagError   string `json:"tag_error,omitempty"`
}

type BatchResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Items     []ItemResponse `json:"items"`
}

type DownloadResponse struct {
	Platform string         `json:"platform,omitempty"`
	Item     *ItemResponse  `json:"item,omitempty"`
	Batch    *BatchResponse `json:"batch,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func NewManager(downloader Downloader, store Store) *Manager {
	return &Manager{
		Downloader: downloader,
		Store:      store,
		logger: log.WithFields(log.Fields{
			"module": "handlers",
		}),
	}
}

func (manager *Manager) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), sentry.GetSentryGin())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.POST("/downloads", manager.handleDownload)
	router.GET("/history", manager.handleHistory)

	return router
}

func (manager *Manager) handleDownload(c *gin.Context) {
	var request DownloadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	settings, err := manager.Store.LoadSettings()
	if err != nil {
		manager.logger.Warnf("using default settings: %v", err)
	}
	settings.AskSource = false

	result, err := manager.Downloader.Download(c.Request.Context(), request.Reference, settings)
	response := toDownloadResponse(result)
	if err != nil {
		manager.logger.WithField("reference", request.Reference).Errorf("download failed: %v", err)
		response.Error = err.Error()
		c.JSON(statusFor(err), response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (manager *Manager) handleHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}

	records, err := manager.Store.GetHistory(limit)
	if err != nil {
		manager.logger.Errorf("error reading history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	if records == nil {
		records = []database.HistoryRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"history": records})
}

func statusFor(err error) int {
	var resolution *models.ResolutionError
	var fetch *models.FetchError
	switch {
	case errors.Is(err, models.ErrClassificationMiss):
		return http.StatusBadRequest
	case errors.As(err, &resolution), errors.Is(err, models.ErrCollectionEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrLocatorMiss):
		return http.StatusNotFound
	case errors.As(err, &fetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toDownloadResponse(result controller.Result) DownloadResponse {
	response := DownloadResponse{Platform: string(result.Platform)}
	if result.Item != nil {
		item := toItemResponse(*result.Item)
		response.Item = &item
	}
	if result.Batch != nil {
		batch := BatchResponse{
			ID:        result.Batch.ID,
			Name:      result.Batch.Name,
			Type:      string(result.Batch.Type),
			Source:    string(result.Batch.Source),
			Total:     result.Batch.Total,
			Succeeded: result.Batch.Succeeded,
			Failed:    result.Batch.Failed,
			Items:     make([]ItemResponse, 0, len(result.Batch.Items)),
		}
		for _, item := range result.Batch.Items {
			batch.Items = append(batch.Items, toItemResponse(item))
		}
		response.Batch = &batch
	}
	return response
}

func toItemResponse(item controller.ItemResult) ItemResponse {
	response := ItemResponse{
		Title:      item.Track.Name,
		Performers: item.Track.Performers,
		Source:     string(item.Source),
		MediaURL:   item.MediaURL,
		Path:       item.Path,
		Skipped:    item.Skipped,
	}
	if item.Err != nil {
		response.Error = item.Err.Error()
	}
	if item.TagErr != nil {
		response.TagError = item.TagErr.Error()
	}
	return response
}
