package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"datagovchat/internal/models"
	"datagovchat/internal/notify"
	"datagovchat/internal/service/catalog"
	"datagovchat/internal/service/chatbot"
	"datagovchat/internal/service/dataset"
)

type Fetcher interface {
	Fetch(ctx context.Context, req dataset.Request) (*dataset.Result, error)
}

type Responder interface {
	RespondWithDataset(ctx context.Context, query, datasetPath string) (string, error)
	Model() string
}

type Catalog interface {
	Record(ctx context.Context, d *models.Download) error
	List(ctx context.Context) ([]*models.Download, error)
	Latest(ctx context.Context, resourceID string) (*models.Download, error)
}

type Options struct {
	Fetcher   Fetcher
	Responder Responder
	Catalog   Catalog
	Publisher *notify.Publisher
	Logger    zerolog.Logger
	// OutputFolder is used when a download request names none.
	OutputFolder string
	// LegacyErrorStatus answers failed downloads with 200 and an error body.
	LegacyErrorStatus bool
}

// Handler wires HTTP routes to the fetcher, the catalog and the chatbot.
type Handler struct {
	fetcher      Fetcher
	responder    Responder
	catalog      Catalog
	publisher    *notify.Publisher
	log          zerolog.Logger
	outputFolder string
	legacyStatus bool
}

// NewHandler constructs a Handler instance.
func NewHandler(opts Options) *Handler {
	folder := opts.OutputFolder
	if folder == "" {
		folder = dataset.DefaultOutputFolder
	}
	return &Handler{
		fetcher:      opts.Fetcher,
		responder:    opts.Responder,
		catalog:      opts.Catalog,
		publisher:    opts.Publisher,
		log:          opts.Logger,
		outputFolder: folder,
		legacyStatus: opts.LegacyErrorStatus,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(RequestID())
	router.POST("/download-csv", h.downloadCSV)
	router.POST("/chat", h.chat)
	router.GET("/datasets", h.listDatasets)
	router.GET("/datasets/:resource_id", h.getDataset)
}

type downloadRequest struct {
	APIKey       string            `json:"api_key"`
	APIEndpoint  string            `json:"api_endpoint"`
	OutputFolder string            `json:"output_folder"`
	Filters      map[string]string `json:"filters"`
}

func (h *Handler) downloadCSV(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.downloadFailed(c, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	folder := req.OutputFolder
	if strings.TrimSpace(folder) == "" {
		folder = h.outputFolder
	}
	ctx := c.Request.Context()
	res, err := h.fetcher.Fetch(ctx, dataset.Request{
		Credential:   req.APIKey,
		ResourceID:   req.APIEndpoint,
		OutputFolder: folder,
		Filters:      req.Filters,
		RequestID:    RequestIDFromContext(c),
	})
	if err != nil {
		h.downloadFailed(c, downloadStatus(err), err)
		return
	}

	record := &models.Download{
		ResourceID:   res.ResourceID,
		OutputFolder: res.OutputFolder,
		FilePath:     res.FilePath,
		SizeBytes:    res.SizeBytes,
		ContentType:  res.ContentType,
		RequestID:    RequestIDFromContext(c),
	}
	if h.catalog != nil {
		if err := h.catalog.Record(ctx, record); err != nil {
			h.requestLog(c).Error().Err(err).Str("resource_id", res.ResourceID).Msg("Record download failed")
		}
	}
	h.publisher.Announce(ctx, record)

	c.JSON(http.StatusOK, gin.H{"file_path": res.FilePath})
}

func (h *Handler) downloadFailed(c *gin.Context, status int, err error) {
	if h.legacyStatus {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func downloadStatus(err error) int {
	var reqErr *dataset.RequestError
	switch {
	case errors.Is(err, dataset.ErrInvalidResourceID):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrUntrustedBody), errors.As(err, &reqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) chat(c *gin.Context) {
	if h.responder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chatbot not configured"})
		return
	}
	var query models.ChatQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()

	var datasetPath string
	if query.ResourceID != "" {
		d, err := h.lookupDownload(ctx, query.ResourceID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "dataset has not been downloaded"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		datasetPath = d.FilePath
	}

	text, err := h.responder.RespondWithDataset(ctx, query.Text, datasetPath)
	if err != nil {
		switch {
		case errors.Is(err, chatbot.ErrEmptyQuery):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, chatbot.ErrDatasetUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, models.ChatResponse{Text: text, Model: h.responder.Model()})
}

func (h *Handler) listDatasets(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusOK, gin.H{"datasets": []*models.Download{}})
		return
	}
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*models.Download{}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": list})
}

func (h *Handler) getDataset(c *gin.Context) {
	d, err := h.lookupDownload(c.Request.Context(), c.Param("resource_id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// lookupDownload prefers the redis copy and falls back to the catalog.
func (h *Handler) lookupDownload(ctx context.Context, resourceID string) (*models.Download, error) {
	if d, ok := h.publisher.Latest(ctx, resourceID); ok {
		return d, nil
	}
	if h.catalog == nil {
		return nil, catalog.ErrNotFound
	}
	return h.catalog.Latest(ctx, resourceID)
}

func (h *Handler) requestLog(c *gin.Context) *zerolog.Logger {
	l := h.log.With().Str("request_id", RequestIDFromContext(c)).Logger()
	return &l
}
