package transport

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-label-scan/internal/config"
	apperrors "go-label-scan/internal/errors"
	"go-label-scan/internal/logger"
	"go-label-scan/internal/observer"
	"go-label-scan/internal/pipeline"
	"go-label-scan/internal/storage"
	"go-label-scan/internal/store"
	"go-label-scan/pkg/validation"
)

type UploadResponse struct {
	ScanID  string `json:"scanId"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(scans *store.Store, images storage.ImageStore, jobs *pipeline.Pipeline, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxUploadSize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(metrics))
	r.POST("/label-scan", ingestLabelScan(scans, images, jobs))
	r.GET("/label-scan/:id", getLabelScan(scans))

	return r
}

// ingestLabelScan validates and stores the uploaded image, creates the
// scan record in PROCESSING, and hands the stored image to the
// background pipeline. The response returns the scan identifier
// immediately; recognition has not started yet.
func ingestLabelScan(scans *store.Store, images storage.ImageStore, jobs *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing label scan upload")

		header, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "no image file provided",
				apperrors.NewValidationError("no image file provided", err))
			return
		}

		if err := validation.ValidateImageUpload(header); err != nil {
			respondError(c, http.StatusBadRequest, "invalid upload",
				apperrors.NewValidationError("file must be an image", err))
			return
		}

		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to read upload",
				apperrors.NewInternalError("failed to read upload", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to read upload",
				apperrors.NewInternalError("failed to read upload", err))
			return
		}

		// Collision-resistant stored name: random token plus the
		// sanitized client filename
		filename := uuid.NewString() + "-" + validation.SanitizeFilename(header.Filename)

		// The image must be durable before the record exists; a
		// storage failure means no scan was created
		stored, err := images.Save(c.Request.Context(), filename, data)
		if err != nil {
			storageErr := apperrors.NewStorageError("failed to store image", err)
			respondError(c, storageErr.StatusCode, "failed to store image", storageErr)
			return
		}

		scan, err := scans.Create(c.Request.Context(), stored.URL, store.StatusProcessing)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to create scan record",
				apperrors.NewInternalError("failed to create scan record", err))
			return
		}

		jobs.Submit(pipeline.Job{ScanID: scan.ID, ImageRef: stored.Ref})

		logger.WithFields(logrus.Fields{
			"scan_id":  scan.ID,
			"filename": header.Filename,
			"size":     header.Size,
		}).Info("Label scan accepted")

		c.JSON(http.StatusCreated, UploadResponse{
			ScanID:  scan.ID,
			Message: "Image uploaded successfully. Processing...",
		})
	}
}

// getLabelScan returns the latest persisted state of a scan. Clients
// poll this until the status is terminal.
func getLabelScan(scans *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		scan, err := scans.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to load scan",
				apperrors.NewInternalError("failed to load scan", err))
			return
		}
		if scan == nil {
			notFound := apperrors.NewNotFoundError("scan not found", nil)
			respondError(c, notFound.StatusCode, "scan not found", notFound)
			return
		}

		c.JSON(http.StatusOK, scan)
	}
}

func healthCheck(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "available",
			"version":  "1.0.0",
			"time":     time.Now().UTC().Format(time.RFC3339),
			"pipeline": metrics.GetMetrics(),
		})
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, apperrors.GetStatusCode(err.Err), "request processing failed", err)
		}
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
