package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rigsync/backend/internal/domain"
	"github.com/rigsync/backend/internal/infrastructure/spreadsheet"
	"github.com/rigsync/backend/internal/usecase"
)

// Identity headers set by the upstream gateway
const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	imports *usecase.ImportService
	reader  *spreadsheet.Reader
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(imports *usecase.ImportService, reader *spreadsheet.Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{imports: imports, reader: reader, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "rigsync-backend",
		"version": "1.0.0",
	})
}

// CreateImport stages an uploaded spreadsheet into a new session
func (h *Handler) CreateImport(c *gin.Context) {
	h.stage(c, nil)
}

// UploadImport re-stages an existing session, replacing its rows
func (h *Handler) UploadImport(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	h.stage(c, &sessionID)
}

func (h *Handler) stage(c *gin.Context, sessionID *uuid.UUID) {
	userID, companyID, ok := identity(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	sheet, err := h.reader.Read(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	details, err := h.imports.Stage(c.Request.Context(), usecase.StageRequest{
		SessionID: sessionID,
		UserID:    userID,
		CompanyID: companyID,
		FileName:  header.Filename,
		FileSize:  header.Size,
		Rows:      spreadsheet.MapRows(sheet),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if sessionID == nil {
		status = http.StatusCreated
	}
	c.JSON(status, details)
}

// AnalyzeImport runs matching for every pending row
func (h *Handler) AnalyzeImport(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	details, err := h.imports.Analyze(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetImport returns a session with its rows and stored candidates
func (h *Handler) GetImport(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	details, err := h.imports.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

type confirmRequest struct {
	Items []usecase.ConfirmItem `json:"items"`
}

// ConfirmImport applies a batch of attach/create decisions
func (h *Handler) ConfirmImport(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.imports.Confirm(c.Request.Context(), sessionID, req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelImport marks an active session cancelled
func (h *Handler) CancelImport(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	session, err := h.imports.Cancel(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type skipRequest struct {
	Skipped *bool `json:"skipped"`
}

// SkipRow sets or clears a row's skip flag. An empty body skips.
func (h *Handler) SkipRow(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	rowNumber, err := strconv.Atoi(c.Param("row"))
	if err != nil || rowNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "row must be a positive integer"})
		return
	}

	skipped := true
	if c.Request.ContentLength != 0 {
		var req skipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.Skipped != nil {
			skipped = *req.Skipped
		}
	}

	row, err := h.imports.SetRowSkipped(c.Request.Context(), sessionID, rowNumber, skipped)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

func identity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": HeaderUserID + " header must be a uuid"})
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err := uuid.Parse(c.GetHeader(HeaderCompanyID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": HeaderCompanyID + " header must be a uuid"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, companyID, true
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRowNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionFinalized),
		errors.Is(err, domain.ErrSessionCancelled),
		errors.Is(err, domain.ErrLockTimeout):
		return http.StatusConflict
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrTooManyRows),
		errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrNoValidRows),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
