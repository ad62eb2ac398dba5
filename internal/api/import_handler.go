package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roster-import-api/internal/config"
	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/parser"
	"github.com/roster-import-api/internal/service"
	"github.com/rs/zerolog"
)

// ImportHandler handles the roster bulk upload endpoint
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /v1/roster/imports.
// Multipart form: role (student|faculty|dean), optional department (used by
// system-wide admins), csrf_token, and a .csv/.xlsx file part. The batch is
// processed synchronously and the response carries the summary plus paths to
// the emitted error/credential reports.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	ctx := c.Request.Context()

	// Double-submit CSRF: the form token must match the session token the
	// auth proxy forwards in the header
	csrfToken := c.PostForm("csrf_token")
	if csrfToken == "" || csrfToken != c.GetHeader("X-CSRF-Token") {
		fail(c, http.StatusForbidden, "Invalid CSRF token")
		return
	}

	role := strings.ToLower(strings.TrimSpace(c.PostForm("role")))
	if !models.ValidRoles[role] {
		fail(c, http.StatusBadRequest, "Invalid role")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	// Validate file size
	if header.Size > h.cfg.Import.MaxUploadSize {
		fail(c, http.StatusBadRequest,
			fmt.Sprintf("File too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)))
		return
	}

	req := &models.ImportRequest{
		Role:       role,
		Department: c.PostForm("department"),
		Scope:      callerScope(c, h.cfg),
	}

	result, err := h.services.Import.Run(ctx, req, file, filepath.Ext(header.Filename))
	if err != nil {
		h.respondImportError(c, err)
		return
	}

	h.log.Info().
		Str("role", role).
		Str("file", header.Filename).
		Int64("size_bytes", header.Size).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("Roster import processed")

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"summary":             result.Summary,
		"error_report":        nullablePath(result.ErrorReport),
		"credentials_report":  nullablePath(result.CredentialsReport),
		"provided_passwords":  result.ProvidedPasswords,
		"generated_passwords": result.GeneratedPasswords,
	})
}

// respondImportError maps batch-level failures to user-visible messages.
// Anything unrecognized is a server error: the batch was rolled back.
func (h *ImportHandler) respondImportError(c *gin.Context, err error) {
	var missing *service.MissingColumnsError
	switch {
	case errors.Is(err, service.ErrInvalidRole):
		fail(c, http.StatusBadRequest, "Invalid role")
	case errors.Is(err, service.ErrUnauthorizedScope):
		fail(c, http.StatusForbidden, "Department Admins cannot upload Deans")
	case errors.Is(err, parser.ErrUnsupportedFormat):
		fail(c, http.StatusBadRequest, "Unsupported file type. Use .csv or .xlsx")
	case errors.Is(err, service.ErrEmptyOrUnreadable):
		fail(c, http.StatusBadRequest, "File appears empty or unreadable")
	case errors.As(err, &missing):
		fail(c, http.StatusBadRequest, "Missing required columns: "+strings.Join(missing.Columns, ", "))
	default:
		h.log.Error().Err(err).Msg("Roster import failed")
		fail(c, http.StatusInternalServerError, "Server error")
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func nullablePath(p string) interface{} {
	if p == "" {
		return nil
	}
	return p
}
