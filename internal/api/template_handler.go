package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roster-import-api/internal/config"
	"github.com/roster-import-api/internal/service"
	"github.com/rs/zerolog"
)

// TemplateHandler serves the downloadable roster CSV templates
type TemplateHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "template").Logger(),
	}
}

// Download handles GET /v1/roster/templates/:role
func (h *TemplateHandler) Download(c *gin.Context) {
	role := strings.ToLower(c.Param("role"))
	scope := callerScope(c, h.cfg)

	data, filename, err := h.services.Template.Render(role, scope)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			fail(c, http.StatusBadRequest, "Invalid role")
		case errors.Is(err, service.ErrUnauthorizedScope):
			fail(c, http.StatusForbidden, "Forbidden")
		default:
			h.log.Error().Err(err).Str("role", role).Msg("Template rendering failed")
			fail(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}
