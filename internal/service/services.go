package service

import (
	"github.com/roster-import-api/internal/config"
	"github.com/roster-import-api/internal/repository"
	"github.com/rs/zerolog"
)

// Services holds all service interfaces
type Services struct {
	Import   ImportService
	Template TemplateService
}

// NewServices creates all services with their dependencies
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Import:   newImportService(repos, cfg, log),
		Template: newTemplateService(log),
	}
}
